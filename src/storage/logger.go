package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

// LogLevel 定义日志级别类型
type LogLevel int

// 日志级别常量定义
const (
	DEBUG   LogLevel = iota // 调试信息
	INFO                    // 普通信息
	WARNING                 // 警告信息
	ERROR                   // 错误信息
	FATAL                   // 致命错误
)

// Logger 日志记录器结构体
// 同时写入日志文件和控制台
type Logger struct {
	filename string
	file     *os.File     // 日志文件句柄
	console  *slog.Logger // 控制台输出
	level    LogLevel     // 最低记录级别
	mu       sync.Mutex   // 互斥锁，保证并发安全

	writeFailed bool // 写文件失败只提示一次，重新打开后复位
}

// NewLogger 创建新的日志记录器
// 参数:
//
//	filename: 日志文件路径
//	console:  控制台输出目标，为 nil 时不输出到控制台
//
// 返回值:
//
//	*Logger: 日志记录器实例
//	error: 创建过程中的错误
func NewLogger(filename string, console io.Writer) (*Logger, error) {
	l := &Logger{level: INFO}
	// 打开或创建日志文件，权限设置为0644
	if err := l.reopen(filename); err != nil {
		return nil, err
	}
	if console != nil {
		l.console = slog.New(tint.NewHandler(console, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	}
	return l, nil
}

// SetLevel 设置最低记录级别
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// reopen 关闭当前文件并以追加方式打开 filename，调用方需持有锁
func (l *Logger) reopen(filename string) error {
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.filename = filename
	l.writeFailed = false
	return nil
}

// Log 记录日志方法
// 参数:
//
//	level: 日志级别
//	message: 日志消息内容
//	args: 键值对形式的附加字段
func (l *Logger) Log(level LogLevel, message string, args ...any) {
	l.mu.Lock()         // 加锁保证线程安全
	defer l.mu.Unlock() // 方法结束时自动解锁

	if level < l.level {
		return
	}

	// 格式化日志条目: [时间] 级别: 消息 key=value ...
	entry := fmt.Sprintf("[%s] %s: %s%s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		level.String(),
		message,
		formatArgs(args))

	// 写入日志文件
	if l.file != nil {
		if _, err := l.file.WriteString(entry); err != nil && !l.writeFailed {
			l.writeFailed = true
			l.reportWriteError(err)
		}
	}

	if l.console != nil {
		l.console.Log(context.Background(), level.slogLevel(), message, args...)
	}
}

// reportWriteError 日志文件不可写时通过控制台(没有控制台时为标准错误)提示
func (l *Logger) reportWriteError(err error) {
	if l.console != nil {
		l.console.Error("log file write failed", "file", l.filename, "error", err)
		return
	}
	fmt.Fprintf(os.Stderr, "log file write failed: %s: %v\n", l.filename, err)
}

// CheckRotate 日志文件超过 maxSize 时进行轮转
// maxSize 形如 "10 * 1024 * 1024"
func (l *Logger) CheckRotate(maxSize string) error {
	l.mu.Lock()
	file := l.file
	l.mu.Unlock()
	if file == nil {
		return nil
	}

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("读取日志文件信息失败: %w", err)
	}

	limit, err := ParseSize(maxSize)
	if err != nil {
		return err
	}
	if info.Size() > limit {
		return l.rotateLog()
	}
	return nil
}

func (l *Logger) rotateLog() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
		l.file = nil
		ext := ""
		base := l.filename
		if i := strings.LastIndex(base, "."); i > 0 {
			base, ext = base[:i], base[i:]
		}
		rotated := fmt.Sprintf("%s.%s%s", base, time.Now().Format("20060102150405"), ext)
		if err := os.Rename(l.filename, rotated); err != nil {
			return fmt.Errorf("日志轮转失败: %w", err)
		}
	}

	if err := l.reopen(l.filename); err != nil {
		return fmt.Errorf("重新创建日志文件失败: %w", err)
	}
	return nil
}

// String 实现LogLevel的String方法
// 返回值:
//
//	string: 日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARNING:
		return slog.LevelWarn
	case ERROR, FATAL:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel 将配置中的级别名称转换为 LogLevel
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARNING, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level %q", s)
	}
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fmt.Fprintf(&b, " %v", args[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}

// ParseSize 解析形如 "10 * 1024 * 1024" 的字节数表达式，结果必须为正数
func ParseSize(expr string) (int64, error) {
	var result int64 = 1
	for _, part := range strings.Split(expr, "*") {
		num, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid size expression %q", expr)
		}
		result *= num
	}
	if result <= 0 {
		return 0, fmt.Errorf("invalid size expression %q: must be positive", expr)
	}
	return result, nil
}

// 以下是快捷日志方法
func (l *Logger) Debug(msg string, args ...any)   { l.Log(DEBUG, msg, args...) }   // 记录调试信息
func (l *Logger) Info(msg string, args ...any)    { l.Log(INFO, msg, args...) }    // 记录普通信息
func (l *Logger) Warning(msg string, args ...any) { l.Log(WARNING, msg, args...) } // 记录警告信息
func (l *Logger) Error(msg string, args ...any)   { l.Log(ERROR, msg, args...) }   // 记录错误信息
func (l *Logger) Fatal(msg string, args ...any)   { l.Log(FATAL, msg, args...) }   // 记录致命错误
