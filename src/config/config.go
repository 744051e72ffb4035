package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"AirQualityCleaner/src/storage"
)

// 默认路径，与清洗流程约定的固定相对路径一致
const (
	DefaultInputPath  = "data/air_quality.csv"
	DefaultOutputPath = "data/air_quality_go.csv"
	DefaultLogName    = "app.log"
	DefaultLogMaxSize = "10 * 1024 * 1024"
	DefaultLogLevel   = "info"
	DefaultCharset    = "utf-8"
)

// Config 结构体定义了应用程序的配置结构
type Config struct {
	InputPath  string `json:"input_path"`  // 原始传感器数据文件(csv/xlsx)
	OutputPath string `json:"output_path"` // 清洗结果输出文件(csv/xlsx)
	SheetName  string `json:"sheet_name"`  // xlsx 输入/输出使用的工作表
	Charset    string `json:"charset"`     // 输入文件编码: utf-8, gbk, gb2312

	LogName    string `json:"log_name"`
	LogMaxSize string `json:"log_max_size"` // 形如 "10 * 1024 * 1024"
	LogLevel   string `json:"log_level"`

	MetricsFile string `json:"metrics_file"` // 为空则不导出运行指标
}

var (
	once     sync.Once
	instance *Config
	loadErr  error
)

// DefaultConfig 返回不依赖配置文件的默认配置
func DefaultConfig() *Config {
	return &Config{
		InputPath:  DefaultInputPath,
		OutputPath: DefaultOutputPath,
		Charset:    DefaultCharset,
		LogName:    DefaultLogName,
		LogMaxSize: DefaultLogMaxSize,
		LogLevel:   DefaultLogLevel,
	}
}

// LoadConfig 加载配置(进程内只加载一次)
// 配置文件不存在时使用默认配置
func LoadConfig(jsonFolder, jsonFile string) (*Config, error) {
	once.Do(func() {
		instance, loadErr = loadConfig(jsonFolder, jsonFile)
	})
	return instance, loadErr
}

func loadConfig(jsonFolder, jsonFile string) (*Config, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)

	cfg := DefaultConfig()

	data, err := readFile(configFile)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := parseConfig(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

// parseConfig 在默认值之上覆盖文件中出现的字段
func parseConfig(data []byte, cfg *Config) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("解析Config失败: %w", err)
	}
	return nil
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.InputPath) == "" {
		errs = append(errs, fmt.Errorf("input_path 不能为空"))
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		errs = append(errs, fmt.Errorf("output_path 不能为空"))
	}
	if filepath.Clean(c.InputPath) == filepath.Clean(c.OutputPath) {
		errs = append(errs, fmt.Errorf("output_path 不能与 input_path 相同: %s", c.OutputPath))
	}
	// 与日志模块使用同一套解析规则
	if _, err := storage.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log_level %q (allowed: debug, info, warning, error)", c.LogLevel))
	}
	if _, err := storage.ParseSize(c.LogMaxSize); err != nil {
		errs = append(errs, fmt.Errorf("invalid log_max_size: %w", err))
	}
	switch strings.ToLower(strings.TrimSpace(c.Charset)) {
	case "", "utf-8", "utf8", "gbk", "gb2312":
	default:
		errs = append(errs, fmt.Errorf("unsupported charset %q", c.Charset))
	}

	return combineErrors(errs)
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "配置加载遇到错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}
