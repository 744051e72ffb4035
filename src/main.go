package main

import (
	"AirQualityCleaner/src/config"
	"AirQualityCleaner/src/datapush"
	"AirQualityCleaner/src/datasource/file"
	"AirQualityCleaner/src/metrics"
	"AirQualityCleaner/src/processor"
	"AirQualityCleaner/src/storage"
	"fmt"
	"log"
	"os"
	"time"
)

func main() {
	jsonFolder := "./config"
	jsonFile := "config.json"
	cfg, err := config.LoadConfig(jsonFolder, jsonFile)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	// 初始化日志系统
	logger, err := storage.NewLogger(cfg.LogName, os.Stderr)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	level, err := storage.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger.SetLevel(level)
	if err := logger.CheckRotate(cfg.LogMaxSize); err != nil {
		logger.Warning("log rotation failed", "error", err)
	}

	collector := metrics.NewCollector("air_quality")

	if err := run(cfg, logger, collector); err != nil {
		logger.Fatal("cleaning aborted", "error", err)
		logger.Close()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logger.Close()
}

// run 读取 -> 清洗 -> 写出，返回的错误都是致命错误
func run(cfg *config.Config, logger *storage.Logger, collector *metrics.Collector) error {
	t1 := time.Now()

	df, err := file.ReadToDataFrame(cfg.InputPath, file.ReadOptions{
		Charset:   cfg.Charset,
		SheetName: cfg.SheetName,
	})
	if err != nil {
		return fmt.Errorf("读取输入失败: %w", err)
	}
	collector.RowsLoaded.Add(float64(df.Nrow()))
	logger.Info("input loaded", "path", cfg.InputPath, "rows", df.Nrow())

	cleaner := processor.NewCleaner(logger, collector)
	cleaned, _, err := cleaner.Clean(df)
	if err != nil {
		return fmt.Errorf("清洗失败: %w", err)
	}

	if err := datapush.Push(cleaned, cfg.OutputPath, cfg.SheetName); err != nil {
		return fmt.Errorf("写出结果失败: %w", err)
	}
	collector.RowsWritten.Add(float64(cleaned.Nrow()))
	logger.Info("output written", "path", cfg.OutputPath, "rows", cleaned.Nrow(), "elapsed", time.Since(t1))

	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			// 指标导出失败不影响清洗结果
			logger.Warning("metrics export failed", "error", err)
		}
	}
	return nil
}
