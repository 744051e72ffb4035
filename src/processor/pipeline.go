package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"AirQualityCleaner/src/metrics"
	"AirQualityCleaner/src/storage"
)

// 列名
const (
	ColMonth        = "month"
	ColDay          = "day"
	ColYear         = "year"
	ColHour         = "hour"
	ColMinute       = "minute"
	ColOzone        = "ozone"
	ColSolarR       = "solar_R"
	ColWind         = "wind"
	ColTemp         = "temp"
	ColSensorID     = "sensor_id"
	ColDate         = "date"
	ColAirport      = "airport"
	ColSensorNumber = "sensor_number"
)

// Stage 流水线中的一个步骤
// Apply 返回新的DataFrame，不修改输入
type Stage interface {
	Name() string
	Apply(df dataframe.DataFrame, rep *Report) (dataframe.DataFrame, error)
}

// FillCount 单列的补全统计
type FillCount struct {
	Backward int
	Forward  int
	Unfilled int
}

// Report 一次清洗中的数据质量统计
type Report struct {
	Rows              int
	MonthUnrecognized int
	UnknownMonths     map[string]int
	DateMissing       int
	Partitions        int
	SensorCodeShort   int
	Fill              map[string]FillCount
}

func newReport(rows int) *Report {
	return &Report{
		Rows:          rows,
		UnknownMonths: make(map[string]int),
		Fill:          make(map[string]FillCount),
	}
}

func (r *Report) addUnknownMonth(token string) {
	r.MonthUnrecognized++
	r.UnknownMonths[token]++
}

func (r *Report) addFill(column string, fc FillCount) {
	cur := r.Fill[column]
	cur.Backward += fc.Backward
	cur.Forward += fc.Forward
	cur.Unfilled += fc.Unfilled
	r.Fill[column] = cur
}

// unknownMonthList 按字典序列出无法识别的月份写法
func (r *Report) unknownMonthList() string {
	tokens := make([]string, 0, len(r.UnknownMonths))
	for t, n := range r.UnknownMonths {
		tokens = append(tokens, fmt.Sprintf("%q×%d", t, n))
	}
	sort.Strings(tokens)
	return strings.Join(tokens, ", ")
}

// DefaultStages 月份标准化 -> 时间合成 -> 分组补全 -> 编码拆分
func DefaultStages() []Stage {
	return []Stage{
		MonthStage{},
		TimestampStage{},
		FillStage{},
		SensorCodeStage{},
	}
}

// Cleaner 依次执行各个步骤
type Cleaner struct {
	stages  []Stage
	logger  *storage.Logger
	metrics *metrics.Collector
}

// NewCleaner logger 和 collector 可以为 nil
func NewCleaner(logger *storage.Logger, collector *metrics.Collector, stages ...Stage) *Cleaner {
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	return &Cleaner{
		stages:  stages,
		logger:  logger,
		metrics: collector,
	}
}

// Clean 执行全部步骤，任一步骤出错即终止
// 每一步之后检查行数不变
func (c *Cleaner) Clean(df dataframe.DataFrame) (dataframe.DataFrame, *Report, error) {
	rep := newReport(df.Nrow())

	for _, stage := range c.stages {
		var timer *metrics.Timer
		if c.metrics != nil {
			timer = c.metrics.NewStageTimer(stage.Name())
		}

		out, err := stage.Apply(df, rep)
		if err != nil {
			return dataframe.DataFrame{}, rep, fmt.Errorf("%s 步骤失败: %w", stage.Name(), err)
		}
		if out.Nrow() != rep.Rows {
			return dataframe.DataFrame{}, rep, fmt.Errorf("%s 步骤改变了行数: %d -> %d", stage.Name(), rep.Rows, out.Nrow())
		}
		df = out

		if timer != nil {
			elapsed := timer.ObserveDuration()
			c.debug("stage finished", "stage", stage.Name(), "elapsed", elapsed)
		}
	}

	c.record(rep)
	return df, rep, nil
}

// record 将统计写入指标并记录数据质量警告
func (c *Cleaner) record(rep *Report) {
	if c.metrics != nil {
		c.metrics.MonthUnrecognized.Add(float64(rep.MonthUnrecognized))
		c.metrics.DateMissing.Add(float64(rep.DateMissing))
		c.metrics.SensorCodeShort.Add(float64(rep.SensorCodeShort))
		c.metrics.Partitions.Set(float64(rep.Partitions))
		for _, name := range FillColumns {
			fc := rep.Fill[name]
			c.metrics.RecordFill(name, fc.Backward, fc.Forward, fc.Unfilled)
		}
	}

	if c.logger == nil {
		return
	}
	if rep.MonthUnrecognized > 0 {
		c.logger.Warning("unrecognized month tokens", "count", rep.MonthUnrecognized, "tokens", rep.unknownMonthList())
	}
	if rep.DateMissing > 0 {
		c.logger.Warning("rows without a valid date", "count", rep.DateMissing)
	}
	if rep.SensorCodeShort > 0 {
		c.logger.Warning("sensor codes shorter than 6 characters", "count", rep.SensorCodeShort)
	}
	for _, name := range FillColumns {
		fc := rep.Fill[name]
		if fc.Unfilled > 0 {
			c.logger.Warning("measurements left missing", "column", name, "count", fc.Unfilled)
		}
		c.logger.Debug("fill summary", "column", name, "backward", fc.Backward, "forward", fc.Forward)
	}
	c.logger.Info("cleaning finished", "rows", rep.Rows, "partitions", rep.Partitions)
}

func (c *Cleaner) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
