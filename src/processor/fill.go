package processor

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirQualityCleaner/src/utils"
)

// FillColumns 需要按传感器补全的测量列
var FillColumns = []string{ColOzone, ColSolarR, ColWind, ColTemp}

// Partition 同一传感器在排序后表中的行号(按时间先后)
type Partition struct {
	SensorID string
	Missing  bool // sensor_id 缺失的行单独成组
	Rows     []int
}

// dateOrder 返回按 date 升序的稳定行序，缺失的 date 排在最后
func dateOrder(dates []*int) []int {
	order := make([]int, len(dates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, db := dates[order[a]], dates[order[b]]
		switch {
		case da == nil:
			return false
		case db == nil:
			return true
		default:
			return *da < *db
		}
	})
	return order
}

// SortByDate 按 date 稳定升序排列，缺失的 date 排在最后
func SortByDate(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	col := df.Col(ColDate)
	if col.Err != nil {
		return df, fmt.Errorf("date 列不存在: %w", col.Err)
	}
	if df.Nrow() == 0 {
		return df, nil
	}
	out := df.Subset(dateOrder(utils.IntValues(col)))
	return out, out.Err
}

// PartitionBySensor 按 sensor_id 划分行号
// 组的顺序为各传感器在表中首次出现的顺序
func PartitionBySensor(ids series.Series) []Partition {
	var parts []Partition
	index := make(map[string]int)
	missing := -1

	for i := 0; i < ids.Len(); i++ {
		el := ids.Elem(i)
		if el.IsNA() {
			if missing < 0 {
				missing = len(parts)
				parts = append(parts, Partition{Missing: true})
			}
			parts[missing].Rows = append(parts[missing].Rows, i)
			continue
		}
		key := el.String()
		p, ok := index[key]
		if !ok {
			p = len(parts)
			index[key] = p
			parts = append(parts, Partition{SensorID: utils.UnescapeNaN(key)})
		}
		parts[p].Rows = append(parts[p].Rows, i)
	}
	return parts
}

// BackwardFill 用组内后面最近的非缺失值填充缺失值，返回填充数量
func BackwardFill[T any](vals []*T, rows []int) int {
	filled := 0
	var next *T
	for i := len(rows) - 1; i >= 0; i-- {
		r := rows[i]
		if vals[r] != nil {
			next = vals[r]
			continue
		}
		if next != nil {
			v := *next
			vals[r] = &v
			filled++
		}
	}
	return filled
}

// ForwardFill 用组内前面最近的非缺失值填充缺失值，返回填充数量
func ForwardFill[T any](vals []*T, rows []int) int {
	filled := 0
	var prev *T
	for _, r := range rows {
		if vals[r] != nil {
			prev = vals[r]
			continue
		}
		if prev != nil {
			v := *prev
			vals[r] = &v
			filled++
		}
	}
	return filled
}

// fillPartitions 每个组先向后补全再向前补全
func fillPartitions[T any](vals []*T, parts []Partition) FillCount {
	var fc FillCount
	for _, p := range parts {
		fc.Backward += BackwardFill(vals, p.Rows)
		fc.Forward += ForwardFill(vals, p.Rows)
	}
	return fc
}

// FillStage 排序、按传感器分组补全测量值，再按组展开为逐行表
type FillStage struct{}

func (FillStage) Name() string { return "fill" }

func (FillStage) Apply(df dataframe.DataFrame, rep *Report) (dataframe.DataFrame, error) {
	sorted, err := SortByDate(df)
	if err != nil {
		return df, err
	}

	ids := sorted.Col(ColSensorID)
	if ids.Err != nil {
		return df, fmt.Errorf("sensor_id 列不存在: %w", ids.Err)
	}
	parts := PartitionBySensor(ids)
	rep.Partitions = len(parts)

	for _, name := range FillColumns {
		col := sorted.Col(name)
		if col.Err != nil {
			return df, fmt.Errorf("%s 列不存在: %w", name, col.Err)
		}

		var (
			filled series.Series
			fc     FillCount
		)
		switch col.Type() {
		case series.Int:
			vals := utils.IntValues(col)
			fc = fillPartitions(vals, parts)
			filled = utils.NullableSeries(vals, series.Int, name)
		case series.Float:
			vals := utils.FloatValues(col)
			fc = fillPartitions(vals, parts)
			filled = utils.NullableSeries(vals, series.Float, name)
		default:
			return df, fmt.Errorf("%s 列类型为 %s, 无法补全", name, col.Type())
		}
		fc.Unfilled = utils.CountNA(filled)
		rep.addFill(name, fc)

		sorted = sorted.Mutate(filled)
		if sorted.Err != nil {
			return df, sorted.Err
		}
	}

	if sorted.Nrow() == 0 {
		return sorted, nil
	}

	// 按组顺序展开，组内保持时间顺序
	flat := make([]int, 0, sorted.Nrow())
	for _, p := range parts {
		flat = append(flat, p.Rows...)
	}
	out := sorted.Subset(flat)
	return out, out.Err
}
