package file

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/spf13/cast"

	"AirQualityCleaner/src/utils"
)

// ColumnType 输入列的声明类型
type ColumnType int

const (
	String ColumnType = iota
	Int32
	Float32
)

func (t ColumnType) String() string {
	switch t {
	case String:
		return "string"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return "unknown"
	}
}

func (t ColumnType) seriesType() series.Type {
	switch t {
	case Int32:
		return series.Int
	case Float32:
		return series.Float
	default:
		return series.String
	}
}

// Column 列名与声明类型
type Column struct {
	Name string
	Type ColumnType
}

// Schema 固定的列名->类型映射，保持声明顺序
type Schema []Column

// AirQualitySchema 空气质量原始数据的列定义
var AirQualitySchema = Schema{
	{Name: "month", Type: String},
	{Name: "day", Type: Int32},
	{Name: "year", Type: Int32},
	{Name: "hour", Type: Int32},
	{Name: "minute", Type: Int32},
	{Name: "ozone", Type: Int32},
	{Name: "solar_R", Type: Int32},
	{Name: "wind", Type: Float32},
	{Name: "temp", Type: Int32},
	{Name: "sensor_id", Type: String},
}

// NullValues 任意列中都视为缺失值的字面量
var NullValues = []string{"NA", "N/A"}

// Names 返回Schema中的列名
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// ErrSchemaMismatch 字段无法转换为声明类型
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError 记录出错的列、行(从1开始的数据行号，0表示表头)和原始值
type SchemaMismatchError struct {
	Column string
	Row    int
	Value  string
	Type   ColumnType
	Err    error
}

func (e *SchemaMismatchError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("schema mismatch: column %q is missing from the header", e.Column)
	}
	return fmt.Sprintf("schema mismatch: column %q row %d: cannot parse %q as %s", e.Column, e.Row, e.Value, e.Type)
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

func (e *SchemaMismatchError) Unwrap() error {
	return e.Err
}

// applySchema 将全部为字符串的DataFrame按Schema转换列类型
// 不在Schema中的列原样保留
func applySchema(df dataframe.DataFrame, schema Schema) (dataframe.DataFrame, error) {
	present := df.Names()
	for _, col := range schema {
		if !utils.Contains(present, col.Name) {
			return dataframe.DataFrame{}, &SchemaMismatchError{Column: col.Name, Type: col.Type}
		}
	}

	for _, col := range schema {
		if col.Type == String {
			continue
		}
		converted, err := coerceSeries(df.Col(col.Name), col)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		df = df.Mutate(converted)
		if df.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("替换列 %s 失败: %w", col.Name, df.Err)
		}
	}
	return df, nil
}

func coerceSeries(s series.Series, col Column) (series.Series, error) {
	raw := make([]interface{}, s.Len())
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() {
			continue
		}
		v, err := coerceValue(el.String(), col.Type)
		if err != nil {
			return series.Series{}, &SchemaMismatchError{
				Column: col.Name,
				Row:    i + 1,
				Value:  el.String(),
				Type:   col.Type,
				Err:    err,
			}
		}
		raw[i] = v
	}
	return series.New(raw, col.Type.seriesType(), col.Name), nil
}

func coerceValue(v string, t ColumnType) (interface{}, error) {
	v = strings.TrimSpace(v)
	switch t {
	case Int32:
		// 按十进制解析，"08" 之类的补零写法合法
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case Float32:
		f, err := cast.ToFloat32E(v)
		if err != nil {
			return nil, err
		}
		return float64(f), nil
	default:
		return v, nil
	}
}
