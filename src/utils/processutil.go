package utils

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}

// 辅助函数：判断DataFrame是否有某列
func HasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// IntValues 将Int列转为可空切片，NA 对应 nil
func IntValues(s series.Series) []*int {
	out := make([]*int, s.Len())
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() {
			continue
		}
		v, err := el.Int()
		if err != nil {
			continue
		}
		out[i] = &v
	}
	return out
}

// FloatValues 将Float列转为可空切片，NA 对应 nil
func FloatValues(s series.Series) []*float64 {
	out := make([]*float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() {
			continue
		}
		v := el.Float()
		out[i] = &v
	}
	return out
}

// gota 的字符串元素总把 "NaN" 当作缺失值
// 字面量 "NaN" 在String列中以 EscapedNaN 保存，读出时还原
const EscapedNaN = "\x00NaN"

// EscapeNaN 写入String列前转义字面量 "NaN"
func EscapeNaN(v string) string {
	if v == "NaN" {
		return EscapedNaN
	}
	return v
}

// UnescapeNaN 还原 EscapeNaN 转义的值
func UnescapeNaN(v string) string {
	if v == EscapedNaN {
		return "NaN"
	}
	return v
}

// StringValues 将String列转为可空切片，NA 对应 nil
func StringValues(s series.Series) []*string {
	out := make([]*string, s.Len())
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() {
			continue
		}
		v := UnescapeNaN(el.String())
		out[i] = &v
	}
	return out
}

// NullableSeries 由可空切片构造指定类型的列，nil 写为 NA
func NullableSeries[T any](vals []*T, t series.Type, name string) series.Series {
	raw := make([]interface{}, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		raw[i] = *v
		if str, ok := raw[i].(string); ok && t == series.String {
			raw[i] = EscapeNaN(str)
		}
	}
	return series.New(raw, t, name)
}

// CountNA 统计列中的缺失值数量
func CountNA(s series.Series) int {
	n := 0
	for _, na := range s.IsNaN() {
		if na {
			n++
		}
	}
	return n
}

// SaveToExcel 将表格逐行写入Excel文件，nil 单元格保持为空
func SaveToExcel(rows [][]interface{}, filePath, sheetName string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("设置工作表名称失败: %w", err)
		}
	}

	for rowIdx, row := range rows {
		for colIdx, val := range row {
			if val == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return fmt.Errorf("写入单元格 %s 失败: %w", cell, err)
			}
		}
	}

	// 保存文件
	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("保存Excel文件失败: %w", err)
	}
	return nil
}
