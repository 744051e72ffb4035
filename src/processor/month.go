package processor

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirQualityCleaner/src/utils"
)

// monthTokens 区分大小写的月份写法
var monthTokens = map[string]int{
	"Jan": 1, "January": 1, "01": 1, "1": 1,
	"Feb": 2, "February": 2, "02": 2, "2": 2,
	"Mar": 3, "March": 3, "03": 3, "3": 3,
	"Apr": 4, "April": 4, "04": 4, "4": 4,
	"May": 5, "05": 5, "5": 5,
	"Jun": 6, "June": 6, "06": 6, "6": 6,
	"Jul": 7, "July": 7, "07": 7, "7": 7,
	"Aug": 8, "August": 8, "08": 8, "8": 8,
	"Sep": 9, "September": 9, "09": 9, "9": 9,
	"Oct": 10, "October": 10, "10": 10,
	"Nov": 11, "November": 11, "11": 11,
	"Dec": 12, "December": 12, "12": 12,
}

// NormalizeMonth 将月份写法转换为 1..12，无法识别时返回 false
func NormalizeMonth(token string) (int, bool) {
	m, ok := monthTokens[token]
	return m, ok
}

// NormalizeMonthColumn 逐元素转换月份列，返回同长度的Int列
// 缺失值和无法识别的写法均为 NA
func NormalizeMonthColumn(s series.Series) series.Series {
	raw := make([]interface{}, s.Len())
	for i := 0; i < s.Len(); i++ {
		el := s.Elem(i)
		if el.IsNA() {
			continue
		}
		if m, ok := NormalizeMonth(el.String()); ok {
			raw[i] = m
		}
	}
	return series.New(raw, series.Int, s.Name)
}

// MonthStage 月份标准化
type MonthStage struct{}

func (MonthStage) Name() string { return "month" }

func (MonthStage) Apply(df dataframe.DataFrame, rep *Report) (dataframe.DataFrame, error) {
	col := df.Col(ColMonth)
	if col.Err != nil {
		return df, fmt.Errorf("month 列不存在: %w", col.Err)
	}
	if col.Type() != series.String {
		return df, fmt.Errorf("month 列类型为 %s, 期望 string", col.Type())
	}

	normalized := NormalizeMonthColumn(col)
	for i := 0; i < col.Len(); i++ {
		if col.Elem(i).IsNA() || !normalized.Elem(i).IsNA() {
			continue
		}
		rep.addUnknownMonth(utils.UnescapeNaN(col.Elem(i).String()))
	}

	out := df.Mutate(normalized)
	return out, out.Err
}
