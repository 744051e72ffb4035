package processor

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirQualityCleaner/src/utils"
)

// DateLayout 输出时间格式(毫秒精度)
const DateLayout = "2006-01-02T15:04:05.000"

// UnixMilli 可表示的年份范围
const maxAbsYear = 292_000_000

// BuildTimestamp 由年月日时分构造UTC时间
// 任一分量不合法(如 4 月 31 日)时返回 false
func BuildTimestamp(year, month, day, hour, minute int) (time.Time, bool) {
	if year > maxAbsYear || year < -maxAbsYear {
		return time.Time{}, false
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), true
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FormatDate 将毫秒时间戳格式化为输出字符串
func FormatDate(ms int) string {
	return time.UnixMilli(int64(ms)).UTC().Format(DateLayout)
}

// TimestampStage 合成 date 列(毫秒时间戳)，无法合成的行为 NA
type TimestampStage struct{}

func (TimestampStage) Name() string { return "timestamp" }

func (TimestampStage) Apply(df dataframe.DataFrame, rep *Report) (dataframe.DataFrame, error) {
	parts := make(map[string][]*int, 5)
	for _, name := range []string{ColYear, ColMonth, ColDay, ColHour, ColMinute} {
		col := df.Col(name)
		if col.Err != nil {
			return df, fmt.Errorf("%s 列不存在: %w", name, col.Err)
		}
		if col.Type() != series.Int {
			return df, fmt.Errorf("%s 列类型为 %s, 期望 int", name, col.Type())
		}
		parts[name] = utils.IntValues(col)
	}

	dates := make([]*int, df.Nrow())
	for i := range dates {
		y, m, d := parts[ColYear][i], parts[ColMonth][i], parts[ColDay][i]
		h, mi := parts[ColHour][i], parts[ColMinute][i]
		if y == nil || m == nil || d == nil || h == nil || mi == nil {
			rep.DateMissing++
			continue
		}
		t, ok := BuildTimestamp(*y, *m, *d, *h, *mi)
		if !ok {
			rep.DateMissing++
			continue
		}
		ms := int(t.UnixMilli())
		dates[i] = &ms
	}

	out := df.Mutate(utils.NullableSeries(dates, series.Int, ColDate))
	return out, out.Err
}
