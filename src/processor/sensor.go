package processor

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"AirQualityCleaner/src/utils"
)

// 传感器编码: 3 位机场代码 + 3 位传感器编号
const (
	airportLen      = 3
	sensorNumberEnd = 6
)

// substr 按字符(rune)截取 [start, end)，越界时返回 false
func substr(s string, start, end int) (string, bool) {
	r := []rune(s)
	if start < 0 || end > len(r) || start > end {
		return "", false
	}
	return string(r[start:end]), true
}

// SplitSensorCode 拆分传感器编码
// 两段分别判断越界，不足 6 个字符时 sensor_number 缺失
func SplitSensorCode(id string) (airport string, airportOK bool, number string, numberOK bool) {
	airport, airportOK = substr(id, 0, airportLen)
	number, numberOK = substr(id, airportLen, sensorNumberEnd)
	return
}

// SensorCodeStage 从 sensor_id 派生 airport 和 sensor_number
type SensorCodeStage struct{}

func (SensorCodeStage) Name() string { return "sensor_code" }

func (SensorCodeStage) Apply(df dataframe.DataFrame, rep *Report) (dataframe.DataFrame, error) {
	col := df.Col(ColSensorID)
	if col.Err != nil {
		return df, fmt.Errorf("sensor_id 列不存在: %w", col.Err)
	}

	ids := utils.StringValues(col)
	airports := make([]*string, len(ids))
	numbers := make([]*string, len(ids))
	for i, id := range ids {
		if id == nil {
			continue
		}
		a, aok, n, nok := SplitSensorCode(*id)
		if aok {
			airports[i] = &a
		}
		if nok {
			numbers[i] = &n
		} else {
			rep.SensorCodeShort++
		}
	}

	out := df.Mutate(utils.NullableSeries(airports, series.String, ColAirport))
	if out.Err != nil {
		return df, out.Err
	}
	out = out.Mutate(utils.NullableSeries(numbers, series.String, ColSensorNumber))
	return out, out.Err
}
