package processor

import (
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AirQualityCleaner/src/utils"
)

func ptr[T any](v T) *T { return &v }

func deref(vals []*int) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

func TestBackwardThenForwardFill(t *testing.T) {
	tests := []struct {
		name     string
		in       []*int
		want     []interface{}
		backward int
		forward  int
	}{
		{"leading gap", []*int{nil, nil, ptr(3), ptr(4)}, []interface{}{3, 3, 3, 4}, 2, 0},
		{"trailing gap", []*int{ptr(1), ptr(2), nil}, []interface{}{1, 2, 2}, 0, 1},
		{"inner gap takes later value", []*int{ptr(1), nil, ptr(5)}, []interface{}{1, 5, 5}, 1, 0},
		{"all missing", []*int{nil, nil}, []interface{}{nil, nil}, 0, 0},
		{"complete", []*int{ptr(7), ptr(8)}, []interface{}{7, 8}, 0, 0},
		{"empty", []*int{}, []interface{}{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]int, len(tt.in))
			for i := range rows {
				rows[i] = i
			}
			b := BackwardFill(tt.in, rows)
			f := ForwardFill(tt.in, rows)
			assert.Equal(t, tt.want, deref(tt.in))
			assert.Equal(t, tt.backward, b)
			assert.Equal(t, tt.forward, f)
		})
	}
}

func TestFillStaysInsidePartition(t *testing.T) {
	vals := []*int{ptr(1), nil, nil, ptr(9)}
	parts := []Partition{
		{SensorID: "A", Rows: []int{0, 1}},
		{SensorID: "B", Rows: []int{2, 3}},
	}

	fc := fillPartitions(vals, parts)

	assert.Equal(t, []interface{}{1, 1, 9, 9}, deref(vals))
	assert.Equal(t, FillCount{Backward: 1, Forward: 1, Unfilled: 0}, fc)
}

func TestDateOrder_MissingLastAndStable(t *testing.T) {
	dates := []*int{ptr(30), nil, ptr(10), ptr(30), nil, ptr(20)}

	assert.Equal(t, []int{2, 5, 0, 3, 1, 4}, dateOrder(dates))
}

func TestPartitionBySensor(t *testing.T) {
	ids := series.New([]interface{}{"B", "A", nil, "B", "A", nil}, series.String, ColSensorID)

	parts := PartitionBySensor(ids)

	require.Len(t, parts, 3)
	assert.Equal(t, Partition{SensorID: "B", Rows: []int{0, 3}}, parts[0])
	assert.Equal(t, Partition{SensorID: "A", Rows: []int{1, 4}}, parts[1])
	assert.Equal(t, Partition{Missing: true, Rows: []int{2, 5}}, parts[2])
}

func TestFillStage_SensorGrouping(t *testing.T) {
	df := loadRaw(t,
		"Jan,5,2023,10,30,NA,45,2.1,70,ABC001",
		"Jan,5,2023,11,30,41,NA,NA,72,ABC001",
		"Jan,5,2023,9,30,38,40,3.0,NA,ABC001",
		"13,5,2023,9,00,50,50,1.0,60,XYZ002",
		"Jan,5,2023,8,00,NA,NA,NA,NA,XYZ002",
		"Feb,30,2023,8,00,1,2,NA,3,XYZ002",
	)

	out, rep := applyStages(t, df, MonthStage{}, TimestampStage{}, FillStage{})

	require.Equal(t, 6, out.Nrow())
	assert.Equal(t, 2, rep.Partitions)
	// XYZ002 在排序后最先出现；组内按时间，缺失时间在后
	assert.Equal(t, []string{"XYZ002", "XYZ002", "XYZ002", "ABC001", "ABC001", "ABC001"}, column(out, ColSensorID))
	assert.Equal(t, []string{"8", "9", "8", "9", "10", "11"}, column(out, ColHour))
	assert.Equal(t, []string{"50", "50", "1", "38", "41", "41"}, column(out, ColOzone))
	assert.Equal(t, []string{"50", "50", "2", "40", "45", "45"}, column(out, ColSolarR))
	assert.Equal(t, []string{"60", "60", "3", "70", "70", "72"}, column(out, ColTemp))

	wind := utils.FloatValues(out.Col(ColWind))
	want := []float32{1, 1, 1, 3, 2.1, 2.1}
	for i, w := range want {
		require.NotNil(t, wind[i], "row %d", i)
		assert.Equal(t, float64(w), *wind[i], "row %d", i)
	}

	assert.Equal(t, FillCount{Backward: 2, Forward: 0, Unfilled: 0}, rep.Fill[ColOzone])
	assert.Equal(t, FillCount{Backward: 1, Forward: 1, Unfilled: 0}, rep.Fill[ColSolarR])
	assert.Equal(t, FillCount{Backward: 1, Forward: 2, Unfilled: 0}, rep.Fill[ColWind])
	assert.Equal(t, FillCount{Backward: 2, Forward: 0, Unfilled: 0}, rep.Fill[ColTemp])
}

func TestFillStage_AllMissingColumnStaysMissing(t *testing.T) {
	df := loadRaw(t,
		"Mar,1,2023,0,0,10,10,NA,10,QQQ777",
		"Mar,1,2023,1,0,NA,11,N/A,11,QQQ777",
		"Mar,1,2023,2,0,12,NA,,NA,QQQ777",
	)

	out, rep := applyStages(t, df, MonthStage{}, TimestampStage{}, FillStage{})

	assert.Equal(t, []bool{true, true, true}, out.Col(ColWind).IsNaN())
	assert.Equal(t, FillCount{Unfilled: 3}, rep.Fill[ColWind])
	assert.Equal(t, []string{"10", "12", "12"}, column(out, ColOzone))
	assert.Equal(t, []string{"10", "11", "11"}, column(out, ColSolarR))
	assert.Equal(t, []string{"10", "11", "11"}, column(out, ColTemp))
}

func TestFillStage_MissingSensorIDFormsOneGroup(t *testing.T) {
	df := loadRaw(t,
		"Jan,1,2023,0,0,NA,1,1.5,1,NA",
		"Jan,1,2023,1,0,5,1,1.5,1,ABC001",
		"Jan,1,2023,2,0,7,1,1.5,1,",
	)

	out, rep := applyStages(t, df, MonthStage{}, TimestampStage{}, FillStage{})

	assert.Equal(t, 2, rep.Partitions)
	assert.Equal(t, []string{"NA", "NA", "ABC001"}, column(out, ColSensorID))
	// 缺失 sensor_id 的行之间互相补全，不使用 ABC001 的值
	assert.Equal(t, []string{"7", "7", "5"}, column(out, ColOzone))
}

func TestFillStage_Idempotent(t *testing.T) {
	df := loadRaw(t,
		"Jan,5,2023,10,30,NA,45,2.1,70,ABC001",
		"Jan,5,2023,11,30,41,NA,NA,72,ABC001",
		"Jan,5,2023,9,30,38,40,3.0,NA,ABC001",
		"Jan,5,2023,8,00,NA,NA,NA,NA,XYZ002",
		"NA,5,2023,9,00,50,50,NA,60,XYZ002",
	)
	once, _ := applyStages(t, df, MonthStage{}, TimestampStage{}, FillStage{})

	twice, rep := applyStages(t, once, FillStage{})

	assert.Equal(t, once.Records(), twice.Records())
	for _, name := range []string{ColOzone, ColSolarR, ColTemp} {
		assert.Equal(t, FillCount{}, rep.Fill[name], name)
	}
}

func TestFillStage_DatesNonDecreasingWithinSensor(t *testing.T) {
	df := loadRaw(t,
		"Jan,3,2023,0,0,1,1,1,1,AAA001",
		"Jan,1,2023,0,0,1,1,1,1,BBB001",
		"Jan,2,2023,0,0,1,1,1,1,AAA001",
		"Apr,31,2023,0,0,1,1,1,1,AAA001",
		"Jan,1,2023,0,0,1,1,1,1,AAA001",
		"Jan,2,2023,0,0,1,1,1,1,BBB001",
	)

	out, _ := applyStages(t, df, MonthStage{}, TimestampStage{}, FillStage{})

	ids := column(out, ColSensorID)
	dates := utils.IntValues(out.Col(ColDate))
	last := map[string]*int{}
	seenMissing := map[string]bool{}
	for i, id := range ids {
		d := dates[i]
		if d == nil {
			seenMissing[id] = true
			continue
		}
		assert.False(t, seenMissing[id], "row %d: dated row after missing date", i)
		if prev := last[id]; prev != nil {
			assert.LessOrEqual(t, *prev, *d, "row %d", i)
		}
		last[id] = d
	}
	// BBB001 的 1 月 1 日记录在原表中先出现
	assert.Equal(t, []string{"BBB001", "BBB001", "AAA001", "AAA001", "AAA001", "AAA001"}, ids)
}

func TestFillStage_EmptyFrame(t *testing.T) {
	df := loadRaw(t)

	out, rep := applyStages(t, df, MonthStage{}, TimestampStage{}, FillStage{})

	assert.Equal(t, 0, out.Nrow())
	assert.Equal(t, 0, rep.Partitions)
}
