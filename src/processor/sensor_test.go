package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AirQualityCleaner/src/utils"
)

func TestSplitSensorCode(t *testing.T) {
	tests := []struct {
		id        string
		airport   string
		airportOK bool
		number    string
		numberOK  bool
	}{
		{"ABC001", "ABC", true, "001", true},
		{"ABC0012X", "ABC", true, "001", true},
		{"ABC01", "ABC", true, "", false},
		{"AB", "", false, "", false},
		{"", "", false, "", false},
		{"ÄÖÜ123", "ÄÖÜ", true, "123", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			a, aok, n, nok := SplitSensorCode(tt.id)
			assert.Equal(t, tt.airport, a)
			assert.Equal(t, tt.airportOK, aok)
			assert.Equal(t, tt.number, n)
			assert.Equal(t, tt.numberOK, nok)
		})
	}
}

func TestSplitSensorCode_PrefixOfID(t *testing.T) {
	for _, id := range []string{"JFK042", "LAX999", "SFO100X", "ORD777777"} {
		a, aok, n, nok := SplitSensorCode(id)
		assert.True(t, aok && nok, id)
		assert.Equal(t, []rune(id)[:6], []rune(a+n), id)
	}
}

func TestSensorCodeStage(t *testing.T) {
	df := loadRaw(t,
		"Jan,5,2023,10,30,1,45,2.1,70,ABC001",
		"Jan,5,2023,10,30,1,45,2.1,70,AB",
		"Jan,5,2023,10,30,1,45,2.1,70,ABC01",
		"Jan,5,2023,10,30,1,45,2.1,70,NA",
	)

	out, rep := applyStages(t, df, SensorCodeStage{})

	assert.Equal(t, 4, out.Nrow())
	assert.Equal(t, []string{"ABC", "NA", "ABC", "NA"}, column(out, ColAirport))
	assert.Equal(t, []string{"001", "NA", "NA", "NA"}, column(out, ColSensorNumber))
	assert.Equal(t, 2, rep.SensorCodeShort)
	// sensor_id 原样保留
	assert.Equal(t, []string{"ABC001", "AB", "ABC01", "NA"}, column(out, ColSensorID))
}

func TestSensorCodeStage_NaNLiteralID(t *testing.T) {
	df := loadRaw(t, "Jan,5,2023,10,30,1,45,2.1,70,NaN")

	out, rep := applyStages(t, df, SensorCodeStage{})

	airport := utils.StringValues(out.Col(ColAirport))
	require.NotNil(t, airport[0])
	assert.Equal(t, "NaN", *airport[0])
	assert.True(t, out.Col(ColSensorNumber).Elem(0).IsNA())
	assert.Equal(t, 1, rep.SensorCodeShort)
}
