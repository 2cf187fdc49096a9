package weather

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func days(n int, d Daily) []Daily {
	out := make([]Daily, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func TestDailyTempUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want *float64
	}{
		{name: "object", json: `{"temp":{"day":21.5,"min":12}}`, want: ptr(21.5)},
		{name: "number", json: `{"temp":18}`, want: ptr(18)},
		{name: "null", json: `{"temp":null}`, want: nil},
		{name: "absent", json: `{}`, want: nil},
		{name: "object without day", json: `{"temp":{"min":3}}`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Daily
			require.NoError(t, json.Unmarshal([]byte(tt.json), &d))
			assert.Equal(t, tt.want, d.Temp.Day)
		})
	}
}

func TestScore_IdealWeek(t *testing.T) {
	agg, err := Score(days(7, Daily{
		Temp:     DailyTemp{Day: ptr(22)},
		Humidity: ptr(50),
	}))

	require.NoError(t, err)
	assert.Equal(t, 10.0, agg.Score)
	assert.Equal(t, 22.0, agg.TMean)
	assert.Equal(t, 0.0, agg.RainMean)
	assert.Equal(t, 50.0, agg.HumMean)
}

func TestScore_WeightedComponents(t *testing.T) {
	agg, err := Score(days(7, Daily{
		Temp:     DailyTemp{Day: ptr(12)},
		Rain:     ptr(1),
		Humidity: ptr(75),
		Pop:      ptr(0.5),
		Clouds:   ptr(50),
	}))

	// temp 4, rain 8, humidity 8, pop 6, clouds 7
	require.NoError(t, err)
	assert.InDelta(t, 6.2, agg.Score, 1e-9)
	assert.Equal(t, 12.0, agg.TMean)
	assert.Equal(t, 1.0, agg.RainMean)
	assert.Equal(t, 75.0, agg.HumMean)
	assert.Equal(t, 0.5, agg.PopMean)
	assert.Equal(t, 50.0, agg.CloudsMean)
}

func TestScore_DefaultsForMissingValues(t *testing.T) {
	agg, err := Score([]Daily{
		{Temp: DailyTemp{Day: ptr(20)}},
		{Temp: DailyTemp{Day: ptr(24)}},
		{},
	})

	require.NoError(t, err)
	assert.Equal(t, 22.0, agg.TMean)
	assert.Equal(t, 50.0, agg.HumMean)
	assert.Equal(t, 0.0, agg.PopMean)
	assert.Equal(t, 10.0, agg.Score)
}

func TestScore_ClampsAtZero(t *testing.T) {
	agg, err := Score(days(3, Daily{
		Temp:     DailyTemp{Day: ptr(-30)},
		Rain:     ptr(40),
		Humidity: ptr(100),
		Pop:      ptr(1),
		Clouds:   ptr(100),
	}))

	require.NoError(t, err)
	assert.GreaterOrEqual(t, agg.Score, 0.0)
	assert.LessOrEqual(t, agg.Score, 10.0)
}

func TestScore_UsesFirstSevenDays(t *testing.T) {
	week := days(7, Daily{Temp: DailyTemp{Day: ptr(22)}, Humidity: ptr(50)})
	week = append(week, Daily{Temp: DailyTemp{Day: ptr(-40)}, Rain: ptr(100)})

	agg, err := Score(week)

	require.NoError(t, err)
	assert.Equal(t, 10.0, agg.Score)
}

func TestScore_Errors(t *testing.T) {
	_, err := Score(nil)
	assert.ErrorIs(t, err, ErrNoDailyData)

	_, err = Score(days(7, Daily{Humidity: ptr(60)}))
	assert.ErrorIs(t, err, ErrNoTemperature)
}

func TestScore_Rounding(t *testing.T) {
	agg, err := Score([]Daily{
		{Temp: DailyTemp{Day: ptr(21.04)}, Rain: ptr(0.333), Humidity: ptr(61.26)},
		{Temp: DailyTemp{Day: ptr(21.04)}, Rain: ptr(0.333), Humidity: ptr(61.26)},
	})

	require.NoError(t, err)
	assert.Equal(t, 21.0, agg.TMean)
	assert.Equal(t, 0.33, agg.RainMean)
	assert.Equal(t, 61.3, agg.HumMean)
}
