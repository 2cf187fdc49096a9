package weather

import (
	"bytes"
	"encoding/json"
	"math"
)

// Daily is one day of a One Call forecast. Missing values stay nil.
type Daily struct {
	Temp     DailyTemp `json:"temp"`
	Rain     *float64  `json:"rain"`
	Humidity *float64  `json:"humidity"`
	Pop      *float64  `json:"pop"`
	Clouds   *float64  `json:"clouds"`
}

// DailyTemp accepts either {"day": 21.3, ...} or a bare number.
type DailyTemp struct {
	Day *float64
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *DailyTemp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Day *float64 `json:"day"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		t.Day = obj.Day
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t.Day = &v
	return nil
}

// Aggregate holds the forecast means and the resulting score, rounded.
type Aggregate struct {
	Score      float64
	TMean      float64
	RainMean   float64
	HumMean    float64
	PopMean    float64
	CloudsMean float64
}

// Defaults used for absent daily values.
const (
	defaultRain     = 0
	defaultHumidity = 50
	defaultPop      = 0
	defaultClouds   = 0

	idealTemp = 22
)

// Score aggregates up to ForecastDays entries into a 0..10 comfort score.
// Temperature is averaged over the days that carry one; the other means use
// per-field defaults for missing values.
func Score(daily []Daily) (Aggregate, error) {
	if len(daily) > ForecastDays {
		daily = daily[:ForecastDays]
	}
	if len(daily) == 0 {
		return Aggregate{}, ErrNoDailyData
	}

	var tSum float64
	var tCount int
	var rain, hum, pop, clouds float64
	for _, d := range daily {
		if d.Temp.Day != nil {
			tSum += *d.Temp.Day
			tCount++
		}
		rain += valueOr(d.Rain, defaultRain)
		hum += valueOr(d.Humidity, defaultHumidity)
		pop += valueOr(d.Pop, defaultPop)
		clouds += valueOr(d.Clouds, defaultClouds)
	}
	if tCount == 0 {
		return Aggregate{}, ErrNoTemperature
	}

	n := float64(len(daily))
	tMean := tSum / float64(tCount)
	rainMean := rain / n
	humMean := hum / n
	popMean := pop / n
	cloudsMean := clouds / n

	tempScore := math.Max(0, 10-math.Abs(tMean-idealTemp)*0.6)
	rainScore := math.Max(0, 10-rainMean*2)
	humScore := math.Max(0, 10-(humMean-50)*0.08)
	popScore := math.Max(0, 10-popMean*8)
	cloudScore := math.Max(0, 10-cloudsMean*0.06)

	score := 0.35*tempScore + 0.25*rainScore + 0.15*humScore + 0.15*popScore + 0.10*cloudScore
	score = math.Max(0, math.Min(10, score))

	return Aggregate{
		Score:      round(score, 2),
		TMean:      round(tMean, 1),
		RainMean:   round(rainMean, 2),
		HumMean:    round(humMean, 1),
		PopMean:    round(popMean, 2),
		CloudsMean: round(cloudsMean, 1),
	}, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
