package models

// CityLocation is a city with optional coordinates. Nil coordinates mean the
// geocoder returned nothing for the city.
type CityLocation struct {
	City string   `json:"city"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

// Located reports whether both coordinates are known.
func (c CityLocation) Located() bool {
	return c.Lat != nil && c.Lon != nil
}

// CityWeather is the 7-day weather aggregate and score for one city.
type CityWeather struct {
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Score      float64 `json:"score"`
	TMean      float64 `json:"t_mean"`
	RainMean   float64 `json:"rain_mean"`
	HumMean    float64 `json:"hum_mean"`
	PopMean    float64 `json:"pop_mean"`
	CloudsMean float64 `json:"clouds_mean"`
}

// Hotel is a hotel scraped for a shortlisted city.
type Hotel struct {
	City      string   `json:"city"`
	Name      string   `json:"hotel_name"`
	Rating    *float64 `json:"rating"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
