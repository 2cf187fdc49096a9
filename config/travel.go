package config

import (
	"fmt"
	"time"
)

// DefaultCities is the fixed city list scored by the travel pipeline.
var DefaultCities = []string{
	"Paris", "Marseille", "Lyon", "Toulouse", "Nice", "Nantes", "Strasbourg", "Montpellier", "Bordeaux", "Lille",
	"Rennes", "Reims", "Le Havre", "Saint-Étienne", "Toulon", "Angers", "Grenoble", "Dijon", "Nîmes", "Aix-en-Provence",
	"Brest", "Le Mans", "Amiens", "Tours", "Villeurbanne", "Clermont-Ferrand", "Limoges", "Perpignan", "Metz", "Besancon",
	"Orleans", "Mulhouse", "Rouen", "Caen", "Nancy",
}

// TravelConfig holds configuration for the weather and hotel pipeline.
type TravelConfig struct {
	APIKey        string
	Cities        []string
	TopN          int
	HotelsPerCity int
	OutputDir     string

	OpenWeatherURL string
	NominatimURL   string
	BookingURL     string

	GeocodeDelay   time.Duration
	ForecastDelay  time.Duration
	NominatimDelay time.Duration
	BookingDelay   time.Duration

	GeocodeCacheSize int
	Timeout          time.Duration
	UserAgent        string
	Verbose          bool
}

// DefaultTravelConfig returns the pacing used against the public endpoints.
func DefaultTravelConfig() *TravelConfig {
	cities := make([]string, len(DefaultCities))
	copy(cities, DefaultCities)

	return &TravelConfig{
		Cities:           cities,
		TopN:             5,
		HotelsPerCity:    5,
		OutputDir:        "outputs/travel",
		OpenWeatherURL:   "https://api.openweathermap.org",
		NominatimURL:     "https://nominatim.openstreetmap.org",
		BookingURL:       "https://www.booking.com",
		GeocodeDelay:     100 * time.Millisecond,
		ForecastDelay:    200 * time.Millisecond,
		NominatimDelay:   1100 * time.Millisecond,
		BookingDelay:     2 * time.Second,
		GeocodeCacheSize: 256,
		Timeout:          10 * time.Second,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	}
}

// Validate ensures all configuration values are coherent.
func (c *TravelConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("openweather API key is required (set OPENWEATHER_API_KEY)")
	}
	if len(c.Cities) == 0 {
		return fmt.Errorf("city list cannot be empty")
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top must be positive")
	}
	if c.HotelsPerCity <= 0 {
		return fmt.Errorf("hotels per city must be positive")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	for name, raw := range map[string]string{
		"openweather URL": c.OpenWeatherURL,
		"nominatim URL":   c.NominatimURL,
		"booking URL":     c.BookingURL,
	} {
		if err := validateURL(name, raw); err != nil {
			return err
		}
	}
	if c.GeocodeDelay < 0 || c.ForecastDelay < 0 || c.NominatimDelay < 0 || c.BookingDelay < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	if c.GeocodeCacheSize <= 0 {
		return fmt.Errorf("geocode cache size must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}
