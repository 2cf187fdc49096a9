package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment variable read by the loaders.
const EnvPrefix = "SCRAPER"

// Load reads crawler configuration.
// Priority (highest to lowest): changed flags > env vars > config file > defaults.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("base-url", def.BaseURL)
	v.SetDefault("categorie", def.Category)
	v.SetDefault("max-pages", def.MaxPages)
	v.SetDefault("delay", def.Delay.Seconds())
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("outdir", def.OutputDir)
	v.SetDefault("format", def.OutputFormat)
	v.SetDefault("user-agent", def.UserAgent)
	v.SetDefault("continue-on-error", def.ContinueOnError)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("metrics-addr", def.MetricsAddr)

	if err := prepare(v, configPath, flags); err != nil {
		return nil, err
	}

	return &Config{
		BaseURL:         v.GetString("base-url"),
		Category:        strings.TrimSpace(v.GetString("categorie")),
		MaxPages:        v.GetInt("max-pages"),
		Delay:           secondsToDuration(v.GetFloat64("delay")),
		Timeout:         v.GetDuration("timeout"),
		OutputDir:       v.GetString("outdir"),
		OutputFormat:    strings.ToLower(v.GetString("format")),
		UserAgent:       v.GetString("user-agent"),
		ContinueOnError: v.GetBool("continue-on-error"),
		Verbose:         v.GetBool("verbose"),
		MetricsAddr:     v.GetString("metrics-addr"),
	}, nil
}

// LoadTravel reads travel pipeline configuration. The API key is also read
// from the conventional OPENWEATHER_API_KEY variable.
func LoadTravel(configPath string, flags *pflag.FlagSet) (*TravelConfig, error) {
	def := DefaultTravelConfig()

	v := viper.New()
	v.SetDefault("cities", def.Cities)
	v.SetDefault("top", def.TopN)
	v.SetDefault("hotels-per-city", def.HotelsPerCity)
	v.SetDefault("outdir", def.OutputDir)
	v.SetDefault("openweather-url", def.OpenWeatherURL)
	v.SetDefault("nominatim-url", def.NominatimURL)
	v.SetDefault("booking-url", def.BookingURL)
	v.SetDefault("geocode-delay", def.GeocodeDelay)
	v.SetDefault("forecast-delay", def.ForecastDelay)
	v.SetDefault("nominatim-delay", def.NominatimDelay)
	v.SetDefault("booking-delay", def.BookingDelay)
	v.SetDefault("geocode-cache-size", def.GeocodeCacheSize)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("user-agent", def.UserAgent)
	v.SetDefault("verbose", def.Verbose)

	if err := prepare(v, configPath, flags); err != nil {
		return nil, err
	}
	if err := v.BindEnv("openweather-api-key", EnvPrefix+"_OPENWEATHER_API_KEY", "OPENWEATHER_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key env: %w", err)
	}

	return &TravelConfig{
		APIKey:           v.GetString("openweather-api-key"),
		Cities:           stringList(v.Get("cities")),
		TopN:             v.GetInt("top"),
		HotelsPerCity:    v.GetInt("hotels-per-city"),
		OutputDir:        v.GetString("outdir"),
		OpenWeatherURL:   strings.TrimSuffix(v.GetString("openweather-url"), "/"),
		NominatimURL:     strings.TrimSuffix(v.GetString("nominatim-url"), "/"),
		BookingURL:       strings.TrimSuffix(v.GetString("booking-url"), "/"),
		GeocodeDelay:     v.GetDuration("geocode-delay"),
		ForecastDelay:    v.GetDuration("forecast-delay"),
		NominatimDelay:   v.GetDuration("nominatim-delay"),
		BookingDelay:     v.GetDuration("booking-delay"),
		GeocodeCacheSize: v.GetInt("geocode-cache-size"),
		Timeout:          v.GetDuration("timeout"),
		UserAgent:        v.GetString("user-agent"),
		Verbose:          v.GetBool("verbose"),
	}, nil
}

func prepare(v *viper.Viper, configPath string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if configPath == "" {
		return nil
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// stringList accepts the shapes viper hands back for list keys: a slice from
// defaults, flags or YAML, or a comma-separated string from the environment.
func stringList(raw any) []string {
	var items []string
	switch value := raw.(type) {
	case []string:
		items = value
	case []any:
		for _, item := range value {
			items = append(items, fmt.Sprint(item))
		}
	case string:
		items = strings.Split(value, ",")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
