// Package weather talks to the OpenWeather geocoding and One Call APIs and
// turns a 7-day forecast into a comfort score.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ForecastDays is the number of daily entries kept from a forecast.
const ForecastDays = 7

var (
	// ErrNotFound is returned when geocoding yields no location.
	ErrNotFound = errors.New("weather: location not found")
	// ErrNoDailyData is returned when a forecast carries no daily entries.
	ErrNoDailyData = errors.New("weather: no daily forecast")
	// ErrNoTemperature is returned when no daily entry carries a temperature.
	ErrNoTemperature = errors.New("weather: no temperature in forecast")
	// ErrAPIFailure wraps non-2xx responses.
	ErrAPIFailure = errors.New("weather: api request failed")
)

// Options configures a Client.
type Options struct {
	APIKey  string
	BaseURL string
	// Country is appended to geocoding queries; defaults to FR.
	Country       string
	GeocodeDelay  time.Duration
	ForecastDelay time.Duration
	Timeout       time.Duration
}

// Client handles communication with the OpenWeather API.
type Client struct {
	httpClient      *http.Client
	apiKey          string
	baseURL         string
	country         string
	geocodeLimiter  *rate.Limiter
	forecastLimiter *rate.Limiter
}

// NewClient creates a new OpenWeather client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	country := opts.Country
	if country == "" {
		country = "FR"
	}

	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		apiKey:          opts.APIKey,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		country:         country,
		geocodeLimiter:  newLimiter(opts.GeocodeDelay),
		forecastLimiter: newLimiter(opts.ForecastDelay),
	}
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

type geoResult struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Geocode resolves a city name to coordinates.
func (c *Client) Geocode(ctx context.Context, city string) (lat, lon float64, err error) {
	params := url.Values{}
	params.Set("q", city+","+c.country)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	var results []geoResult
	if err := c.getJSON(ctx, c.geocodeLimiter, "/geo/1.0/direct", params, &results); err != nil {
		return 0, 0, fmt.Errorf("geocode %q: %w", city, err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("geocode %q: %w", city, ErrNotFound)
	}
	return results[0].Lat, results[0].Lon, nil
}

type forecastResponse struct {
	Daily []Daily `json:"daily"`
}

// Forecast returns at most ForecastDays daily entries for the coordinates.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) ([]Daily, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("exclude", "minutely,hourly,current,alerts")
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	var resp forecastResponse
	if err := c.getJSON(ctx, c.forecastLimiter, "/data/2.5/onecall", params, &resp); err != nil {
		return nil, fmt.Errorf("forecast %.4f,%.4f: %w", lat, lon, err)
	}
	if len(resp.Daily) > ForecastDays {
		resp.Daily = resp.Daily[:ForecastDays]
	}
	return resp.Daily, nil
}

func (c *Client) getJSON(ctx context.Context, limiter *rate.Limiter, path string, params url.Values, out any) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrAPIFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
