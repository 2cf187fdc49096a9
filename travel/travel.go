// Package travel ranks cities by forecast comfort and collects hotels for the
// best ones.
package travel

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/geocode"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/parser"
	"github.com/aluiziolira/go-scrape-catalog/pipeline"
	"github.com/aluiziolira/go-scrape-catalog/scraper"
	"github.com/aluiziolira/go-scrape-catalog/weather"
)

// Output file names, written below the configured output directory.
const (
	CitiesFile           = "cities_geoloc.csv"
	WeatherFile          = "weather_data.csv"
	TopCitiesFile        = "top_cities.csv"
	HotelsFile           = "hotels.csv"
	HotelsWithCoordsFile = "hotels_with_coords.csv"
)

// ErrNoWeatherData is returned when no city could be scored.
var ErrNoWeatherData = errors.New("travel: no weather data for any city")

// WeatherAPI geocodes cities and fetches daily forecasts.
type WeatherAPI interface {
	Geocode(ctx context.Context, city string) (lat, lon float64, err error)
	Forecast(ctx context.Context, lat, lon float64) ([]weather.Daily, error)
}

// PlaceGeocoder resolves free-text place queries.
type PlaceGeocoder interface {
	Search(ctx context.Context, query string) (geocode.Coordinates, error)
}

// PageFetcher fetches HTML pages.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL, kind string) (*scraper.Page, error)
}

// Result is everything the pipeline produced.
type Result struct {
	Cities []models.CityLocation
	Scored []models.CityWeather
	Top    []models.CityWeather
	Hotels []models.Hotel
	Files  []string
}

// Runner executes the travel pipeline.
type Runner struct {
	cfg     *config.TravelConfig
	weather WeatherAPI
	places  PlaceGeocoder
	pages   PageFetcher
}

// New wires a runner from its collaborators.
func New(cfg *config.TravelConfig, w WeatherAPI, places PlaceGeocoder, pages PageFetcher) *Runner {
	return &Runner{cfg: cfg, weather: w, places: places, pages: pages}
}

// NewFromConfig builds the OpenWeather, Nominatim and Booking clients from cfg.
// metrics may be nil.
func NewFromConfig(cfg *config.TravelConfig, metrics *scraper.Metrics) (*Runner, error) {
	places, err := geocode.NewClient(geocode.Options{
		BaseURL:   cfg.NominatimURL,
		UserAgent: cfg.UserAgent,
		Delay:     cfg.NominatimDelay,
		Timeout:   cfg.Timeout,
		CacheSize: cfg.GeocodeCacheSize,
	})
	if err != nil {
		return nil, err
	}

	pages, err := scraper.NewFetcher(scraper.FetcherOptions{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		Delay:     cfg.BookingDelay,
		Headers:   browserHeaders(),
	}, metrics)
	if err != nil {
		return nil, err
	}

	w := weather.NewClient(weather.Options{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.OpenWeatherURL,
		GeocodeDelay:  cfg.GeocodeDelay,
		ForecastDelay: cfg.ForecastDelay,
		Timeout:       cfg.Timeout,
	})
	return New(cfg, w, places, pages), nil
}

func browserHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	return h
}

// Run geocodes and scores every city, keeps the best ones and collects their
// hotels. Each stage writes its CSV before the next one starts.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	slog.Info("geocoding cities", slog.Int("count", len(r.cfg.Cities)))
	res.Cities = r.locateCities(ctx)
	if err := r.write(res, CitiesFile, []string{"city", "lat", "lon"}, cityRows(res.Cities)); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	slog.Info("scoring forecasts")
	res.Scored = r.scoreCities(ctx, res.Cities)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(res.Scored) == 0 {
		return res, ErrNoWeatherData
	}
	if err := r.write(res, WeatherFile, weatherHeader, weatherRows(res.Scored)); err != nil {
		return res, err
	}

	res.Top = Rank(res.Scored, r.cfg.TopN)
	if err := r.write(res, TopCitiesFile, weatherHeader, weatherRows(res.Top)); err != nil {
		return res, err
	}
	for i, city := range res.Top {
		slog.Info("top city",
			slog.Int("rank", i+1),
			slog.String("city", city.City),
			slog.Float64("score", city.Score),
		)
	}

	slog.Info("scraping hotels", slog.Int("cities", len(res.Top)))
	res.Hotels = r.collectHotels(ctx, res.Top)
	if len(res.Hotels) == 0 {
		slog.Warn("no hotels collected")
	}
	if err := r.write(res, HotelsFile, []string{"city", "hotel_name", "rating"}, hotelRows(res.Hotels, false)); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	slog.Info("geocoding hotels", slog.Int("count", len(res.Hotels)))
	r.locateHotels(ctx, res.Hotels)
	header := []string{"city", "hotel_name", "rating", "latitude", "longitude"}
	if err := r.write(res, HotelsWithCoordsFile, header, hotelRows(res.Hotels, true)); err != nil {
		return res, err
	}
	return res, ctx.Err()
}

func (r *Runner) write(res *Result, name string, header []string, rows [][]string) error {
	path := filepath.Join(r.cfg.OutputDir, name)
	if err := pipeline.WriteTable(path, header, rows); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	res.Files = append(res.Files, path)
	slog.Info("saved travel export", slog.String("file", path), slog.Int("rows", len(rows)))
	return nil
}

func (r *Runner) locateCities(ctx context.Context) []models.CityLocation {
	out := make([]models.CityLocation, 0, len(r.cfg.Cities))
	for _, city := range r.cfg.Cities {
		loc := models.CityLocation{City: city}
		if ctx.Err() != nil {
			out = append(out, loc)
			continue
		}
		lat, lon, err := r.weather.Geocode(ctx, city)
		if err != nil {
			slog.Error("geocode city", slog.String("city", city), slog.Any("error", err))
		} else {
			loc.Lat, loc.Lon = &lat, &lon
		}
		out = append(out, loc)
	}
	return out
}

func (r *Runner) scoreCities(ctx context.Context, cities []models.CityLocation) []models.CityWeather {
	var out []models.CityWeather
	for _, city := range cities {
		if ctx.Err() != nil {
			break
		}
		if !city.Located() {
			slog.Warn("city skipped, no coordinates", slog.String("city", city.City))
			continue
		}
		daily, err := r.weather.Forecast(ctx, *city.Lat, *city.Lon)
		if err != nil {
			slog.Error("forecast", slog.String("city", city.City), slog.Any("error", err))
			continue
		}
		agg, err := weather.Score(daily)
		if err != nil {
			slog.Warn("city skipped, unusable forecast", slog.String("city", city.City), slog.Any("error", err))
			continue
		}
		out = append(out, models.CityWeather{
			City:       city.City,
			Lat:        *city.Lat,
			Lon:        *city.Lon,
			Score:      agg.Score,
			TMean:      agg.TMean,
			RainMean:   agg.RainMean,
			HumMean:    agg.HumMean,
			PopMean:    agg.PopMean,
			CloudsMean: agg.CloudsMean,
		})
	}
	return out
}

// Rank returns the n best-scored cities. Ties keep their input order.
func Rank(cities []models.CityWeather, n int) []models.CityWeather {
	ranked := slices.Clone(cities)
	slices.SortStableFunc(ranked, func(a, b models.CityWeather) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// BookingSearchURL builds the search results URL for a city.
func BookingSearchURL(baseURL, city string, rows int) string {
	return fmt.Sprintf("%s/searchresults.html?ss=%s&rows=%d&nflt=review_score%%3D0",
		strings.TrimRight(baseURL, "/"), url.QueryEscape(city+" France"), rows)
}

func (r *Runner) collectHotels(ctx context.Context, top []models.CityWeather) []models.Hotel {
	var out []models.Hotel
	for _, city := range top {
		if ctx.Err() != nil {
			break
		}
		searchURL := BookingSearchURL(r.cfg.BookingURL, city.City, r.cfg.HotelsPerCity)
		page, err := r.pages.Fetch(ctx, searchURL, scraper.KindSearch)
		if err != nil {
			slog.Error("hotel search", slog.String("city", city.City), slog.Any("error", err))
			continue
		}
		hotels := parser.ParseHotels(page.Body, city.City, r.cfg.HotelsPerCity)
		slog.Debug("hotels parsed", slog.String("city", city.City), slog.Int("count", len(hotels)))
		out = append(out, hotels...)
	}
	return out
}

func (r *Runner) locateHotels(ctx context.Context, hotels []models.Hotel) {
	for i := range hotels {
		if ctx.Err() != nil {
			return
		}
		h := &hotels[i]
		query := fmt.Sprintf("%s, %s, France", h.Name, h.City)
		coords, err := r.places.Search(ctx, query)
		if err != nil {
			slog.Error("geocode hotel", slog.String("hotel", h.Name), slog.Any("error", err))
			continue
		}
		h.Latitude, h.Longitude = &coords.Lat, &coords.Lon
	}
}

var weatherHeader = []string{"city", "lat", "lon", "score", "t_mean", "rain_mean", "hum_mean", "pop_mean", "clouds_mean"}

func cityRows(cities []models.CityLocation) [][]string {
	rows := make([][]string, 0, len(cities))
	for _, c := range cities {
		rows = append(rows, []string{c.City, formatOptional(c.Lat), formatOptional(c.Lon)})
	}
	return rows
}

func weatherRows(cities []models.CityWeather) [][]string {
	rows := make([][]string, 0, len(cities))
	for _, c := range cities {
		rows = append(rows, []string{
			c.City,
			formatFloat(c.Lat),
			formatFloat(c.Lon),
			formatFloat(c.Score),
			formatFloat(c.TMean),
			formatFloat(c.RainMean),
			formatFloat(c.HumMean),
			formatFloat(c.PopMean),
			formatFloat(c.CloudsMean),
		})
	}
	return rows
}

func hotelRows(hotels []models.Hotel, withCoords bool) [][]string {
	rows := make([][]string, 0, len(hotels))
	for _, h := range hotels {
		row := []string{h.City, h.Name, formatOptional(h.Rating)}
		if withCoords {
			row = append(row, formatOptional(h.Latitude), formatOptional(h.Longitude))
		}
		rows = append(rows, row)
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
