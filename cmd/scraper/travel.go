package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/scraper"
	"github.com/aluiziolira/go-scrape-catalog/travel"
)

func newTravelCmd() *cobra.Command {
	var (
		configPath  string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "travel",
		Short: "Rank cities by 7-day forecast and collect hotels for the best ones",
		Long: `Geocode a list of cities, score their 7-day forecast, keep the best ones
and scrape hotel listings for them.

Requires an OpenWeather API key in OPENWEATHER_API_KEY.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTravel(cmd, configPath, metricsAddr)
		},
	}

	def := config.DefaultTravelConfig()
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Optional YAML config file")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	flags.StringSlice("cities", def.Cities, "Cities to score")
	flags.Int("top", def.TopN, "Number of cities to keep")
	flags.Int("hotels-per-city", def.HotelsPerCity, "Hotels to collect per city")
	flags.String("outdir", def.OutputDir, "Output directory for the CSV files")
	flags.String("openweather-url", def.OpenWeatherURL, "OpenWeather API root")
	flags.String("nominatim-url", def.NominatimURL, "Nominatim API root")
	flags.String("booking-url", def.BookingURL, "Hotel search site root")
	flags.Duration("geocode-delay", def.GeocodeDelay, "Minimum spacing of geocoding calls")
	flags.Duration("forecast-delay", def.ForecastDelay, "Minimum spacing of forecast calls")
	flags.Duration("nominatim-delay", def.NominatimDelay, "Minimum spacing of Nominatim calls")
	flags.Duration("booking-delay", def.BookingDelay, "Minimum spacing of hotel searches")
	flags.Int("geocode-cache-size", def.GeocodeCacheSize, "Cached hotel geocoding answers")
	flags.Duration("timeout", def.Timeout, "Per-request timeout")
	flags.String("user-agent", def.UserAgent, "User-Agent header")
	flags.BoolP("verbose", "v", def.Verbose, "Enable verbose logging")
	return cmd
}

func runTravel(cmd *cobra.Command, configPath, metricsAddr string) error {
	cfg, err := config.LoadTravel(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	setupLogging(cfg.Verbose)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	metrics := scraper.NewMetrics()
	runner, err := travel.NewFromConfig(cfg, metrics)
	if err != nil {
		return fmt.Errorf("initialising travel pipeline: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopMetrics := serveMetrics(metricsAddr, metrics.Registry)
	defer stopMetrics()

	slog.Info("starting travel pipeline",
		slog.Int("cities", len(cfg.Cities)),
		slog.Int("top", cfg.TopN),
		slog.String("outdir", cfg.OutputDir),
	)

	res, err := runner.Run(ctx)
	if res != nil {
		printTravelSummary(res)
	}
	if err != nil {
		return fmt.Errorf("travel pipeline failed: %w", err)
	}
	return nil
}

func printTravelSummary(res *travel.Result) {
	separator := "--------------------------------------------------"
	located := 0
	for _, c := range res.Cities {
		if c.Located() {
			located++
		}
	}

	fmt.Println("\n" + separator)
	fmt.Println("Travel pipeline complete")
	fmt.Printf("  Cities located: %d/%d\n", located, len(res.Cities))
	fmt.Printf("  Cities scored:  %d\n", len(res.Scored))
	for i, c := range res.Top {
		fmt.Printf("  #%d %-20s score %.2f  (%.1f°C)\n", i+1, c.City, c.Score, c.TMean)
	}
	fmt.Printf("  Hotels:         %d\n", len(res.Hotels))
	for _, f := range res.Files {
		fmt.Printf("  Wrote %s\n", f)
	}
	fmt.Println(separator)
}
