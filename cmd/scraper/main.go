package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/scraper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "scraper",
		Short:         "Crawl a paginated catalog into per-category CSV files and images",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, configPath)
		},
	}

	def := config.DefaultConfig()
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Optional YAML config file")
	flags.String("categorie", def.Category, "Only crawl this category (case-insensitive)")
	flags.Int("max-pages", def.MaxPages, "Maximum listing pages per category (0 = unlimited)")
	flags.Float64("delay", def.Delay.Seconds(), "Delay between requests (seconds)")
	flags.String("outdir", def.OutputDir, "Output root for CSV files and images")
	flags.String("format", def.OutputFormat, "Output format: csv, json, or dual")
	flags.String("base-url", def.BaseURL, "Catalog root URL")
	flags.Duration("timeout", def.Timeout, "Per-request timeout")
	flags.String("user-agent", def.UserAgent, "User-Agent header")
	flags.Bool("continue-on-error", def.ContinueOnError, "Move on to the next category after a fetch failure")
	flags.String("metrics-addr", def.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.BoolP("verbose", "v", def.Verbose, "Enable verbose logging")

	cmd.AddCommand(newTravelCmd())
	return cmd
}

func runCrawl(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	setupLogging(cfg.Verbose)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("starting scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.String("category", cfg.Category),
		slog.Int("max_pages", cfg.MaxPages),
		slog.Duration("delay", cfg.Delay),
		slog.String("outdir", cfg.OutputDir),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopMetrics := serveMetrics(cfg.MetricsAddr, s.Metrics.Registry)
	defer stopMetrics()

	result, runErr := s.Run(ctx)
	if result != nil {
		printSummary(result, cfg.OutputDir)
	}
	if runErr != nil {
		return fmt.Errorf("scraping failed: %w", runErr)
	}
	return nil
}

func setupLogging(verbose bool) {
	logger, level := newLogger(verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())
}

// serveMetrics exposes registry on addr until the returned func is called. An
// empty addr disables the endpoint.
func serveMetrics(addr string, registry *prometheus.Registry) func() {
	if addr == "" || registry == nil {
		return func() {}
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func printSummary(result *models.CrawlResult, outDir string) {
	separator := "--------------------------------------------------"
	duration := result.EndTime.Sub(result.StartTime)

	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	for _, c := range result.Categories {
		status := "ok"
		if c.Err != nil {
			status = "failed"
		}
		fmt.Printf("  %-24s %4d records  %3d pages  %s\n", c.Name, c.Records, c.Pages, status)
	}

	fmt.Printf("  Total items:   %d\n", result.TotalCount)
	fmt.Printf("  Images:        %d saved, %d skipped\n", result.ImagesSaved, result.ImagesSkipped)
	successRate := 0.0
	if result.RequestCount > 0 {
		successRate = float64(result.RequestCount-result.ErrorCount) / float64(result.RequestCount) * 100
	}
	fmt.Printf("  Requests:      %d\n", result.RequestCount)
	fmt.Printf("  Success rate:  %.2f%%\n", successRate)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	fmt.Printf("  Failed URLs:   %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	if secs := duration.Seconds(); secs > 0 {
		fmt.Printf("  Items/sec:     %.2f\n", float64(result.TotalCount)/secs)
	}
	fmt.Printf("  Output dir:    %s\n", outDir)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
