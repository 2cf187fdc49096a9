package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-catalog/config"
	"github.com/aluiziolira/go-scrape-catalog/models"
	"github.com/aluiziolira/go-scrape-catalog/parser"
	"github.com/aluiziolira/go-scrape-catalog/pipeline"
)

// Scraper crawls every category of the catalog, one request at a time.
type Scraper struct {
	cfg      *config.Config
	fetcher  *Fetcher
	images   *ImageRetriever
	exporter *pipeline.Exporter
	diag     parser.Diagnostics
	Metrics  *Metrics

	pageCount     int
	imagesSaved   int
	imagesSkipped int
}

// crawlState is the traversal position inside one category. An empty next
// URL ends the traversal.
type crawlState struct {
	next    string
	records []*models.ProductRecord
	pages   int
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	metrics := NewMetrics()
	fetcher, err := NewFetcher(FetcherOptions{
		AllowedDomains: []string{parsed.Hostname()},
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.Timeout,
		Delay:          cfg.Delay,
	}, metrics)
	if err != nil {
		return nil, err
	}

	s := &Scraper{
		cfg:      cfg,
		fetcher:  fetcher,
		images:   NewImageRetriever(fetcher, filepath.Join(cfg.OutputDir, pipeline.ImageDir), metrics),
		exporter: pipeline.NewExporter(cfg.OutputDir, cfg.OutputFormat),
		Metrics:  metrics,
	}
	s.diag = parser.DiagnosticsFunc(s.fieldDefaulted)
	return s, nil
}

// WithTransport replaces the HTTP transport, mainly for tests.
func (s *Scraper) WithTransport(rt http.RoundTripper) {
	s.fetcher.WithTransport(rt)
}

// SetDiagnostics replaces the hook notified about defaulted product fields.
func (s *Scraper) SetDiagnostics(diag parser.Diagnostics) {
	if diag == nil {
		s.diag = parser.DiagnosticsFunc(s.fieldDefaulted)
		return
	}
	s.diag = diag
}

func (s *Scraper) fieldDefaulted(pageURL, field string) {
	s.Metrics.IncFieldDefault(field)
	slog.Debug("field defaulted",
		slog.String("url", pageURL),
		slog.String("field", field),
	)
}

// Run discovers the categories and crawls the selected ones in order. The
// returned result is populated even when an error aborts the run.
func (s *Scraper) Run(ctx context.Context) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result := &models.CrawlResult{StartTime: time.Now()}
	defer s.summarize(result)

	root, err := s.fetcher.Fetch(ctx, s.cfg.BaseURL, KindRoot)
	if err != nil {
		return result, fmt.Errorf("fetch category index: %w", err)
	}

	categories := parser.ParseCategories(root.Body, root.URL)
	if len(categories) == 0 {
		slog.Warn("no categories discovered", slog.String("url", root.URL))
		return result, nil
	}
	slog.Info("categories discovered", slog.Int("count", len(categories)))

	matched := false
	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if s.cfg.Category != "" && !strings.EqualFold(category.Name, s.cfg.Category) {
			slog.Debug("skipping category", slog.String("category", category.Name))
			continue
		}
		matched = true

		categoryResult, err := s.crawlCategory(ctx, category)
		result.Categories = append(result.Categories, categoryResult)
		if err == nil {
			continue
		}
		if !s.cfg.ContinueOnError || ctx.Err() != nil {
			return result, fmt.Errorf("category %q: %w", category.Name, err)
		}
		slog.Warn("category failed, continuing",
			slog.String("category", category.Name),
			slog.Any("error", err),
		)
	}

	if s.cfg.Category != "" && !matched {
		slog.Warn("requested category not found", slog.String("category", s.cfg.Category))
	}
	return result, nil
}

// crawlCategory walks the listing pages of one category and exports whatever
// was gathered, including after a fetch failure.
func (s *Scraper) crawlCategory(ctx context.Context, category models.Category) (models.CategoryResult, error) {
	slog.Info("scraping category",
		slog.String("category", category.Name),
		slog.String("url", category.URL),
	)

	st := crawlState{next: category.URL}
	var crawlErr error
	for st.next != "" {
		if s.cfg.MaxPages > 0 && st.pages >= s.cfg.MaxPages {
			slog.Debug("max pages reached",
				slog.String("category", category.Name),
				slog.Int("pages", st.pages),
			)
			break
		}
		if crawlErr = ctx.Err(); crawlErr != nil {
			break
		}
		if st, crawlErr = s.step(ctx, st); crawlErr != nil {
			break
		}
	}

	res := models.CategoryResult{
		Name:    category.Name,
		Records: len(st.records),
		Pages:   st.pages,
	}

	paths, exportErr := s.exporter.Export(category.Name, st.records)
	res.OutputFiles = paths
	res.Err = errors.Join(crawlErr, exportErr)
	if len(paths) > 0 {
		slog.Info("saved category export",
			slog.String("category", category.Name),
			slog.Int("records", len(st.records)),
			slog.Int("pages", st.pages),
			slog.Any("files", paths),
		)
	}
	return res, res.Err
}

// step fetches the current listing page, extracts every product on it and
// advances to the next page.
func (s *Scraper) step(ctx context.Context, st crawlState) (crawlState, error) {
	page, err := s.fetcher.Fetch(ctx, st.next, KindListing)
	if err != nil {
		return st, err
	}
	st.pages++
	s.pageCount++

	listing := parser.ParseListing(page.Body, page.URL)
	for _, productURL := range listing.ProductURLs {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		record, err := s.scrapeProduct(ctx, productURL)
		if err != nil {
			return st, err
		}
		st.records = append(st.records, record)
	}

	st.next = listing.NextURL
	return st, nil
}

func (s *Scraper) scrapeProduct(ctx context.Context, productURL string) (*models.ProductRecord, error) {
	page, err := s.fetcher.Fetch(ctx, productURL, KindDetail)
	if err != nil {
		return nil, err
	}

	record := parser.ParseProduct(page.Body, page.URL, s.diag)
	s.Metrics.IncItems()

	_, saved, err := s.images.Retrieve(ctx, record)
	switch {
	case err != nil:
		s.imagesSkipped++
		slog.Warn("store image", slog.String("url", record.ImageURL), slog.Any("error", err))
	case saved:
		s.imagesSaved++
	case record.HasImage():
		s.imagesSkipped++
	}
	return record, nil
}

func (s *Scraper) summarize(result *models.CrawlResult) {
	result.EndTime = time.Now()
	for _, c := range result.Categories {
		result.TotalCount += c.Records
	}
	result.ImagesSaved = s.imagesSaved
	result.ImagesSkipped = s.imagesSkipped
	result.PageCount = s.pageCount
	result.RequestCount = s.fetcher.RequestCount()
	result.ErrorCount = s.fetcher.ErrorCount()
	result.FailedURLs = s.fetcher.snapshotFailedURLs()
	result.ErrorsByType = s.fetcher.snapshotErrors()
}
