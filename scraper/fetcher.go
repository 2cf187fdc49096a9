package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Request kinds, used as metric labels and log attributes.
const (
	KindRoot    = "root"
	KindListing = "listing"
	KindDetail  = "detail"
	KindImage   = "image"
	KindSearch  = "search"
)

// Page is a fetched document.
type Page struct {
	// URL is the final URL after redirects, used to resolve relative links.
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	AllowedDomains []string
	UserAgent      string
	Timeout        time.Duration
	// Delay spaces consecutive requests.
	Delay   time.Duration
	Headers http.Header
}

// Fetcher issues synchronous GET requests through a colly collector. It is not
// safe for concurrent use.
type Fetcher struct {
	collector *colly.Collector
	headers   http.Header
	userAgent string
	metrics   *Metrics

	requestCount int
	errorCount   int
	failedURLs   []string
	errorsByType map[string]int
}

// NewFetcher builds a fetcher. metrics may be nil.
func NewFetcher(opts FetcherOptions, metrics *Metrics) (*Fetcher, error) {
	options := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.IgnoreRobotsTxt(),
	}
	if opts.UserAgent != "" {
		options = append(options, colly.UserAgent(opts.UserAgent))
	}
	if len(opts.AllowedDomains) > 0 {
		options = append(options, colly.AllowedDomains(opts.AllowedDomains...))
	}
	collector := colly.NewCollector(options...)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       opts.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	f := &Fetcher{
		collector:    collector,
		headers:      opts.Headers.Clone(),
		userAgent:    opts.UserAgent,
		metrics:      metrics,
		errorsByType: make(map[string]int),
	}
	f.configureHandlers()
	return f, nil
}

// WithTransport replaces the HTTP transport, mainly for tests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

func (f *Fetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		f.requestCount++
		f.metrics.IncRequest(r.Ctx.Get("kind"))
		if f.requestCount%50 == 0 {
			slog.Debug("scraper request progress",
				slog.Int("requests", f.requestCount),
				slog.String("url", r.URL.String()),
			)
		}
	})

	f.collector.OnResponse(func(r *colly.Response) {
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
		page := &Page{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       r.Body,
		}
		if r.Headers != nil {
			page.Header = r.Headers.Clone()
		}
		r.Ctx.Put("page", page)
	})
}

// Fetch GETs rawURL and returns the page. Transport failures and non-2xx
// responses are returned as *FetchError wrapping a classified error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, kind string) (*Page, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	reqCtx := colly.NewContext()
	reqCtx.Put("kind", kind)

	err := f.collector.Request(http.MethodGet, rawURL, nil, reqCtx, f.requestHeaders())
	page, _ := reqCtx.GetAny("page").(*Page)

	switch {
	case err != nil:
		return nil, f.fail(rawURL, kind, classifyError(err, 0))
	case page == nil:
		return nil, f.fail(rawURL, kind, errors.New("no response received"))
	case page.StatusCode < http.StatusOK || page.StatusCode >= http.StatusMultipleChoices:
		return nil, f.fail(rawURL, kind, classifyError(nil, page.StatusCode))
	}
	return page, nil
}

// requestHeaders returns nil when there is nothing to add, letting colly fill
// in its defaults.
func (f *Fetcher) requestHeaders() http.Header {
	if len(f.headers) == 0 {
		return nil
	}
	hdr := f.headers.Clone()
	if hdr.Get("User-Agent") == "" && f.userAgent != "" {
		hdr.Set("User-Agent", f.userAgent)
	}
	return hdr
}

func (f *Fetcher) fail(rawURL, kind string, err error) error {
	label := errorTypeLabel(err)
	f.errorCount++
	f.errorsByType[label]++
	f.failedURLs = append(f.failedURLs, rawURL)

	f.metrics.IncError(label)
	slog.Debug("request error",
		slog.String("url", rawURL),
		slog.String("kind", kind),
		slog.String("category", label),
		slog.Any("error", err),
	)
	return &FetchError{URL: rawURL, Err: err}
}

// RequestCount returns the number of requests issued so far.
func (f *Fetcher) RequestCount() int {
	return f.requestCount
}

// ErrorCount returns the number of failed requests so far.
func (f *Fetcher) ErrorCount() int {
	return f.errorCount
}

func (f *Fetcher) snapshotFailedURLs() []string {
	out := make([]string, len(f.failedURLs))
	copy(out, f.failedURLs)
	return out
}

func (f *Fetcher) snapshotErrors() map[string]int {
	out := make(map[string]int, len(f.errorsByType))
	for k, v := range f.errorsByType {
		out[k] = v
	}
	return out
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = ErrHTTPStatus{StatusCode: statusCode}
		}
		switch statusCode {
		case http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		}
		return wrapped
	}

	return err
}
