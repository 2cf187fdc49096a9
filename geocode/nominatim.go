// Package geocode resolves free-text place queries through a Nominatim
// server, caching answers in memory.
package geocode

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

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

var (
	// ErrNotFound is returned when the query matches nothing.
	ErrNotFound = errors.New("geocode: no match")
	// ErrAPIFailure wraps non-2xx responses and undecodable coordinates.
	ErrAPIFailure = errors.New("geocode: nominatim request failed")
)

// Coordinates is a resolved position.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Delay     time.Duration
	Timeout   time.Duration
	CacheSize int
}

// Client queries Nominatim's search endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	cache      *lru.Cache[string, result]
}

// result caches misses as well as hits.
type result struct {
	coords Coordinates
	found  bool
}

// NewClient creates a Nominatim client. Nominatim's usage policy requires a
// User-Agent, so an empty one is rejected.
func NewClient(opts Options) (*Client, error) {
	if opts.UserAgent == "" {
		return nil, fmt.Errorf("nominatim requires a user agent")
	}
	size := opts.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, result](size)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Delay), 1)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		limiter:    limiter,
		cache:      cache,
	}, nil
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Search returns the first match for query. Results, including misses, are
// cached by query; failed requests are not.
func (c *Client) Search(ctx context.Context, query string) (Coordinates, error) {
	if cached, ok := c.cache.Get(query); ok {
		if !cached.found {
			return Coordinates{}, fmt.Errorf("%q: %w", query, ErrNotFound)
		}
		return cached.coords, nil
	}

	coords, found, err := c.search(ctx, query)
	if err != nil {
		return Coordinates{}, err
	}
	c.cache.Add(query, result{coords: coords, found: found})
	if !found {
		return Coordinates{}, fmt.Errorf("%q: %w", query, ErrNotFound)
	}
	return coords, nil
}

func (c *Client) search(ctx context.Context, query string) (Coordinates, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Coordinates{}, false, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "0")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("%w: %v", ErrAPIFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Coordinates{}, false, fmt.Errorf("%w: status %d: %s", ErrAPIFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return Coordinates{}, false, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("%w: latitude %q", ErrAPIFailure, places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("%w: longitude %q", ErrAPIFailure, places[0].Lon)
	}
	return Coordinates{Lat: lat, Lon: lon}, true, nil
}

// CacheLen reports how many queries are cached.
func (c *Client) CacheLen() int {
	return c.cache.Len()
}
