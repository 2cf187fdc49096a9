// Package scraper fetches catalog pages and drives the category traversal.
package scraper

import (
	"errors"
	"fmt"
)

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string { return "timeout: " + e.Err.Error() }
func (e ErrTimeout) Unwrap() error { return e.Err }
func (ErrTimeout) label() string   { return "timeout" }

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string { return "connection: " + e.Err.Error() }
func (e ErrConnection) Unwrap() error { return e.Err }
func (ErrConnection) label() string   { return "connection" }

// ErrForbidden indicates a forbidden response (HTTP 403).
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string { return "forbidden: " + e.Err.Error() }
func (e ErrForbidden) Unwrap() error { return e.Err }
func (ErrForbidden) label() string   { return "forbidden" }

// ErrNotFound indicates a missing resource (HTTP 404).
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string { return "not_found: " + e.Err.Error() }
func (e ErrNotFound) Unwrap() error { return e.Err }
func (ErrNotFound) label() string   { return "not_found" }

// ErrRateLimited indicates the target rate-limited the request (HTTP 429).
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string { return "rate_limited: " + e.Err.Error() }
func (e ErrRateLimited) Unwrap() error { return e.Err }
func (ErrRateLimited) label() string   { return "rate_limited" }

// ErrHTTPStatus indicates a non-2xx response. The more specific types above
// wrap it for 403, 404 and 429.
type ErrHTTPStatus struct {
	StatusCode int
}

func (e ErrHTTPStatus) Error() string { return fmt.Sprintf("http status %d", e.StatusCode) }
func (ErrHTTPStatus) label() string   { return "http_status" }

// FetchError records which URL a classified error belongs to.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type labeled interface {
	label() string
}

// errorTypeLabel maps an error to the label used in metrics and summaries.
// The outermost classified error wins.
func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var l labeled
	if errors.As(err, &l) {
		return l.label()
	}
	return "other"
}
