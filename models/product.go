// Package models defines data structures for the scraper.
package models

import "time"

// Defaults substituted when a field cannot be extracted from a detail page.
const (
	UnknownValue = "Unknown"
	EmptyUPC     = ""
)

// Category is a catalog section discovered from the site navigation.
type Category struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ProductRecord is one product extracted from a detail page.
//
// Price and Rating keep the site-rendered text. RatingValue and PriceValue are
// optional numeric derivatives and are only emitted in JSON output.
type ProductRecord struct {
	Title        string `csv:"Title" json:"title"`
	Price        string `csv:"Price" json:"price"`
	Availability string `csv:"Availability" json:"availability"`
	Rating       string `csv:"Rating" json:"rating"`
	UPC          string `csv:"UPC" json:"upc"`
	Category     string `csv:"Category" json:"category"`
	// ImageURL is empty when the page has no carousel image.
	ImageURL   string `csv:"Image URL" json:"image_url,omitempty"`
	ProductURL string `csv:"Product URL" json:"product_url"`

	RatingValue *int     `csv:"-" json:"rating_value,omitempty"`
	PriceValue  *float64 `csv:"-" json:"price_value,omitempty"`
}

// HasImage reports whether the record points at a retrievable image.
func (r *ProductRecord) HasImage() bool {
	return r != nil && r.ImageURL != ""
}

// CategoryResult summarises the traversal of one category.
type CategoryResult struct {
	Name        string
	Records     int
	Pages       int
	OutputFiles []string
	Err         error
}

// CrawlResult holds the overall result of a crawl.
type CrawlResult struct {
	Categories    []CategoryResult
	StartTime     time.Time
	EndTime       time.Time
	TotalCount    int
	ImagesSaved   int
	ImagesSkipped int
	ErrorCount    int
	FailedURLs    []string
	ErrorsByType  map[string]int
	RequestCount  int
	PageCount     int
}
