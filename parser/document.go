// Package parser extracts categories, listings, products and hotels from raw
// HTML. Parsers never fail: missing elements produce empty results or the
// documented defaults.
package parser

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Field names reported to Diagnostics.
const (
	FieldTitle        = "title"
	FieldPrice        = "price"
	FieldAvailability = "availability"
	FieldRating       = "rating"
	FieldUPC          = "upc"
	FieldImageURL     = "image_url"
	FieldCategory     = "category"
)

// Diagnostics observes default substitution during product extraction.
type Diagnostics interface {
	FieldDefaulted(pageURL, field string)
}

// DiagnosticsFunc adapts a function to Diagnostics.
type DiagnosticsFunc func(pageURL, field string)

// FieldDefaulted implements Diagnostics.
func (f DiagnosticsFunc) FieldDefaulted(pageURL, field string) {
	f(pageURL, field)
}

type noDiagnostics struct{}

func (noDiagnostics) FieldDefaulted(string, string) {}

func newDocument(body []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return doc
}

// firstText returns the first non-blank text node that is a direct child of
// any element in sel, trimmed.
func firstText(sel *goquery.Selection) string {
	for _, node := range sel.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.TextNode {
				continue
			}
			if text := strings.TrimSpace(child.Data); text != "" {
				return text
			}
		}
	}
	return ""
}

// firstLine returns the first non-blank line of text, trimmed.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, selector, attr string) string {
	value, _ := doc.Find(selector).First().Attr(attr)
	return strings.TrimSpace(value)
}
