package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

// Listing is the product links and pagination link found on a listing page.
type Listing struct {
	ProductURLs []string
	// NextURL is empty on the last page.
	NextURL string
}

// ParseCategories returns the navigation categories of the site root in
// document order. It returns nil when the navigation list is absent.
func ParseCategories(body []byte, pageURL string) []models.Category {
	doc := newDocument(body)

	var categories []models.Category
	doc.Find(".nav-list ul li a").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		href, _ := sel.Attr("href")
		link := ResolveURL(pageURL, href)
		if name == "" || link == "" {
			return
		}
		categories = append(categories, models.Category{Name: name, URL: link})
	})
	return categories
}

// ParseListing extracts product detail links and the next page link.
func ParseListing(body []byte, pageURL string) Listing {
	doc := newDocument(body)

	var listing Listing
	doc.Find("article.product_pod h3 a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if link := ResolveURL(pageURL, href); link != "" {
			listing.ProductURLs = append(listing.ProductURLs, link)
		}
	})
	listing.NextURL = ResolveURL(pageURL, firstAttr(doc, "li.next a", "href"))
	return listing
}
