package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

const ratingToken = "star-rating"

// ParseProduct extracts a product record from a detail page. Every field is
// extracted independently; a missing element yields the field default and a
// call to diag, never an error. diag may be nil.
func ParseProduct(body []byte, pageURL string, diag Diagnostics) *models.ProductRecord {
	if diag == nil {
		diag = noDiagnostics{}
	}
	doc := newDocument(body)

	orDefault := func(field, value, def string) string {
		if value == "" {
			diag.FieldDefaulted(pageURL, field)
			return def
		}
		return value
	}

	record := &models.ProductRecord{
		Title:        orDefault(FieldTitle, firstText(doc.Find(".product_main h1")), models.UnknownValue),
		Price:        orDefault(FieldPrice, firstText(doc.Find(".product_main .price_color")), models.UnknownValue),
		Availability: orDefault(FieldAvailability, firstLine(firstText(doc.Find(".availability"))), models.UnknownValue),
		Rating:       orDefault(FieldRating, extractRating(doc), models.UnknownValue),
		UPC:          orDefault(FieldUPC, extractInfo(doc, "UPC"), models.EmptyUPC),
		Category:     orDefault(FieldCategory, firstText(doc.Find("ul.breadcrumb li:nth-child(3) a")), models.UnknownValue),
		ImageURL:     orDefault(FieldImageURL, extractImage(doc, pageURL), ""),
		ProductURL:   pageURL,
	}

	if value, ok := RatingToNumeric(record.Rating); ok {
		record.RatingValue = &value
	}
	if value, ok := PriceValue(record.Price); ok {
		record.PriceValue = &value
	}
	return record
}

// extractRating drops the star-rating token from the class attribute and
// keeps the remainder, e.g. "star-rating Three" -> "Three".
func extractRating(doc *goquery.Document) string {
	class, ok := doc.Find("p.star-rating").First().Attr("class")
	if !ok {
		return ""
	}

	var rest []string
	for _, token := range strings.Fields(class) {
		if token != ratingToken {
			rest = append(rest, token)
		}
	}
	return strings.Join(rest, " ")
}

// extractInfo returns the value of the first product information row whose
// header equals key.
func extractInfo(doc *goquery.Document, key string) string {
	var value string
	doc.Find("table.table-striped tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if firstText(row.Find("th")) != key {
			return true
		}
		value = firstText(row.Find("td"))
		return value == ""
	})
	return value
}

func extractImage(doc *goquery.Document, pageURL string) string {
	src := firstAttr(doc, ".carousel-inner img[src]", "src")
	if src == "" {
		src = firstAttr(doc, "div.item.active img[src]", "src")
	}
	return ResolveURL(pageURL, src)
}
