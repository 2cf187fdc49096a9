package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

// ParseHotels reads the first limit result cards of a Booking search page.
// Cards without a name are dropped, so fewer than limit hotels may come back;
// an unreadable review score leaves Rating nil.
func ParseHotels(body []byte, city string, limit int) []models.Hotel {
	doc := newDocument(body)

	cards := doc.Find(`div[data-testid="property-card"]`)
	if cards.Length() == 0 {
		cards = doc.Find(".sr_property_block")
	}
	if limit > 0 && cards.Length() > limit {
		cards = cards.Slice(0, limit)
	}

	var hotels []models.Hotel
	cards.Each(func(_ int, card *goquery.Selection) {
		name := cardText(card, `div[data-testid="title"]`, ".sr-hotel__name")
		if name == "" {
			return
		}
		hotels = append(hotels, models.Hotel{
			City:   city,
			Name:   name,
			Rating: parseScore(cardText(card, `div[data-testid="review-score"]`, ".bui-review-score__badge")),
		})
	})
	return hotels
}

func cardText(card *goquery.Selection, selectors ...string) string {
	for _, selector := range selectors {
		if found := card.Find(selector).First(); found.Length() > 0 {
			return strings.TrimSpace(found.Text())
		}
	}
	return ""
}

// parseScore reads a review score such as "8,7" or "Scored 8.7 8.7 Excellent".
func parseScore(text string) *float64 {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" {
		return nil
	}
	candidates := append([]string{text}, strings.Fields(text)...)
	for _, candidate := range candidates {
		if value, err := strconv.ParseFloat(candidate, 64); err == nil {
			return &value
		}
	}
	return nil
}
