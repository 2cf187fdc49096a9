package parser

import (
	"strconv"
	"strings"
)

// NormalizePrice removes the currency symbol and surrounding whitespace.
func NormalizePrice(price string) string {
	price = strings.TrimSpace(price)
	price = strings.ReplaceAll(price, "Â", "")
	price = strings.ReplaceAll(price, "£", "")
	return strings.TrimSpace(price)
}

// PriceValue parses the numeric part of a site-rendered price.
func PriceValue(price string) (float64, bool) {
	value, err := strconv.ParseFloat(NormalizePrice(price), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// RatingToNumeric converts the textual rating to a numeric scale. The second
// result is false for anything outside the Zero..Five vocabulary.
func RatingToNumeric(rating string) (int, bool) {
	switch strings.TrimSpace(rating) {
	case "Zero":
		return 0, true
	case "One":
		return 1, true
	case "Two":
		return 2, true
	case "Three":
		return 3, true
	case "Four":
		return 4, true
	case "Five":
		return 5, true
	default:
		return 0, false
	}
}
