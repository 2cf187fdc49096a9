package parser

import (
	"net/url"
	"strings"
)

// ResolveURL turns href into an absolute URL using base. It returns an empty
// string when href is empty or cannot be parsed.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
