// Package slug derives URL-friendly names for exported reports.
package slug

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile("[^a-z0-9-]+")
	multiHyphen     = regexp.MustCompile("-+")
)

// Generate creates a URL-friendly slug from a string
func Generate(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)
	s = transliterate(s)

	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")

	s = nonAlphanumeric.ReplaceAllString(s, "")
	s = multiHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	// Limit length to 100 characters
	if len(s) > 100 {
		s = s[:100]
		s = strings.TrimRight(s, "-")
	}

	return s
}

// GenerateWithFallback generates a slug, falling back to a default if the
// input produces an empty slug
func GenerateWithFallback(s, fallback string) string {
	slug := Generate(s)
	if slug == "" {
		return Generate(fallback)
	}
	return slug
}

// FromPage derives a report slug from a scanned page's title, falling back
// to its URL host and path when the title produces nothing usable
func FromPage(title, pageURL string) string {
	if slug := Generate(title); slug != "" {
		return slug
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return Generate(pageURL)
	}
	return GenerateWithFallback(parsed.Host+" "+parsed.Path, "report")
}

// transliterate converts unicode characters to ASCII equivalents
func transliterate(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// isMn checks if a rune is a nonspacing mark (accents, diacritics)
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
