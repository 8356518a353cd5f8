package domain

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const maxTitleLength = 200

// ExtractTitle pulls the page title, preferring og:title over <title>.
func ExtractTitle(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}
	if og, ok := doc.Find(`head meta[property="og:title"]`).First().Attr("content"); ok {
		if title := SanitizeTitle(og); title != "" {
			return title
		}
	}
	return SanitizeTitle(doc.Find("head title").First().Text())
}

// SanitizeTitle collapses whitespace, strips control characters, and rejects
// titles that are URLs or mostly punctuation. Returns "" for unusable input.
func SanitizeTitle(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, raw)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return ""
	}
	if len(cleaned) > maxTitleLength {
		cleaned = strings.TrimSpace(cleaned[:maxTitleLength])
	}

	lower := strings.ToLower(cleaned)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ""
	}

	alnum := 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if alnum*2 < len([]rune(cleaned)) {
		return ""
	}
	return cleaned
}

// FallbackTitle capitalizes the second-level name when scraping yields
// nothing usable.
func FallbackTitle(secondLevel string) string {
	if secondLevel == "" {
		return ""
	}
	runes := []rune(secondLevel)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
