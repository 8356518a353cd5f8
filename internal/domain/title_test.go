package domain

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractTitle(t *testing.T) {
	t.Run("prefers og title", func(t *testing.T) {
		doc := docFromHTML(t, `<html><head>
			<meta property="og:title" content="Example Store">
			<title>example.com</title>
		</head></html>`)
		require.Equal(t, "Example Store", ExtractTitle(doc))
	})

	t.Run("falls back to head title", func(t *testing.T) {
		doc := docFromHTML(t, `<html><head><title> Example  News </title></head></html>`)
		require.Equal(t, "Example News", ExtractTitle(doc))
	})

	t.Run("unusable og falls through", func(t *testing.T) {
		doc := docFromHTML(t, `<html><head>
			<meta property="og:title" content="https://example.com/">
			<title>Example</title>
		</head></html>`)
		require.Equal(t, "Example", ExtractTitle(doc))
	})

	t.Run("nil document", func(t *testing.T) {
		require.Equal(t, "", ExtractTitle(nil))
	})
}

func TestSanitizeTitle(t *testing.T) {
	t.Run("strips control chars and collapses whitespace", func(t *testing.T) {
		require.Equal(t, "Hello World", SanitizeTitle("Hello\t\n  World\x00"))
	})

	t.Run("rejects bare URLs", func(t *testing.T) {
		require.Equal(t, "", SanitizeTitle("https://example.com/home"))
		require.Equal(t, "", SanitizeTitle("HTTP://EXAMPLE.COM"))
	})

	t.Run("rejects mostly punctuation", func(t *testing.T) {
		require.Equal(t, "", SanitizeTitle("*** !!! ??? ***"))
	})

	t.Run("caps length", func(t *testing.T) {
		long := strings.Repeat("a", 500)
		require.Len(t, SanitizeTitle(long), maxTitleLength)
	})

	t.Run("empty", func(t *testing.T) {
		require.Equal(t, "", SanitizeTitle("   "))
	})
}

func TestFallbackTitle(t *testing.T) {
	require.Equal(t, "Example", FallbackTitle("example"))
	require.Equal(t, "", FallbackTitle(""))
}
