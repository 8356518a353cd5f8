package favicon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	base := "https://example.com/some/page"

	cases := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{"empty", "", base, ""},
		{"bare slash", "/", base, ""},
		{"protocol relative", "//cdn.example.com/fav.ico", base, "https://cdn.example.com/fav.ico"},
		{"absolute https untouched", "https://example.com/fav.ico", base, "https://example.com/fav.ico"},
		{"absolute http untouched", "http://example.com/fav.ico", base, "http://example.com/fav.ico"},
		{"absolute path joins origin", "/static/fav.ico", base, "https://example.com/static/fav.ico"},
		{"absolute path without base", "/static/fav.ico", "", ""},
		{"bare host", "cdn.example.com/fav.ico", "", "https://cdn.example.com/fav.ico"},
		{"relative resolves", "img/fav.ico", base, "https://example.com/some/img/fav.ico"},
		{"relative with dots", "../fav.ico", "https://example.com/a/b/page", "https://example.com/a/fav.ico"},
		{"relative with dots without base", "../fav.ico", "", ""},
		{"dotted filename resolves", "m-192.png", "https://example.com/site.webmanifest", "https://example.com/m-192.png"},
		{"relative without base", "img/fav.ico", "", ""},
		{"whitespace trimmed", "  /fav.ico  ", base, "https://example.com/fav.ico"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizeURL(tc.raw, tc.base))
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"//cdn.example.com/fav.ico",
		"/static/fav.ico",
		"img/fav.ico",
		"cdn.example.com/fav.ico",
	}
	for _, raw := range inputs {
		once := NormalizeURL(raw, "https://example.com/page")
		require.NotEmpty(t, once)
		require.Equal(t, once, NormalizeURL(once, "https://example.com/page"))
	}
}

func TestIsValidURL(t *testing.T) {
	t.Parallel()

	require.True(t, IsValidURL("https://example.com/fav.ico"))
	require.True(t, IsValidURL("http://example.com"))
	require.False(t, IsValidURL(""))
	require.False(t, IsValidURL("/fav.ico"))
	require.False(t, IsValidURL("fav.ico"))
	require.False(t, IsValidURL("data:image/png;base64,AAAA"))
}

func TestIsProblematicURL(t *testing.T) {
	t.Parallel()

	require.True(t, IsProblematicURL("data:image/png;base64,AAAA"))
	require.True(t, IsProblematicURL("https://example.com/data:application/manifest+json;base64,eyJ9"))
	require.False(t, IsProblematicURL("https://example.com/fav.ico"))
}
