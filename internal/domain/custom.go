package domain

import "strings"

// CustomFavicons maps second-level domain names to curated favicon URLs.
// Entries here bypass the scrape pipeline: some high-profile sites serve
// low-quality icons or block scrapers outright.
type CustomFavicons struct {
	icons   map[string]string
	cdnHost string
}

// NewCustomFavicons builds the override map. cdnHost identifies URLs that
// are already hosted on our CDN and can be reused without re-uploading.
func NewCustomFavicons(icons map[string]string, cdnHost string) *CustomFavicons {
	normalized := make(map[string]string, len(icons))
	for name, url := range icons {
		name = strings.TrimSpace(strings.ToLower(name))
		url = strings.TrimSpace(url)
		if name == "" || url == "" {
			continue
		}
		normalized[name] = url
	}
	return &CustomFavicons{icons: normalized, cdnHost: cdnHost}
}

// Lookup returns the curated favicon URL for a second-level name.
func (c *CustomFavicons) Lookup(secondLevel string) (string, bool) {
	if c == nil {
		return "", false
	}
	url, ok := c.icons[strings.ToLower(secondLevel)]
	return url, ok
}

// IsCDNHosted reports whether the URL already points at our CDN.
func (c *CustomFavicons) IsCDNHosted(url string) bool {
	if c == nil || c.cdnHost == "" {
		return false
	}
	return strings.HasPrefix(url, "https://"+c.cdnHost+"/")
}
