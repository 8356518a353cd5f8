package favicon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Icon-family rel values recognized on <link> tags.
var iconLinkRels = map[string]struct{}{
	"icon":                         {},
	"shortcut icon":                {},
	"apple-touch-icon":             {},
	"apple-touch-icon-precomposed": {},
	"mask-icon":                    {},
	"fluid-icon":                   {},
	"apple-touch-startup-image":    {},
}

// Icon-bearing meta tag names.
var iconMetaNames = map[string]struct{}{
	"apple-touch-icon":        {},
	"msapplication-tileimage": {},
}

const maxManifestBytes = 1 << 20

// Scraper pulls raw favicon references out of parsed pages and performs the
// two auxiliary fetches of the discovery step: web-app manifests and the
// default /favicon.ico probe.
type Scraper struct {
	client  *http.Client
	headers http.Header
	logger  *zap.Logger
}

// NewScraper builds a Scraper with its own HTTP client. The timeout applies
// to manifest fetches and default-favicon probes.
func NewScraper(timeout time.Duration, userAgent string, logger *zap.Logger) *Scraper {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scraper{
		client:  &http.Client{Timeout: timeout},
		headers: RequestHeaders(userAgent),
		logger:  logger,
	}
}

// ScrapeIcons collects the raw link, meta, and manifest tag attributes from
// the document head. It never fails: an absent or unparseable document
// yields empty groups.
func (s *Scraper) ScrapeIcons(doc *goquery.Document) ScrapedIcons {
	out := ScrapedIcons{
		Links:     []Attrs{},
		Metas:     []Attrs{},
		Manifests: []Attrs{},
	}
	if doc == nil {
		return out
	}

	doc.Find("head link[rel]").Each(func(_ int, sel *goquery.Selection) {
		rel := strings.ToLower(strings.TrimSpace(sel.AttrOr("rel", "")))
		if _, ok := iconLinkRels[rel]; ok {
			out.Links = append(out.Links, tagAttrs(sel))
		}
		if rel == "manifest" {
			out.Manifests = append(out.Manifests, tagAttrs(sel))
		}
	})

	doc.Find("head meta[name]").Each(func(_ int, sel *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(sel.AttrOr("name", "")))
		if _, ok := iconMetaNames[name]; ok {
			out.Metas = append(out.Metas, tagAttrs(sel))
		}
	})

	return out
}

// FetchManifest downloads and parses a web-app manifest, returning its icons
// array. All failures (non-200, bad JSON, network errors) are silent and
// yield an empty slice.
func (s *Scraper) FetchManifest(ctx context.Context, manifestURL string) []ManifestIcon {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return []ManifestIcon{}
	}
	applyHeaders(req, s.headers)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("manifest fetch failed", zap.String("url", manifestURL), zap.Error(err))
		return []ManifestIcon{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return []ManifestIcon{}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return []ManifestIcon{}
	}

	var manifest struct {
		Icons []ManifestIcon `json:"icons"`
	}
	if err := json.Unmarshal(body, &manifest); err != nil {
		s.logger.Debug("manifest parse failed", zap.String("url", manifestURL), zap.Error(err))
		return []ManifestIcon{}
	}
	if manifest.Icons == nil {
		return []ManifestIcon{}
	}
	return manifest.Icons
}

// ProbeDefaultFavicon checks whether {base}/favicon.ico answers. It returns
// the final URL after redirects on success, or "" when the probe fails.
func (s *Scraper) ProbeDefaultFavicon(ctx context.Context, baseURL string) string {
	probeURL := strings.TrimRight(baseURL, "/") + "/favicon.ico"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return ""
	}
	applyHeaders(req, s.headers)

	resp, err := s.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxManifestBytes))

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	return resp.Request.URL.String()
}

func tagAttrs(sel *goquery.Selection) Attrs {
	attrs := Attrs{}
	if len(sel.Nodes) == 0 {
		return attrs
	}
	for _, a := range sel.Nodes[0].Attr {
		attrs[strings.ToLower(a.Key)] = a.Val
	}
	return attrs
}
