package favicon

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Extractor turns a scraped page into a bounded, priority-ordered candidate
// list. Tiers run in order (links, metas, default probe, first manifest) and
// stop as soon as the cap is reached.
type Extractor struct {
	scraper *Scraper
	logger  *zap.Logger
}

// NewExtractor wires an Extractor to the given Scraper.
func NewExtractor(scraper *Scraper, logger *zap.Logger) *Extractor {
	return &Extractor{scraper: scraper, logger: logger}
}

// Extract builds at most maxIcons candidates for the page at baseURL.
// Entries whose normalized href is empty or problematic are skipped without
// counting against the cap. A total scrape failure yields an empty slice.
func (e *Extractor) Extract(ctx context.Context, doc *goquery.Document, baseURL string, maxIcons int) []Candidate {
	candidates := make([]Candidate, 0, maxIcons)
	if maxIcons <= 0 {
		return candidates
	}

	scraped := e.scraper.ScrapeIcons(doc)

	for _, attrs := range scraped.Links {
		if len(candidates) >= maxIcons {
			return candidates
		}
		if c, ok := e.candidateFrom(attrs["href"], baseURL, SourceLink, attrs); ok {
			candidates = append(candidates, c)
		}
	}

	for _, attrs := range scraped.Metas {
		if len(candidates) >= maxIcons {
			return candidates
		}
		if c, ok := e.candidateFrom(attrs["content"], baseURL, SourceMeta, attrs); ok {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) < maxIcons {
		if probed := e.scraper.ProbeDefaultFavicon(ctx, baseURL); probed != "" {
			candidates = append(candidates, Candidate{Href: probed, Source: SourceDefault})
		}
	}

	// Only the first manifest is consulted, to bound outbound requests on
	// pages that declare several.
	if len(candidates) < maxIcons && len(scraped.Manifests) > 0 {
		candidates = e.appendManifestIcons(ctx, candidates, scraped.Manifests[0], baseURL, maxIcons)
	}

	return candidates
}

func (e *Extractor) appendManifestIcons(
	ctx context.Context,
	candidates []Candidate,
	manifestAttrs Attrs,
	baseURL string,
	maxIcons int,
) []Candidate {
	manifestURL := NormalizeURL(manifestAttrs["href"], baseURL)
	if manifestURL == "" || IsProblematicURL(manifestURL) {
		return candidates
	}

	for _, icon := range e.scraper.FetchManifest(ctx, manifestURL) {
		if len(candidates) >= maxIcons {
			break
		}
		// Manifest icon paths resolve against the manifest's own URL, not
		// the page that linked it.
		href := NormalizeURL(icon.Src, manifestURL)
		if href == "" || IsProblematicURL(href) {
			continue
		}
		candidates = append(candidates, Candidate{
			Href:   href,
			Source: SourceManifest,
			Sizes:  icon.Sizes,
		})
	}
	return candidates
}

func (e *Extractor) candidateFrom(rawHref, baseURL string, source Source, attrs Attrs) (Candidate, bool) {
	href := NormalizeURL(rawHref, baseURL)
	if href == "" || IsProblematicURL(href) {
		return Candidate{}, false
	}
	return Candidate{
		Href:   href,
		Source: source,
		Sizes:  attrs["sizes"],
		Masked: isMaskRel(attrs["rel"]),
	}, true
}

func isMaskRel(rel string) bool {
	return strings.EqualFold(strings.TrimSpace(rel), "mask-icon")
}
