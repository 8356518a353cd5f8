package fetcher

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// ShellDetector flags pages that came back as empty JavaScript shells and
// are worth re-fetching through the renderer.
type ShellDetector struct {
	minHTMLBytes int
	selectors    []string
}

// NewShellDetector constructs a detector with the configured thresholds.
// Selectors name elements that any real landing page should have (e.g.
// "head link", "title"); their absence suggests a client-rendered shell.
func NewShellDetector(minBytes int, selectors []string) *ShellDetector {
	return &ShellDetector{
		minHTMLBytes: minBytes,
		selectors:    selectors,
	}
}

// NeedsJS inspects the page for signals that JS rendering is required.
func (d *ShellDetector) NeedsJS(page Page) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(page.Body) < d.minHTMLBytes {
		return true
	}
	return d.missingSelectors(page.Body)
}

func (d *ShellDetector) missingSelectors(body []byte) bool {
	if len(d.selectors) == 0 || len(body) == 0 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return true
	}
	for _, sel := range d.selectors {
		if sel == "" {
			continue
		}
		if doc.Find(sel).Length() == 0 {
			return true
		}
	}
	return false
}
