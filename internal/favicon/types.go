// Package favicon implements discovery, selection, and re-hosting of site
// favicons. Candidates are collected from HTML link/meta tags, web-app
// manifests, and the default /favicon.ico path, then downloaded and ranked
// so the best icon can be uploaded to the CDN bucket.
package favicon

// Source records where a favicon candidate was discovered. The ordering of
// the constants doubles as selection priority (lower wins).
type Source int

// Candidate provenance values.
const (
	SourceLink Source = iota + 1
	SourceMeta
	SourceManifest
	SourceDefault
)

// Priority maps a source to its selection rank. Unknown sources rank with
// the default-favicon probe.
func (s Source) Priority() int {
	switch s {
	case SourceLink, SourceMeta, SourceManifest, SourceDefault:
		return int(s)
	default:
		return int(SourceDefault)
	}
}

func (s Source) String() string {
	switch s {
	case SourceLink:
		return "link"
	case SourceMeta:
		return "meta"
	case SourceManifest:
		return "manifest"
	case SourceDefault:
		return "default"
	default:
		return "unknown"
	}
}

// Candidate is one discovered favicon reference. Href is absolute after
// normalization. Candidates are immutable once constructed and are discarded
// after a single domain's processing pass.
type Candidate struct {
	Href   string
	Source Source
	Sizes  string
	Masked bool
}

// Image holds downloaded favicon bytes plus the content type reported by the
// server. The content type may be missing or wrong; callers decode the bytes
// when they need pixel dimensions.
type Image struct {
	Content     []byte
	ContentType string
}

// Attrs is the raw attribute map of a scraped tag.
type Attrs map[string]string

// ScrapedIcons groups the raw tag attributes found on a page. Slices are
// always non-nil; a failed scrape yields empty groups.
type ScrapedIcons struct {
	Links     []Attrs
	Metas     []Attrs
	Manifests []Attrs
}

// ManifestIcon is one entry of a web-app manifest's icons array.
type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes,omitempty"`
	Type  string `json:"type,omitempty"`
}
