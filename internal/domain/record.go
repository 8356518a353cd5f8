// Package domain orchestrates per-domain metadata extraction: page open
// with fallbacks, bot-challenge detection, title scraping, and the favicon
// pipeline, producing the entries that feed the top-picks manifest.
package domain

import "strings"

// Record is one input row of the ranked top-domain list. Read-only.
type Record struct {
	Domain     string   `json:"domain"`
	Suffix     string   `json:"suffix"`
	Rank       int      `json:"rank"`
	Categories []string `json:"categories"`
	Source     string   `json:"source"`
}

// SecondLevelName returns the registrable name excluding the public suffix,
// e.g. "example" for domain "foo.example.co.uk" with suffix "co.uk".
func (r Record) SecondLevelName() string {
	name := strings.TrimSuffix(r.Domain, "."+r.Suffix)
	if name == r.Domain {
		// Suffix did not match; fall back to stripping the last label.
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Result is the per-domain outcome recorded in the manifest and run report.
// FailureReason is a machine-readable string ("" on success).
type Result struct {
	Domain        string
	Rank          int
	Title         string
	URL           string
	Icon          string
	Categories    []string
	Source        string
	FailureReason string
}

// Failure reasons surfaced for observability.
const (
	ReasonBlocklisted   = "domain_in_blocklist"
	ReasonBotProtection = "blocked_by_bot_protection"
	ReasonUnreachable   = "unreachable"
	ReasonNoFavicons    = "no_favicons_found"
)
