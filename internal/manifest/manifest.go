// Package manifest assembles and publishes the top-picks JSON document
// consumed by the suggestion backend.
package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/moz-infra/toppicks-crawler/internal/domain"
)

// Entry is one published domain row.
type Entry struct {
	Rank       int      `json:"rank"`
	Domain     string   `json:"domain"`
	Categories []string `json:"categories,omitempty"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Icon       string   `json:"icon"`
	Source     string   `json:"source"`
}

// Manifest is the published document.
type Manifest struct {
	Domains []Entry `json:"domains"`
}

// Curated custom-domain rows exist only to pin a favicon; without one they
// carry no information and are dropped. Ranked top-picks rows stay even
// icon-less so consumers keep the title and URL.
const customSource = "custom-domains"

// Build converts run results into a manifest, ordered by rank. Results that
// failed outright (no URL and no icon) are skipped.
func Build(results []domain.Result) Manifest {
	entries := make([]Entry, 0, len(results))
	for _, res := range results {
		if res.URL == "" && res.Icon == "" {
			continue
		}
		if res.Source == customSource && res.Icon == "" {
			continue
		}
		entries = append(entries, Entry{
			Rank:       res.Rank,
			Domain:     res.Domain,
			Categories: res.Categories,
			Title:      res.Title,
			URL:        res.URL,
			Icon:       res.Icon,
			Source:     res.Source,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
	return Manifest{Domains: entries}
}

// Encode renders the manifest as indented JSON with a trailing newline.
func (m Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a previously published manifest.
func Decode(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest: %w", err)
	}
	return m, nil
}

// Equal reports whether two encoded manifests carry the same content,
// ignoring formatting differences.
func Equal(a, b []byte) bool {
	ma, errA := Decode(a)
	mb, errB := Decode(b)
	if errA != nil || errB != nil {
		return strings.TrimSpace(string(a)) == strings.TrimSpace(string(b))
	}
	if len(ma.Domains) != len(mb.Domains) {
		return false
	}
	ja, _ := json.Marshal(ma)
	jb, _ := json.Marshal(mb)
	return string(ja) == string(jb)
}
