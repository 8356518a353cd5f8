package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Source yields the ranked domain list a run should process.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// FileSource reads domain records from a JSON file. The file holds either a
// bare array of records or an object with a "domains" key.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Records(ctx context.Context) ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading domain list %s: %w", s.path, err)
	}
	records, err := parseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("parsing domain list %s: %w", s.path, err)
	}
	return records, nil
}

func parseRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		var wrapped struct {
			Domains []Record `json:"domains"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, err
		}
		records = wrapped.Domains
	}

	cleaned := records[:0]
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		rec.Domain = strings.TrimSpace(strings.ToLower(rec.Domain))
		if rec.Domain == "" {
			continue
		}
		if _, dup := seen[rec.Domain]; dup {
			continue
		}
		seen[rec.Domain] = struct{}{}
		if rec.Source == "" {
			rec.Source = "top-picks"
		}
		cleaned = append(cleaned, rec)
	}

	sort.SliceStable(cleaned, func(i, j int) bool { return cleaned[i].Rank < cleaned[j].Rank })
	return cleaned, nil
}

// objectLister is the slice of the object store the ObjectSource needs.
type objectLister interface {
	LatestMatching(ctx context.Context, prefix string) (string, []byte, error)
}

// ObjectSource reads the most recent domain list published under a prefix
// in the object store.
type ObjectSource struct {
	store  objectLister
	prefix string
}

func NewObjectSource(store objectLister, prefix string) *ObjectSource {
	return &ObjectSource{store: store, prefix: prefix}
}

func (s *ObjectSource) Records(ctx context.Context) ([]Record, error) {
	name, data, err := s.store.LatestMatching(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("listing domain lists under %q: %w", s.prefix, err)
	}
	if name == "" {
		return nil, fmt.Errorf("no domain list found under prefix %q", s.prefix)
	}
	records, err := parseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("parsing domain list %s: %w", name, err)
	}
	return records, nil
}

// StaticSource serves a fixed record slice. Used in tests and dry runs.
type StaticSource []Record

func (s StaticSource) Records(context.Context) ([]Record, error) {
	return []Record(s), nil
}
