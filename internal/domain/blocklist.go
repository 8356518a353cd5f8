package domain

import "strings"

// Blocklist stores exact hosts and suffix wildcards derived from
// configuration. Lookups also match the record's second-level name so
// "example" blocks every TLD variant of example.
type Blocklist struct {
	exact    map[string]struct{}
	suffixes []string
}

// NewBlocklist parses patterns: "host.tld" blocks exactly, "*.tld" and
// ".tld" block the suffix, and a bare label ("example") blocks any domain
// whose second-level name matches.
func NewBlocklist(patterns []string) *Blocklist {
	b := &Blocklist{exact: make(map[string]struct{})}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		switch {
		case strings.HasPrefix(value, "*."):
			b.addSuffix(strings.TrimPrefix(value, "*."))
		case strings.HasPrefix(value, "."):
			b.addSuffix(strings.TrimPrefix(value, "."))
		default:
			b.exact[value] = struct{}{}
		}
	}
	if len(b.exact) == 0 && len(b.suffixes) == 0 {
		return nil
	}
	return b
}

func (b *Blocklist) addSuffix(suffix string) {
	if suffix == "" {
		return
	}
	for _, existing := range b.suffixes {
		if existing == suffix {
			return
		}
	}
	b.suffixes = append(b.suffixes, suffix)
}

// IsBlocked reports whether the record's domain or second-level name is on
// the blocklist. A nil blocklist never blocks.
func (b *Blocklist) IsBlocked(rec Record) bool {
	if b == nil {
		return false
	}
	host := strings.TrimSpace(strings.ToLower(rec.Domain))
	if host == "" {
		return false
	}
	if _, ok := b.exact[host]; ok {
		return true
	}
	if _, ok := b.exact[strings.ToLower(rec.SecondLevelName())]; ok {
		return true
	}
	for _, suffix := range b.suffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}
