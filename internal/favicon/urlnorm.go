package favicon

import (
	"net/url"
	"regexp"
	"strings"
)

var schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Marker left behind when a site inlines its manifest JSON as a base64 data
// payload in an icon href. Not a fetchable image.
const manifestBase64Marker = "manifest+json;base64,"

// NormalizeURL turns a favicon reference into an absolute URL, resolving
// relative and protocol-relative forms against base. It returns "" for
// references that cannot be made absolute.
func NormalizeURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "/":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "/"):
		origin := baseOrigin(base)
		if origin == "" {
			return ""
		}
		return origin + raw
	}

	// With a base every schemeless reference resolves the standard way,
	// which also collapses "./" and "../" segments.
	if base != "" {
		baseURL, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		resolved := baseURL.ResolveReference(ref)
		if resolved.Scheme == "" || resolved.Host == "" {
			return ""
		}
		return resolved.String()
	}

	// Without a base the only salvageable form is a bare host such as
	// "cdn.example.com/fav.ico": a dotted segment before the first slash
	// that is not a "." or ".." path step.
	head, _, _ := strings.Cut(raw, "/")
	if head != "." && head != ".." && strings.Contains(head, ".") && !strings.Contains(head, ":") {
		return "https://" + raw
	}
	return ""
}

// IsValidURL reports whether raw is non-empty and carries an explicit
// scheme://. Bare paths are not valid.
func IsValidURL(raw string) bool {
	return raw != "" && schemeRe.MatchString(raw)
}

// IsProblematicURL reports whether raw is a data: URI or an inlined base64
// manifest payload. Such references must be discarded before download.
func IsProblematicURL(raw string) bool {
	return strings.HasPrefix(raw, "data:") || strings.Contains(raw, manifestBase64Marker)
}

// baseOrigin extracts scheme://host from base, or "" when base is unusable.
func baseOrigin(base string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
