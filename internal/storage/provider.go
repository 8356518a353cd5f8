// Package storage persists favicons and manifests to an object store and
// hands back public URLs.
package storage

import "context"

// ObjectStore is the narrow contract the pipeline needs from a bucket:
// store bytes under a name, answer with a public URL, and find the most
// recent object under a prefix.
type ObjectStore interface {
	// Upload stores data under name and returns its public URL. Unless
	// forced, an object that already exists is not re-written (favicon
	// names are content-addressed, so an existing object is already
	// correct).
	Upload(ctx context.Context, name, contentType string, data []byte, forced bool) (string, error)

	// LatestMatching returns the name and content of the most recently
	// updated object whose name starts with prefix.
	LatestMatching(ctx context.Context, prefix string) (string, []byte, error)
}
