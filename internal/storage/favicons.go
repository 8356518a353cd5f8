package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/moz-infra/toppicks-crawler/internal/favicon"
)

// Extension chosen from the reported content type. Types outside the map get
// a generic extension; the bytes are still served with their original
// content type.
var contentTypeExtensions = map[string]string{
	"image/x-icon":              ".ico",
	"image/vnd.microsoft.icon":  ".ico",
	"image/png":                 ".png",
	"image/jpeg":                ".jpeg",
	"image/jpg":                 ".jpeg",
	"image/gif":                 ".gif",
	"image/webp":                ".webp",
	"image/apng":                ".png",
	"image/svg+xml":             ".svg",
	"image/bmp":                 ".bmp",
	"image/avif":                ".avif",
	"image/tiff":                ".tiff",
	"image/vnd.microsoft.image": ".ico",
}

const genericExtension = ".oct"

// FaviconUploader adapts an ObjectStore to the favicon pipeline's Uploader
// contract, handling content-addressed naming.
type FaviconUploader struct {
	store  ObjectStore
	prefix string
}

// NewFaviconUploader builds an uploader writing under prefix (e.g.
// "favicons").
func NewFaviconUploader(store ObjectStore, prefix string) *FaviconUploader {
	if prefix == "" {
		prefix = "favicons"
	}
	return &FaviconUploader{store: store, prefix: strings.Trim(prefix, "/")}
}

// DestinationName derives a deterministic object name from the image bytes,
// so identical favicons shared by many domains are stored once.
func (u *FaviconUploader) DestinationName(img *favicon.Image) string {
	sum := sha256.Sum256(img.Content)
	name := fmt.Sprintf("%s_%d%s", hex.EncodeToString(sum[:]), len(img.Content), extensionFor(img.ContentType))
	return path.Join(u.prefix, name)
}

// UploadImage stores the favicon bytes and returns the public URL.
func (u *FaviconUploader) UploadImage(ctx context.Context, img *favicon.Image, name string, forced bool) (string, error) {
	url, err := u.store.Upload(ctx, name, img.ContentType, img.Content, forced)
	if err != nil {
		return "", fmt.Errorf("upload favicon %s: %w", name, err)
	}
	return url, nil
}

func extensionFor(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ext, ok := contentTypeExtensions[ct]; ok {
		return ext
	}
	return genericExtension
}
