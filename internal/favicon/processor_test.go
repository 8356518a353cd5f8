package favicon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeUploader implements Uploader in memory, optionally failing every
// upload to exercise the source-URL fallback path.
type fakeUploader struct {
	mu       sync.Mutex
	fail     bool
	uploaded []string
}

func (f *fakeUploader) DestinationName(img *Image) string {
	return fmt.Sprintf("favicons/%d.img", len(img.Content))
}

func (f *fakeUploader) UploadImage(_ context.Context, _ *Image, name string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	f.uploaded = append(f.uploaded, name)
	return "https://cdn.test/" + name, nil
}

func testProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor(NewDownloader(2*time.Second, "", zap.NewNop()), zap.NewNop())
}

// faviconServer serves PNG favicons of a given square size and SVGs.
func faviconServer(t *testing.T, pngs map[string]int, svgs map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, size := range pngs {
		body := pngBytes(t, size, size)
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(body)
		})
	}
	for path, ok := range svgs {
		served := ok
		mux.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
			if served {
				w.Header().Set("Content-Type", "image/svg+xml")
			} else {
				w.Header().Set("Content-Type", "text/plain")
			}
			_, _ = w.Write([]byte("<svg/>"))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSelectAndUpload(t *testing.T) {
	t.Parallel()

	t.Run("single bitmap above floor is uploaded", func(t *testing.T) {
		srv := faviconServer(t, map[string]int{"/f.ico": 32}, nil)
		up := &fakeUploader{}

		got := testProcessor(t).SelectAndUpload(context.Background(), srv.URL,
			[]Candidate{{Href: "/f.ico", Source: SourceLink, Sizes: "32x32"}}, 16, up)

		require.Contains(t, got, "https://cdn.test/favicons/")
		require.Len(t, up.uploaded, 1)
	})

	t.Run("svg wins over larger bitmap", func(t *testing.T) {
		srv := faviconServer(t, map[string]int{"/big.png": 512}, map[string]bool{"/icon.svg": true})
		up := &fakeUploader{}

		got := testProcessor(t).SelectAndUpload(context.Background(), srv.URL,
			[]Candidate{
				{Href: "/big.png", Source: SourceLink},
				{Href: "/icon.svg", Source: SourceLink},
			}, 16, up)

		require.Contains(t, got, "https://cdn.test/")
		// Only the SVG was uploaded; the bitmap phase never ran.
		require.Len(t, up.uploaded, 1)
		require.Equal(t, "favicons/6.img", up.uploaded[0])
	})

	t.Run("masked svg only yields empty", func(t *testing.T) {
		srv := faviconServer(t, nil, map[string]bool{"/mask.svg": true})
		up := &fakeUploader{}

		got := testProcessor(t).SelectAndUpload(context.Background(), srv.URL,
			[]Candidate{{Href: "/mask.svg", Source: SourceLink, Masked: true}}, 0, up)

		require.Empty(t, got)
		require.Empty(t, up.uploaded)
	})

	t.Run("svg with wrong content type falls through to bitmaps", func(t *testing.T) {
		srv := faviconServer(t, map[string]int{"/f.png": 32}, map[string]bool{"/fake.svg": false})
		up := &fakeUploader{}

		got := testProcessor(t).SelectAndUpload(context.Background(), srv.URL,
			[]Candidate{
				{Href: "/fake.svg", Source: SourceLink},
				{Href: "/f.png", Source: SourceLink},
			}, 16, up)

		require.Contains(t, got, "https://cdn.test/")
	})

	t.Run("upload failure falls back to source URL", func(t *testing.T) {
		srv := faviconServer(t, map[string]int{"/f.ico": 64}, nil)
		up := &fakeUploader{fail: true}

		got := testProcessor(t).SelectAndUpload(context.Background(), srv.URL,
			[]Candidate{{Href: "/f.ico", Source: SourceLink}}, 16, up)

		require.Equal(t, srv.URL+"/f.ico", got)
	})

	t.Run("svg upload failure falls back to svg source URL", func(t *testing.T) {
		srv := faviconServer(t, map[string]int{"/big.png": 512}, map[string]bool{"/icon.svg": true})
		up := &fakeUploader{fail: true}

		got := testProcessor(t).SelectAndUpload(context.Background(), srv.URL,
			[]Candidate{
				{Href: "/icon.svg", Source: SourceLink},
				{Href: "/big.png", Source: SourceLink},
			}, 16, up)

		require.Equal(t, srv.URL+"/icon.svg", got)
	})

	t.Run("below min width yields empty", func(t *testing.T) {
		srv := faviconServer(t, map[string]int{"/tiny.png": 8}, nil)
		up := &fakeUploader{}

		got := testProcessor(t).SelectAndUpload(context.Background(), srv.URL,
			[]Candidate{{Href: "/tiny.png", Source: SourceLink}}, 48, up)

		require.Empty(t, got)
	})

	t.Run("best of many bitmaps wins across batches", func(t *testing.T) {
		pngs := map[string]int{}
		cands := make([]Candidate, 0, 12)
		for i := 1; i <= 12; i++ {
			path := fmt.Sprintf("/f%d.png", i)
			pngs[path] = i * 8
			cands = append(cands, Candidate{Href: path, Source: SourceLink})
		}
		srv := faviconServer(t, pngs, nil)
		up := &fakeUploader{}

		got := testProcessor(t).SelectAndUpload(context.Background(), srv.URL, cands, 16, up)

		// The 96px icon is the largest; its upload name encodes its byte
		// length, so just check the winner came from the CDN.
		require.Contains(t, got, "https://cdn.test/")
		require.NotEmpty(t, up.uploaded)
	})

	t.Run("no usable candidates yields empty", func(t *testing.T) {
		up := &fakeUploader{}
		got := testProcessor(t).SelectAndUpload(context.Background(), "https://example.com",
			[]Candidate{{Href: "data:image/png;base64,AAAA", Source: SourceLink}}, 0, up)
		require.Empty(t, got)
	})
}
