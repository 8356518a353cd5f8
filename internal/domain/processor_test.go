package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moz-infra/toppicks-crawler/internal/favicon"
	"github.com/moz-infra/toppicks-crawler/internal/fetcher"
)

// stubFetcher serves canned pages and errors keyed by URL and records every
// fetch it sees.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]fetcher.Page
	errs  map[string]error
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) (fetcher.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, rawURL)
	s.mu.Unlock()
	if err, ok := s.errs[rawURL]; ok {
		return fetcher.Page{}, err
	}
	if page, ok := s.pages[rawURL]; ok {
		return page, nil
	}
	return fetcher.Page{}, &fetcher.FetchError{Err: errors.New("no route")}
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type captureUploader struct {
	mu       sync.Mutex
	fail     bool
	uploaded int
}

func (u *captureUploader) DestinationName(img *favicon.Image) string {
	return fmt.Sprintf("favicons/%d.img", len(img.Content))
}

func (u *captureUploader) UploadImage(_ context.Context, _ *favicon.Image, name string, _ bool) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return "", errors.New("bucket unavailable")
	}
	u.uploaded++
	return "https://cdn.test/" + name, nil
}

type processorFixture struct {
	fetcher  *stubFetcher
	uploader *captureUploader
	proc     *Processor
}

func newFixture(t *testing.T, cfg Config, blocklist *Blocklist, custom *CustomFavicons) *processorFixture {
	t.Helper()
	logger := zap.NewNop()
	stub := &stubFetcher{pages: map[string]fetcher.Page{}, errs: map[string]error{}}
	uploader := &captureUploader{}
	downloader := favicon.NewDownloader(2*time.Second, "", logger)
	scraper := favicon.NewScraper(2*time.Second, "", logger)
	proc := NewProcessor(
		cfg,
		stub,
		nil, nil,
		blocklist,
		custom,
		favicon.NewExtractor(scraper, logger),
		favicon.NewProcessor(downloader, logger),
		downloader,
		uploader,
		logger,
	)
	return &processorFixture{fetcher: stub, uploader: uploader, proc: proc}
}

func iconPageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 64))))
	icon := buf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/icon.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(icon)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// localRecord yields a record whose second-level name matches loopback
// hosts, so canned pages with httptest final URLs pass the redirect check.
func localRecord(rank int) Record {
	return Record{Domain: "127.0.0.1", Rank: rank, Source: "top-picks"}
}

func TestProcessDomainBlocklisted(t *testing.T) {
	fx := newFixture(t, Config{}, NewBlocklist([]string{"bad.com"}), nil)
	res := fx.proc.ProcessDomain(context.Background(), Record{Domain: "bad.com", Suffix: "com"})
	require.Equal(t, ReasonBlocklisted, res.FailureReason)
	require.Zero(t, fx.fetcher.callCount())
}

func TestProcessDomainCurated(t *testing.T) {
	t.Run("cdn hosted icon reused without upload", func(t *testing.T) {
		curated := "https://cdn.test/favicons/abc.png"
		custom := NewCustomFavicons(map[string]string{"example": curated}, "cdn.test")
		fx := newFixture(t, Config{}, nil, custom)

		res := fx.proc.ProcessDomain(context.Background(), Record{Domain: "example.com", Suffix: "com"})
		require.Equal(t, curated, res.Icon)
		require.Equal(t, "Example", res.Title)
		require.Equal(t, "https://example.com", res.URL)
		require.Empty(t, res.FailureReason)
		require.Zero(t, fx.uploader.uploaded)
	})

	t.Run("external icon downloaded and uploaded", func(t *testing.T) {
		srv := iconPageServer(t)
		custom := NewCustomFavicons(map[string]string{"example": srv.URL + "/icon.png"}, "cdn.test")
		fx := newFixture(t, Config{}, nil, custom)

		res := fx.proc.ProcessDomain(context.Background(), Record{Domain: "example.com", Suffix: "com"})
		require.Contains(t, res.Icon, "https://cdn.test/favicons/")
		require.Equal(t, 1, fx.uploader.uploaded)
	})
}

func TestProcessDomainFetchFailures(t *testing.T) {
	t.Run("http status maps to reason", func(t *testing.T) {
		fx := newFixture(t, Config{}, nil, nil)
		fx.fetcher.errs["https://example.com"] = &fetcher.FetchError{StatusCode: 403, Err: errors.New("forbidden")}
		fx.fetcher.errs["https://www.example.com"] = &fetcher.FetchError{StatusCode: 403, Err: errors.New("forbidden")}

		res := fx.proc.ProcessDomain(context.Background(), Record{Domain: "example.com", Suffix: "com"})
		require.Equal(t, "http_403_forbidden", res.FailureReason)
		require.Equal(t, "Example", res.Title)
	})

	t.Run("off domain redirect is unreachable", func(t *testing.T) {
		fx := newFixture(t, Config{}, nil, nil)
		parked := fetcher.Page{FinalURL: "https://parking-lot.test/", StatusCode: 200}
		fx.fetcher.pages["https://example.com"] = parked
		fx.fetcher.pages["https://www.example.com"] = parked

		res := fx.proc.ProcessDomain(context.Background(), Record{Domain: "example.com", Suffix: "com"})
		require.Equal(t, ReasonUnreachable, res.FailureReason)
	})
}

func TestProcessDomainBotChallenge(t *testing.T) {
	fx := newFixture(t, Config{}, nil, nil)
	fx.fetcher.pages["https://127.0.0.1"] = fetcher.Page{
		FinalURL:   "https://127.0.0.1/",
		StatusCode: 200,
		Body:       []byte(`<html><head><title>Just a moment...</title></head></html>`),
	}

	res := fx.proc.ProcessDomain(context.Background(), localRecord(1))
	require.Equal(t, ReasonBotProtection, res.FailureReason)
	require.Empty(t, res.Icon)
}

func TestProcessDomainSuccess(t *testing.T) {
	srv := iconPageServer(t)
	fx := newFixture(t, Config{MaxFavicons: 1}, nil, nil)
	fx.fetcher.pages["https://127.0.0.1"] = fetcher.Page{
		FinalURL:   srv.URL + "/",
		StatusCode: 200,
		Body: []byte(`<html><head>
			<title>Loopback Labs</title>
			<link rel="icon" href="` + srv.URL + `/icon.png">
		</head></html>`),
	}

	res := fx.proc.ProcessDomain(context.Background(), localRecord(1))
	require.Empty(t, res.FailureReason)
	require.Equal(t, "Loopback Labs", res.Title)
	require.Equal(t, srv.URL, res.URL)
	require.Contains(t, res.Icon, "https://cdn.test/favicons/")
	require.Equal(t, 1, fx.uploader.uploaded)
}

func TestProcessDomainWWWFallback(t *testing.T) {
	srv := iconPageServer(t)
	fx := newFixture(t, Config{MaxFavicons: 1}, nil, nil)
	fx.fetcher.errs["https://127.0.0.1"] = &fetcher.FetchError{Err: errors.New("refused")}
	fx.fetcher.pages["https://www.127.0.0.1"] = fetcher.Page{
		FinalURL:   srv.URL + "/",
		StatusCode: 200,
		Body: []byte(`<html><head>
			<title>Loopback Labs</title>
			<link rel="icon" href="` + srv.URL + `/icon.png">
		</head></html>`),
	}

	res := fx.proc.ProcessDomain(context.Background(), localRecord(1))
	require.Empty(t, res.FailureReason)
	require.Equal(t, "Loopback Labs", res.Title)
}

func TestProcessDomainNoFavicons(t *testing.T) {
	fx := newFixture(t, Config{}, nil, nil)
	// Page with a title but no icon markup. The default probe targets the
	// canned final URL, an httptest server that 404s everything.
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	fx.fetcher.pages["https://127.0.0.1"] = fetcher.Page{
		FinalURL:   srv.URL + "/",
		StatusCode: 200,
		Body:       []byte(`<html><head><title>Loopback Labs</title></head></html>`),
	}

	res := fx.proc.ProcessDomain(context.Background(), localRecord(1))
	require.Equal(t, ReasonNoFavicons, res.FailureReason)
	require.Equal(t, "Loopback Labs", res.Title)
	require.Equal(t, srv.URL, res.URL)
}

func TestProcessAll(t *testing.T) {
	block := NewBlocklist([]string{"a.com", "b.com", "c.com"})
	fx := newFixture(t, Config{ChunkSize: 2, Concurrency: 2}, block, nil)

	records := []Record{
		{Domain: "a.com", Suffix: "com", Rank: 1},
		{Domain: "b.com", Suffix: "com", Rank: 2},
		{Domain: "c.com", Suffix: "com", Rank: 3},
	}
	results := fx.proc.ProcessAll(context.Background(), records)
	require.Len(t, results, 3)
	for i, res := range results {
		require.Equal(t, records[i].Domain, res.Domain)
		require.Equal(t, ReasonBlocklisted, res.FailureReason)
	}
}
