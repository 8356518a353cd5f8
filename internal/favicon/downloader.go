package favicon

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// Concurrent in-flight downloads shared across one Downloader instance.
	downloadParallelism = 5
	maxFaviconBytes     = 5 << 20
)

// Downloader fetches favicon bytes over HTTP. Downloads tolerate individual
// failures: a bad URL resolves to a nil slot instead of failing the batch.
// The connection pool is the only shared mutable state and can be recycled
// with Reset between large batches.
type Downloader struct {
	mu      sync.Mutex
	client  *http.Client
	headers http.Header
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
}

// NewDownloader builds a Downloader with a fresh connection pool.
func NewDownloader(timeout time.Duration, userAgent string, logger *zap.Logger) *Downloader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Downloader{
		client:  newFaviconClient(timeout),
		headers: RequestHeaders(userAgent),
		sem:     semaphore.NewWeighted(downloadParallelism),
		timeout: timeout,
		logger:  logger,
	}
}

func newFaviconClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        64,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// DownloadOne fetches a single favicon, following redirects. Any non-200
// status, timeout, or transport error yields nil.
func (d *Downloader) DownloadOne(ctx context.Context, rawURL string) *Image {
	TotalDownloads.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		TotalDownloadErrors.Inc()
		return nil
	}
	applyHeaders(req, d.headers)

	resp, err := d.httpClient().Do(req)
	if err != nil {
		TotalDownloadErrors.Inc()
		d.logger.Debug("favicon download failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		TotalDownloadErrors.Inc()
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFaviconBytes))
	if err != nil {
		TotalDownloadErrors.Inc()
		return nil
	}

	return &Image{
		Content:     body,
		ContentType: resp.Header.Get("Content-Type"),
	}
}

// DownloadAll fetches every URL concurrently, bounded by the download
// semaphore. The result slice pairs 1:1 with urls; failed downloads occupy
// their position as nil rather than aborting the batch.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string) []*Image {
	results := make([]*Image, len(urls))

	var wg sync.WaitGroup
	for i, u := range urls {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(idx int, target string) {
			defer wg.Done()
			defer d.sem.Release(1)
			results[idx] = d.DownloadOne(ctx, target)
		}(i, u)
	}
	wg.Wait()

	return results
}

// Reset discards the HTTP connection pool and builds a fresh one. Called
// between domain-processing chunks to bound accumulated connections on
// long-running jobs; never called while downloads are in flight.
func (d *Downloader) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if transport, ok := d.client.Transport.(*http.Transport); ok && transport != nil {
		transport.CloseIdleConnections()
	}
	d.client = newFaviconClient(d.timeout)
	d.logger.Debug("favicon downloader connection pool recycled")
}

func (d *Downloader) httpClient() *http.Client {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.client
}
