package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/moz-infra/toppicks-crawler/internal/favicon"
	"github.com/moz-infra/toppicks-crawler/internal/fetcher"
)

// Config tunes the per-domain pipeline.
type Config struct {
	// MinFaviconWidth is the smallest acceptable bitmap edge.
	MinFaviconWidth int
	// MaxFavicons caps candidates extracted per page.
	MaxFavicons int
	// ChunkSize bounds how many domains run between downloader resets.
	ChunkSize int
	// Concurrency bounds in-flight domains within a chunk.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.MinFaviconWidth <= 0 {
		c.MinFaviconWidth = 32
	}
	if c.MaxFavicons <= 0 {
		c.MaxFavicons = 5
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 25
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Processor runs the full per-domain pipeline and aggregates chunked runs.
type Processor struct {
	cfg        Config
	pages      fetcher.PageFetcher
	renderer   fetcher.Renderer
	shells     *fetcher.ShellDetector
	blocklist  *Blocklist
	custom     *CustomFavicons
	extractor  *favicon.Extractor
	favicons   *favicon.Processor
	downloader *favicon.Downloader
	uploader   favicon.Uploader
	logger     *zap.Logger
}

// NewProcessor wires the pipeline together. renderer and shells may be nil
// to disable headless promotion.
func NewProcessor(
	cfg Config,
	pages fetcher.PageFetcher,
	renderer fetcher.Renderer,
	shells *fetcher.ShellDetector,
	blocklist *Blocklist,
	custom *CustomFavicons,
	extractor *favicon.Extractor,
	favicons *favicon.Processor,
	downloader *favicon.Downloader,
	uploader favicon.Uploader,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		cfg:        cfg.withDefaults(),
		pages:      pages,
		renderer:   renderer,
		shells:     shells,
		blocklist:  blocklist,
		custom:     custom,
		extractor:  extractor,
		favicons:   favicons,
		downloader: downloader,
		uploader:   uploader,
		logger:     logger,
	}
}

// ProcessAll runs every record through the pipeline in fixed-size chunks,
// recycling the downloader's connection pool between chunks. Result order
// matches input order.
func (p *Processor) ProcessAll(ctx context.Context, records []Record) []Result {
	results := make([]Result, len(records))

	for start := 0; start < len(records); start += p.cfg.ChunkSize {
		end := start + p.cfg.ChunkSize
		if end > len(records) {
			end = len(records)
		}

		g, chunkCtx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Concurrency)
		for i := start; i < end; i++ {
			idx := i
			g.Go(func() error {
				results[idx] = p.ProcessDomain(chunkCtx, records[idx])
				return nil
			})
		}
		// Workers never return errors; Wait is just a barrier.
		_ = g.Wait()

		if end < len(records) {
			p.downloader.Reset()
		}
	}

	return results
}

// ProcessDomain resolves one domain to a manifest entry. All failures are
// reported through Result.FailureReason; this method never panics for
// hostile page content.
func (p *Processor) ProcessDomain(ctx context.Context, rec Record) Result {
	result := p.processDomain(ctx, rec)
	TotalDomainsProcessed.Inc()
	if result.FailureReason != "" {
		TotalDomainsFailed.WithLabelValues(result.FailureReason).Inc()
	}
	return result
}

func (p *Processor) processDomain(ctx context.Context, rec Record) Result {
	result := Result{
		Domain:     rec.Domain,
		Rank:       rec.Rank,
		Categories: rec.Categories,
		Source:     rec.Source,
	}
	secondLevel := rec.SecondLevelName()

	if p.blocklist.IsBlocked(rec) {
		result.FailureReason = ReasonBlocklisted
		return result
	}

	if curated, ok := p.custom.Lookup(secondLevel); ok {
		return p.processCurated(ctx, rec, curated, result)
	}

	page, reason := p.openPage(ctx, rec)
	if reason != "" {
		result.FailureReason = reason
		result.Title = FallbackTitle(secondLevel)
		return result
	}
	result.URL = pageOrigin(page)

	doc := p.parsePage(ctx, page)
	if doc != nil && IsBotChallenge(doc) {
		result.FailureReason = ReasonBotProtection
		result.Title = FallbackTitle(secondLevel)
		return result
	}

	result.Title = ExtractTitle(doc)
	if result.Title != "" {
		TotalTitlesExtracted.Inc()
	} else {
		result.Title = FallbackTitle(secondLevel)
	}

	candidates := p.extractor.Extract(ctx, doc, result.URL, p.cfg.MaxFavicons)
	result.Icon = p.favicons.SelectAndUpload(ctx, result.URL, candidates, p.cfg.MinFaviconWidth, p.uploader)
	if result.Icon == "" {
		result.FailureReason = ReasonNoFavicons
	}
	return result
}

// processCurated handles domains with a hand-picked favicon. The scrape
// pipeline is skipped for the icon; the page is still opened best-effort
// for the title.
func (p *Processor) processCurated(ctx context.Context, rec Record, curated string, result Result) Result {
	secondLevel := rec.SecondLevelName()

	if p.custom.IsCDNHosted(curated) {
		result.Icon = curated
	} else if img := p.downloader.DownloadOne(ctx, curated); img != nil {
		uploaded, err := p.uploader.UploadImage(ctx, img, p.uploader.DestinationName(img), false)
		if err != nil {
			p.logger.Warn("curated favicon upload failed, using origin URL",
				zap.String("domain", rec.Domain), zap.Error(err))
			uploaded = curated
		}
		result.Icon = uploaded
	} else {
		result.Icon = curated
	}

	result.URL = "https://" + rec.Domain
	result.Title = FallbackTitle(secondLevel)
	if page, reason := p.openPage(ctx, rec); reason == "" {
		result.URL = pageOrigin(page)
		if doc := p.parsePage(ctx, page); doc != nil && !IsBotChallenge(doc) {
			if title := ExtractTitle(doc); title != "" {
				TotalTitlesExtracted.Inc()
				result.Title = title
			}
		}
	}
	return result
}

// openPage fetches the domain's landing page, retrying once with a www.
// prefix when the bare domain fails or redirects off-domain. The returned
// reason is "" on success.
func (p *Processor) openPage(ctx context.Context, rec Record) (fetcher.Page, string) {
	secondLevel := rec.SecondLevelName()

	page, err := p.pages.Fetch(ctx, "https://"+rec.Domain)
	if err == nil && onDomain(page.FinalURL, secondLevel) {
		return page, ""
	}

	wwwPage, wwwErr := p.pages.Fetch(ctx, "https://www."+rec.Domain)
	if wwwErr == nil && onDomain(wwwPage.FinalURL, secondLevel) {
		return wwwPage, ""
	}

	if err == nil && wwwErr == nil {
		// Both fetches worked but neither stayed on the domain.
		return fetcher.Page{}, ReasonUnreachable
	}
	if err == nil {
		err = wwwErr
	}
	return fetcher.Page{}, fetchFailureReason(err)
}

// parsePage builds a goquery document, promoting through the headless
// renderer when the fast path returned a JS shell. Parsing failures yield a
// nil document, which downstream steps treat as an empty page.
func (p *Processor) parsePage(ctx context.Context, page fetcher.Page) *goquery.Document {
	if p.renderer != nil && p.shells.NeedsJS(page) {
		rendered, err := p.renderer.Render(ctx, page.FinalURL)
		if err != nil {
			p.logger.Debug("headless promotion failed",
				zap.String("url", page.FinalURL), zap.Error(err))
		} else {
			page = rendered
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}
	return doc
}

func onDomain(finalURL, secondLevel string) bool {
	if finalURL == "" {
		return false
	}
	u, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Hostname()), strings.ToLower(secondLevel))
}

func pageOrigin(page fetcher.Page) string {
	u, err := url.Parse(page.FinalURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return page.FinalURL
	}
	return u.Scheme + "://" + u.Host
}

// fetchFailureReason maps a fetch error to a machine-readable reason like
// "http_403_forbidden".
func fetchFailureReason(err error) string {
	var fe *fetcher.FetchError
	if errors.As(err, &fe) && fe.StatusCode > 0 {
		slug := strings.ToLower(strings.ReplaceAll(http.StatusText(fe.StatusCode), " ", "_"))
		if slug == "" {
			slug = "error"
		}
		return fmt.Sprintf("http_%d_%s", fe.StatusCode, slug)
	}
	return ReasonUnreachable
}
