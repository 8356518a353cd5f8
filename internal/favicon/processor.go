package favicon

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Bitmap candidates are downloaded and compared in fixed-size batches to
// bound concurrent memory and connections.
const bitmapBatchSize = 5

// Uploader is the narrow storage contract the processor needs: name an
// image deterministically and store it, returning a public URL.
type Uploader interface {
	DestinationName(img *Image) string
	UploadImage(ctx context.Context, img *Image, name string, forced bool) (string, error)
}

// Processor applies the selection policy over a domain's candidates: SVG
// first (masked icons skipped), then bitmaps in batches with priority and
// size comparison, uploading the winner and falling back to the source URL
// when the upload fails.
type Processor struct {
	downloader *Downloader
	logger     *zap.Logger
}

// NewProcessor builds a Processor on top of the shared Downloader.
func NewProcessor(downloader *Downloader, logger *zap.Logger) *Processor {
	return &Processor{downloader: downloader, logger: logger}
}

// SelectAndUpload picks the best favicon among candidates and re-hosts it
// via the uploader. It returns the uploaded URL, the source URL when the
// upload failed, or "" when no candidate survives the minimum-width floor.
// It never returns an error: hostile or broken sites resolve to "".
func (p *Processor) SelectAndUpload(
	ctx context.Context,
	baseURL string,
	candidates []Candidate,
	minWidth int,
	uploader Uploader,
) string {
	usable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		href := NormalizeURL(c.Href, baseURL)
		if href == "" || !IsValidURL(href) || IsProblematicURL(href) {
			continue
		}
		c.Href = href
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		return ""
	}

	var svgs, bitmaps []Candidate
	for _, c := range usable {
		if strings.HasSuffix(strings.ToLower(c.Href), ".svg") {
			svgs = append(svgs, c)
		} else {
			bitmaps = append(bitmaps, c)
		}
	}

	// Vector icons win outright over any bitmap regardless of resolution.
	if url := p.processSVGs(ctx, svgs, uploader); url != "" {
		TotalSVGSelected.Inc()
		return url
	}

	return p.processBitmaps(ctx, bitmaps, minWidth, uploader)
}

// processSVGs downloads the SVG candidates and returns the first usable one,
// uploaded. Masked icons and downloads whose content type is not SVG are
// skipped. An upload failure falls back to the source URL rather than
// continuing to the bitmap phase.
func (p *Processor) processSVGs(ctx context.Context, svgs []Candidate, uploader Uploader) string {
	if len(svgs) == 0 {
		return ""
	}

	urls := make([]string, len(svgs))
	for i, c := range svgs {
		urls[i] = c.Href
	}

	for i, img := range p.downloader.DownloadAll(ctx, urls) {
		if img == nil || svgs[i].Masked || !img.IsSVG() {
			continue
		}
		uploaded, err := uploader.UploadImage(ctx, img, uploader.DestinationName(img), false)
		if err != nil {
			TotalUploadFallbacks.Inc()
			p.logger.Warn("svg favicon upload failed, using origin URL",
				zap.String("url", svgs[i].Href), zap.Error(err))
			return svgs[i].Href
		}
		TotalUploads.Inc()
		return uploaded
	}
	return ""
}

// processBitmaps walks the bitmap candidates batch by batch, keeping a
// monotonically improving best by source priority then width, and returns
// the winner if it clears minWidth.
func (p *Processor) processBitmaps(ctx context.Context, bitmaps []Candidate, minWidth int, uploader Uploader) string {
	bestURL := ""
	bestWidth := 0
	bestSource := SourceDefault

	for start := 0; start < len(bitmaps); start += bitmapBatchSize {
		end := start + bitmapBatchSize
		if end > len(bitmaps) {
			end = len(bitmaps)
		}
		batch := bitmaps[start:end]

		urls := make([]string, len(batch))
		for i, c := range batch {
			urls[i] = c.Href
		}

		for i, img := range p.downloader.DownloadAll(ctx, urls) {
			if img == nil || !img.IsImage() {
				continue
			}
			w, h, ok := img.Dimensions()
			if !ok {
				continue
			}
			width := minEdge(w, h)
			if bestURL != "" && !IsBetter(batch[i].Source, width, bestWidth, bestSource) {
				continue
			}

			uploaded, err := uploader.UploadImage(ctx, img, uploader.DestinationName(img), false)
			if err != nil {
				// Keep the origin URL as the running best so a genuinely
				// better later candidate can still displace it.
				TotalUploadFallbacks.Inc()
				p.logger.Warn("bitmap favicon upload failed, using origin URL",
					zap.String("url", batch[i].Href), zap.Error(err))
				uploaded = batch[i].Href
			} else {
				TotalUploads.Inc()
			}

			bestURL = uploaded
			bestWidth = width
			bestSource = batch[i].Source
		}
	}

	if bestWidth < minWidth {
		return ""
	}
	return bestURL
}
