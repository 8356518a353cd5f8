package favicon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalDownloads tracks favicon download attempts.
	TotalDownloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toppicks_favicon_downloads_total",
		Help: "The total number of favicon download attempts.",
	})
	// TotalDownloadErrors tracks downloads that failed or returned non-200.
	TotalDownloadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toppicks_favicon_download_errors_total",
		Help: "The total number of failed favicon downloads.",
	})
	// TotalUploads tracks favicons uploaded to the CDN bucket.
	TotalUploads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toppicks_favicon_uploads_total",
		Help: "The total number of favicons uploaded to storage.",
	})
	// TotalUploadFallbacks tracks upload failures that fell back to the
	// source URL.
	TotalUploadFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toppicks_favicon_upload_fallbacks_total",
		Help: "The total number of uploads that fell back to the origin URL.",
	})
	// TotalSVGSelected tracks domains where the SVG phase produced the icon.
	TotalSVGSelected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toppicks_favicon_svg_selected_total",
		Help: "The total number of domains resolved by an SVG favicon.",
	})
)
