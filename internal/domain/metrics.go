package domain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TotalDomainsProcessed counts every record run through the pipeline.
	TotalDomainsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toppicks_domains_processed_total",
		Help: "Domains run through the per-domain pipeline.",
	})

	// TotalDomainsFailed counts failures by machine-readable reason.
	TotalDomainsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toppicks_domains_failed_total",
		Help: "Domains that produced a failure reason instead of a manifest entry.",
	}, []string{"reason"})

	// TotalTitlesExtracted counts titles scraped from pages, excluding
	// capitalized-name fallbacks.
	TotalTitlesExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toppicks_titles_extracted_total",
		Help: "Page titles successfully extracted and sanitized.",
	})
)
