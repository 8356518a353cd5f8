package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moz-infra/toppicks-crawler/internal/app"
	"github.com/moz-infra/toppicks-crawler/internal/domain"
	"github.com/moz-infra/toppicks-crawler/internal/favicon"
	"github.com/moz-infra/toppicks-crawler/internal/fetcher"
	"github.com/moz-infra/toppicks-crawler/internal/manifest"
	"github.com/moz-infra/toppicks-crawler/internal/publisher"
	"github.com/moz-infra/toppicks-crawler/internal/report"
)

// Pages below this size with none of these selectors present get promoted
// to the headless renderer.
const shellMinHTMLBytes = 2048

var shellSelectors = []string{"head title", "body *"}

func newRunCmd() *cobra.Command {
	var domainsFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Processes the domain list and publishes a new manifest",
		Long: `Runs the full pipeline: reads the ranked domain list, scrapes each
site's title and favicon, uploads icons to the object store, and
publishes a versioned top-picks manifest when the content changed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, domainsFile)
		},
	}
	cmd.Flags().StringVar(&domainsFile, "domains", "", "domain list JSON file (overrides crawler.domains_file)")
	return cmd
}

func runCrawl(cmd *cobra.Command, domainsFile string) error {
	ctx := cmd.Context()
	a, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	cfg := a.Config
	logger := a.Logger

	if domainsFile == "" {
		domainsFile = cfg.Crawler.DomainsFile
	}
	var source domain.Source
	switch {
	case domainsFile != "":
		source = domain.NewFileSource(domainsFile)
	case cfg.Crawler.DomainsPrefix != "":
		source = domain.NewObjectSource(a.Store, cfg.Crawler.DomainsPrefix)
	default:
		return errors.New("no domain list: set crawler.domains_file, crawler.domains_prefix, or pass --domains")
	}

	processor, renderer, err := buildPipeline(a)
	if err != nil {
		return err
	}
	if renderer != nil {
		defer func() {
			if cerr := renderer.Close(ctx); cerr != nil {
				logger.Warn("failed to close renderer", zap.Error(cerr))
			}
		}()
	}

	records, err := source.Records(ctx)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	startedAt := time.Now().UTC()
	logger.Info("crawl started",
		zap.String("run_id", runID), zap.Int("domains", len(records)))

	results := processor.ProcessAll(ctx, records)

	name, published, err := manifest.NewPublisher(a.Store, logger).Publish(ctx, manifest.Build(results))
	if err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}

	run := report.Summarize(report.Run{
		ID:             runID,
		StartedAt:      startedAt,
		FinishedAt:     time.Now().UTC(),
		ManifestObject: name,
		Published:      published,
	}, results)

	if err := a.Reports.RecordRun(ctx, run); err != nil {
		logger.Error("failed to record run", zap.Error(err))
	}
	if err := a.Reports.RecordOutcomes(ctx, runID, results); err != nil {
		logger.Error("failed to record outcomes", zap.Error(err))
	}

	event := publisher.RunCompleted{
		RunID:          runID,
		FinishedAt:     run.FinishedAt,
		DomainCount:    run.DomainCount,
		SuccessCount:   run.SuccessCount,
		FailureCount:   run.FailureCount,
		ManifestObject: name,
		Published:      published,
	}
	if _, err := a.Events.Publish(ctx, cfg.PubSub.Topic, event); err != nil {
		logger.Error("failed to publish run event", zap.Error(err))
	}

	logger.Info("crawl finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", run.SuccessCount),
		zap.Int("failed", run.FailureCount),
		zap.String("manifest", name),
		zap.Bool("published", published),
	)
	return nil
}

func buildPipeline(a *app.App) (*domain.Processor, fetcher.Renderer, error) {
	cfg := a.Config
	logger := a.Logger

	userAgent := cfg.Crawler.UserAgent
	if userAgent == "" {
		userAgent = favicon.DefaultUserAgent
	}
	timeout := cfg.RequestTimeout()

	pages, err := fetcher.NewCollyFetcher(fetcher.Config{
		UserAgent:      userAgent,
		RequestTimeout: timeout,
		Concurrency:    cfg.Crawler.Concurrency,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init page fetcher: %w", err)
	}

	renderer, err := buildRenderer(a, userAgent)
	if err != nil {
		return nil, nil, err
	}
	var shells *fetcher.ShellDetector
	if renderer != nil {
		shells = fetcher.NewShellDetector(shellMinHTMLBytes, shellSelectors)
	}

	scraper := favicon.NewScraper(timeout, userAgent, logger)
	downloader := favicon.NewDownloader(timeout, userAgent, logger)

	processor := domain.NewProcessor(
		domain.Config{
			MinFaviconWidth: cfg.Favicons.MinWidth,
			MaxFavicons:     cfg.Favicons.MaxPerDomain,
			ChunkSize:       cfg.Crawler.ChunkSize,
			Concurrency:     cfg.Crawler.Concurrency,
		},
		pages,
		renderer,
		shells,
		domain.NewBlocklist(cfg.Blocklist),
		domain.NewCustomFavicons(cfg.CustomFavicons, cfg.Storage.CDNHost),
		favicon.NewExtractor(scraper, logger),
		favicon.NewProcessor(downloader, logger),
		downloader,
		a.Uploader,
		logger,
	)
	return processor, renderer, nil
}

func buildRenderer(a *app.App, userAgent string) (fetcher.Renderer, error) {
	cfg := a.Config
	if !cfg.Headless.Enabled {
		return nil, nil
	}
	renderer, err := fetcher.NewChromedpRenderer(fetcher.HeadlessConfig{
		UserAgent:     userAgent,
		MaxConcurrent: cfg.Headless.MaxParallel,
		NavTimeout:    time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		DomainQPS:     cfg.Headless.DomainQPS,
	}, a.Logger)
	switch {
	case err == nil:
		return renderer, nil
	case errors.Is(err, fetcher.ErrRendererDisabled):
		a.Logger.Warn("renderer disabled despite headless.enabled, using fast path only")
		return nil, nil
	default:
		return nil, fmt.Errorf("init renderer: %w", err)
	}
}
