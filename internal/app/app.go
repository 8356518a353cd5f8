// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"

	gpubsub "cloud.google.com/go/pubsub"
	gstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/moz-infra/toppicks-crawler/internal/config"
	"github.com/moz-infra/toppicks-crawler/internal/logging"
	"github.com/moz-infra/toppicks-crawler/internal/publisher"
	"github.com/moz-infra/toppicks-crawler/internal/publisher/memory"
	"github.com/moz-infra/toppicks-crawler/internal/publisher/pubsub"
	"github.com/moz-infra/toppicks-crawler/internal/report"
	"github.com/moz-infra/toppicks-crawler/internal/storage"
)

// App holds the shared, long-lived services for the crawler. It is built
// once at startup and injected into commands.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    storage.ObjectStore
	Uploader *storage.FaviconUploader
	Reports  report.Store
	Events   publisher.Publisher

	eventsCloser interface{ Close() error }
}

// New builds the service container from configuration. It fails fast when a
// configured backend cannot be reached.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	a := &App{Config: cfg, Logger: logger}

	switch cfg.Storage.Provider {
	case "gcs":
		logger.Info("using GCS object store", zap.String("bucket", cfg.Storage.GCSBucket))
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize gcs client: %w", err)
		}
		store, err := storage.NewGCSStore(ctx, client, storage.GCSConfig{
			Bucket:  cfg.Storage.GCSBucket,
			CDNHost: cfg.Storage.CDNHost,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize gcs store: %w", err)
		}
		a.Store = store
	case "memory":
		logger.Info("using in-memory object store, uploads will not persist")
		a.Store = storage.NewMemoryStore(cfg.Storage.CDNHost)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
	a.Uploader = storage.NewFaviconUploader(a.Store, cfg.Storage.FaviconPrefix)

	if cfg.Report.Enabled {
		logger.Info("connecting to Postgres for run reports")
		store, err := report.NewPostgresStore(ctx, report.StoreConfig{
			DSN:           cfg.Report.DSN,
			RunsTable:     cfg.Report.RunsTable,
			OutcomesTable: cfg.Report.OutcomesTable,
			MaxConns:      cfg.Report.MaxConns,
			MinConns:      cfg.Report.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize report store: %w", err)
		}
		a.Reports = store
	} else {
		logger.Info("run reporting disabled")
		a.Reports = report.NoopStore{}
	}

	if cfg.PubSub.Enabled {
		logger.Info("connecting to Pub/Sub", zap.String("topic", cfg.PubSub.Topic))
		client, err := gpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("initialize pubsub client: %w", err)
		}
		pub := pubsub.New(client)
		a.Events = pub
		a.eventsCloser = pub
	} else {
		logger.Info("pubsub disabled, run events stay in memory")
		a.Events = memory.New()
	}

	return a, nil
}

// Close gracefully shuts down all services in the container.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Reports != nil {
		a.Reports.Close()
	}
	if a.eventsCloser != nil {
		if err := a.eventsCloser.Close(); err != nil {
			a.Logger.Warn("error closing pubsub client", zap.Error(err))
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}
