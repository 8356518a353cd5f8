// Package report persists crawl run summaries and per-domain outcomes for
// later analysis.
package report

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moz-infra/toppicks-crawler/internal/domain"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Run is the summary row written once per crawl.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	DomainCount    int
	SuccessCount   int
	FailureCount   int
	ManifestObject string
	Published      bool
}

// Summarize fills a Run's counters from per-domain results.
func Summarize(run Run, results []domain.Result) Run {
	run.DomainCount = len(results)
	for _, res := range results {
		if res.FailureReason == "" {
			run.SuccessCount++
		} else {
			run.FailureCount++
		}
	}
	return run
}

// Store records crawl runs. Implementations must be safe for use after a
// failed call.
type Store interface {
	RecordRun(ctx context.Context, run Run) error
	RecordOutcomes(ctx context.Context, runID string, results []domain.Result) error
	Close()
}

// StoreConfig controls the Postgres connection pool used for run reports.
type StoreConfig struct {
	DSN             string
	RunsTable       string
	OutcomesTable   string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore writes run rows into Postgres.
type PostgresStore struct {
	pool          execCloser
	runsTable     string
	outcomesTable string
}

// NewPostgresStore creates a Postgres-backed Store using the provided config.
func NewPostgresStore(ctx context.Context, cfg StoreConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("report.dsn is required")
	}
	runsTable, outcomesTable, err := tableNames(cfg.RunsTable, cfg.OutcomesTable)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, runsTable: runsTable, outcomesTable: outcomesTable}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool execCloser, runsTable, outcomesTable string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	runs, outcomes, err := tableNames(runsTable, outcomesTable)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool, runsTable: runs, outcomesTable: outcomes}, nil
}

func tableNames(runs, outcomes string) (string, string, error) {
	if runs == "" {
		runs = "crawl_runs"
	}
	if outcomes == "" {
		outcomes = "domain_outcomes"
	}
	for _, table := range []string{runs, outcomes} {
		if !validTableName.MatchString(table) {
			return "", "", fmt.Errorf("invalid table name %q", table)
		}
	}
	return runs, outcomes, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordRun inserts the per-run summary row.
func (s *PostgresStore) RecordRun(ctx context.Context, run Run) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("report store is not configured")
	}
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	started_at,
	finished_at,
	domain_count,
	success_count,
	failure_count,
	manifest_object,
	published
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
)`, s.runsTable)

	args := []any{
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.DomainCount,
		run.SuccessCount,
		run.FailureCount,
		run.ManifestObject,
		run.Published,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordOutcomes inserts one row per processed domain.
func (s *PostgresStore) RecordOutcomes(ctx context.Context, runID string, results []domain.Result) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("report store is not configured")
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_id,
	domain,
	rank,
	title,
	url,
	icon,
	failure_reason
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`, s.outcomesTable)

	for _, res := range results {
		args := []any{
			runID,
			res.Domain,
			res.Rank,
			res.Title,
			res.URL,
			res.Icon,
			res.FailureReason,
		}
		if _, err := s.pool.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert outcome for %s: %w", res.Domain, err)
		}
	}
	return nil
}

// NoopStore discards everything. Used when run reporting is disabled.
type NoopStore struct{}

func (NoopStore) RecordRun(context.Context, Run) error { return nil }

func (NoopStore) RecordOutcomes(context.Context, string, []domain.Result) error { return nil }

func (NoopStore) Close() {}
