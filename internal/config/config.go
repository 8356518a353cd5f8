// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server         ServerConfig      `mapstructure:"server"`
	Crawler        CrawlerConfig     `mapstructure:"crawler"`
	Favicons       FaviconConfig     `mapstructure:"favicons"`
	Headless       HeadlessConfig    `mapstructure:"headless"`
	Storage        StorageConfig     `mapstructure:"storage"`
	Report         ReportConfig      `mapstructure:"report"`
	PubSub         PubSubConfig      `mapstructure:"pubsub"`
	Logging        LoggingConfig     `mapstructure:"logging"`
	Blocklist      []string          `mapstructure:"blocklist"`
	CustomFavicons map[string]string `mapstructure:"custom_favicons"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs the per-domain pipeline.
type CrawlerConfig struct {
	DomainsFile    string `mapstructure:"domains_file"`
	DomainsPrefix  string `mapstructure:"domains_prefix"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Concurrency    int    `mapstructure:"concurrency"`
	ChunkSize      int    `mapstructure:"chunk_size"`
}

// FaviconConfig bounds favicon extraction and selection.
type FaviconConfig struct {
	MinWidth     int `mapstructure:"min_width"`
	MaxPerDomain int `mapstructure:"max_per_domain"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	MaxParallel   int     `mapstructure:"max_parallel"`
	NavTimeoutSec int     `mapstructure:"nav_timeout_seconds"`
	DomainQPS     float64 `mapstructure:"domain_qps"`
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	Provider      string `mapstructure:"provider"`
	GCSBucket     string `mapstructure:"gcs_bucket"`
	CDNHost       string `mapstructure:"cdn_host"`
	FaviconPrefix string `mapstructure:"favicon_prefix"`
}

// ReportConfig controls run-report persistence in Postgres.
type ReportConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	DSN           string `mapstructure:"dsn"`
	RunsTable     string `mapstructure:"runs_table"`
	OutcomesTable string `mapstructure:"outcomes_table"`
	MaxConns      int32  `mapstructure:"max_conns"`
	MinConns      int32  `mapstructure:"min_conns"`
}

// PubSubConfig holds metadata for run-completion notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOPPICKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawler.user_agent", "")
	v.SetDefault("crawler.timeout_seconds", 15)
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.chunk_size", 25)
	v.SetDefault("favicons.min_width", 32)
	v.SetDefault("favicons.max_per_domain", 5)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.domain_qps", 1.0)
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.favicon_prefix", "favicons")
	v.SetDefault("report.runs_table", "crawl_runs")
	v.SetDefault("report.outcomes_table", "domain_outcomes")
	v.SetDefault("pubsub.topic", "toppicks-run-completed")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.ChunkSize <= 0 {
		return fmt.Errorf("crawler.chunk_size must be > 0")
	}
	if c.Favicons.MinWidth < 0 {
		return fmt.Errorf("favicons.min_width must be >= 0")
	}
	if c.Favicons.MaxPerDomain <= 0 {
		return fmt.Errorf("favicons.max_per_domain must be > 0")
	}
	switch c.Storage.Provider {
	case "memory":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	default:
		return fmt.Errorf("storage.provider must be memory or gcs, got %q", c.Storage.Provider)
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Report.Enabled && c.Report.DSN == "" {
		return fmt.Errorf("report.dsn must be set when report is enabled")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.Topic == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic must be set when pubsub is enabled")
	}
	return nil
}

// RequestTimeout converts the crawler timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}
