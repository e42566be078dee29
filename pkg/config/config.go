package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:membrain.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Ingest struct {
		BatchSize  int           `yaml:"batch_size" json:"batch_size" jsonschema:"default=100,minimum=1,description=Items requested per collector batch"`
		MaxWorkers int           `yaml:"max_workers" json:"max_workers" jsonschema:"default=5,description=Concurrent transform workers per batch"`
		Interval   time.Duration `yaml:"interval" json:"interval" jsonschema:"description=Re-run interval; zero means run once and exit"`
	} `yaml:"ingest" json:"ingest" jsonschema:"description=Ingestion configuration"`

	Reddit RedditConfig `yaml:"reddit" json:"reddit" jsonschema:"description=Reddit collector configuration"`

	Feeds []FeedConfig `yaml:"feeds" json:"feeds" jsonschema:"description=RSS media feeds to collect from"`

	Fetch struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Artifact fetch timeout per item"`
		UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Membrain/1.0,description=User agent for artifact requests"`
	} `yaml:"fetch" json:"fetch" jsonschema:"description=Artifact fetching configuration"`

	Server struct {
		Enabled bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable status HTTP server"`
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Status server configuration"`
}

// RedditConfig holds reddit client and collector settings
type RedditConfig struct {
	ClientID     string   `yaml:"client_id" json:"client_id" jsonschema:"description=App client id; empty uses public JSON listings"`
	ClientSecret string   `yaml:"client_secret" json:"client_secret" jsonschema:"description=App client secret (can use environment variable)"`
	UserAgent    string   `yaml:"user_agent" json:"user_agent" jsonschema:"default=membrain/1.0,description=User agent for reddit requests"`
	Subreddit    string   `yaml:"subreddit" json:"subreddit" jsonschema:"default=memes,description=Subreddit to collect from"`
	Listings     []string `yaml:"listings" json:"listings" jsonschema:"description=Listing variants to run (hot, rising, top)"`
}

// FeedConfig holds one RSS media feed source
type FeedConfig struct {
	Name string `yaml:"name" json:"name" jsonschema:"required,description=Short source name used in logs"`
	URL  string `yaml:"url" json:"url" jsonschema:"required,description=Feed URL"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:membrain.db?cache=shared&mode=rwc"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 100
	}
	if cfg.Ingest.MaxWorkers == 0 {
		cfg.Ingest.MaxWorkers = 5
	}

	if cfg.Reddit.UserAgent == "" {
		cfg.Reddit.UserAgent = "membrain/1.0"
	}
	if cfg.Reddit.Subreddit == "" {
		cfg.Reddit.Subreddit = "memes"
	}
	if len(cfg.Reddit.Listings) == 0 {
		cfg.Reddit.Listings = []string{"hot", "rising", "top"}
	}

	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "Membrain/1.0"
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be at least 1")
	}
	if cfg.Ingest.Interval < 0 {
		return fmt.Errorf("ingest.interval must not be negative")
	}

	for _, listing := range cfg.Reddit.Listings {
		switch listing {
		case "hot", "rising", "top":
		default:
			return fmt.Errorf("unknown reddit listing %q", listing)
		}
	}

	for _, feed := range cfg.Feeds {
		if feed.Name == "" || feed.URL == "" {
			return fmt.Errorf("feeds entries need both name and url")
		}
	}

	if cfg.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch.timeout must be at least 1 second")
	}

	if cfg.Server.Enabled && cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server.timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
