// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package config loads the layered application configuration: built-in
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Index    IndexConfig    `koanf:"index"`
	NATS     NATSConfig     `koanf:"nats"`
	Sync     SyncConfig     `koanf:"sync"`
	Views    ViewsConfig    `koanf:"views"`
	Server   ServerConfig   `koanf:"server"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig configures the DuckDB source-of-truth store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// IndexConfig configures the on-disk bleve indexes.
type IndexConfig struct {
	Dir       string `koanf:"dir" validate:"required"`
	Prefix    string `koanf:"prefix" validate:"required"`
	BatchSize int    `koanf:"batch_size" validate:"gt=0"`
}

// NATSConfig configures the JetStream message queue.
type NATSConfig struct {
	URL            string        `koanf:"url" validate:"required"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	StreamName     string        `koanf:"stream_name" validate:"required"`
	SyncSubject    string        `koanf:"sync_subject" validate:"required"`
	ViewsSubject   string        `koanf:"views_subject" validate:"required"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	AckWait        time.Duration `koanf:"ack_wait"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
}

// SyncConfig configures the search synchronization consumer.
type SyncConfig struct {
	// PollTimeout is how often the consumer wakes up without traffic, to
	// report watermark age. A liveness knob, not a correctness one.
	PollTimeout time.Duration `koanf:"poll_timeout" validate:"gt=0"`

	// DrainWindow is how long the consumer keeps absorbing additional
	// notifications after the first one before starting a pass.
	DrainWindow time.Duration `koanf:"drain_window"`

	// OutboxInterval is the poll interval of the outbox publisher.
	OutboxInterval time.Duration `koanf:"outbox_interval" validate:"gt=0"`

	// OutboxBatch bounds how many outbox rows are drained per poll.
	OutboxBatch int `koanf:"outbox_batch" validate:"gt=0"`
}

// ViewsConfig configures the view-count aggregator.
type ViewsConfig struct {
	// FlushInterval is the pacing of aggregation passes.
	FlushInterval time.Duration `koanf:"flush_interval" validate:"gt=0"`

	// ChunkSize bounds the VALUES list of one bulk update statement.
	ChunkSize int `koanf:"chunk_size" validate:"gt=0"`

	// ChunkPause is the fixed pause between chunks when a pass needs more
	// than one, so the aggregator does not monopolize the writer.
	ChunkPause time.Duration `koanf:"chunk_pause"`
}

// ServerConfig configures the HTTP search surface.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gt=0,lte=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// APIConfig bounds search pagination and per-client request rates.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size" validate:"gt=0"`
	MaxPageSize     int `koanf:"max_page_size" validate:"gt=0"`

	// RateLimit is the per-IP request budget per RateLimitWindow.
	RateLimit       int           `koanf:"rate_limit" validate:"gt=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	// AllowedOrigins is the CORS origin allowlist for browser clients.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, overridden by file and env.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/cairn.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Index: IndexConfig{
			Dir:       "/data/index",
			Prefix:    "cairn",
			BatchSize: 1000,
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			MaxMemory:      1 << 30,  // 1GB
			MaxStore:       10 << 30, // 10GB
			StreamName:     "CAIRN",
			SyncSubject:    "search.sync",
			ViewsSubject:   "views.increment",
			DurableName:    "cairn-workers",
			QueueGroup:     "workers",
			AckWait:        30 * time.Second,
			CloseTimeout:   30 * time.Second,
			MaxReconnects:  -1,
			ReconnectWait:  2 * time.Second,
		},
		Sync: SyncConfig{
			PollTimeout:    5 * time.Second,
			DrainWindow:    200 * time.Millisecond,
			OutboxInterval: time.Second,
			OutboxBatch:    500,
		},
		Views: ViewsConfig{
			FlushInterval: 30 * time.Second,
			ChunkSize:     500,
			ChunkPause:    500 * time.Millisecond,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    6543,
			Timeout: 30 * time.Second,
		},
		API: APIConfig{
			DefaultPageSize: 30,
			MaxPageSize:     100,
			RateLimit:       300,
			RateLimitWindow: time.Minute,
			AllowedOrigins:  []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks field constraints and cross-field consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be >= api.default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.NATS.SyncSubject == c.NATS.ViewsSubject {
		return fmt.Errorf("nats.sync_subject and nats.views_subject must differ")
	}
	return nil
}
