// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment overrides, e.g. CAIRN_SERVER_PORT.
const envPrefix = "CAIRN_"

// envMapping routes flat environment names to nested koanf keys. Only the
// entries listed here are honored; unknown CAIRN_* variables are ignored.
var envMapping = map[string]string{
	"DATABASE_PATH":         "database.path",
	"DATABASE_MAX_MEMORY":   "database.max_memory",
	"DATABASE_THREADS":      "database.threads",
	"INDEX_DIR":             "index.dir",
	"INDEX_PREFIX":          "index.prefix",
	"INDEX_BATCH_SIZE":      "index.batch_size",
	"NATS_URL":              "nats.url",
	"NATS_EMBEDDED_SERVER":  "nats.embedded_server",
	"NATS_STORE_DIR":        "nats.store_dir",
	"NATS_STREAM_NAME":      "nats.stream_name",
	"NATS_SYNC_SUBJECT":     "nats.sync_subject",
	"NATS_VIEWS_SUBJECT":    "nats.views_subject",
	"NATS_DURABLE_NAME":     "nats.durable_name",
	"NATS_QUEUE_GROUP":      "nats.queue_group",
	"NATS_ACK_WAIT":         "nats.ack_wait",
	"SYNC_POLL_TIMEOUT":     "sync.poll_timeout",
	"SYNC_DRAIN_WINDOW":     "sync.drain_window",
	"SYNC_OUTBOX_INTERVAL":  "sync.outbox_interval",
	"SYNC_OUTBOX_BATCH":     "sync.outbox_batch",
	"VIEWS_FLUSH_INTERVAL":  "views.flush_interval",
	"VIEWS_CHUNK_SIZE":      "views.chunk_size",
	"VIEWS_CHUNK_PAUSE":     "views.chunk_pause",
	"SERVER_HOST":           "server.host",
	"SERVER_PORT":           "server.port",
	"SERVER_TIMEOUT":        "server.timeout",
	"API_DEFAULT_PAGE_SIZE": "api.default_page_size",
	"API_MAX_PAGE_SIZE":     "api.max_page_size",
	"API_RATE_LIMIT":        "api.rate_limit",
	"API_RATE_LIMIT_WINDOW": "api.rate_limit_window",
	"API_ALLOWED_ORIGINS":   "api.allowed_origins",
	"LOG_LEVEL":             "logging.level",
	"LOG_FORMAT":            "logging.format",
	"LOG_CALLER":            "logging.caller",
}

// configSearchPaths are tried in order when CONFIG_PATH is unset.
var configSearchPaths = []string{
	"config.yaml",
	"config/config.yaml",
	"/etc/cairn/config.yaml",
}

// Load composes the configuration from defaults, an optional YAML file and
// CAIRN_* environment variables, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first readable config file, preferring an
// explicit CONFIG_PATH. An empty return means defaults plus env only.
func findConfigFile() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	for _, path := range configSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps CAIRN_SERVER_PORT style names to koanf keys. Names not
// present in envMapping resolve to an empty key and are dropped.
func envTransform(name string) string {
	return envMapping[strings.TrimPrefix(name, envPrefix)]
}
