// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package main is the entry point for the Cairn server.
//
// Cairn keeps a collaborative knowledge base of outdoor routes, waypoints,
// outings and related documents, and serves faceted full-text search over
// them. The database is the source of truth; the search indexes are a
// projection kept in sync through a JetStream queue.
//
// Startup order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML, CAIRN_* env)
//  2. Logging: zerolog with configured level and format
//  3. Database: DuckDB store, schema creation, sync watermark seed
//  4. Indexes: one bleve index per document type, created on first run
//  5. NATS: embedded JetStream server (or external URL), stream provisioning
//  6. Supervision: syncer, views aggregator, outbox drainer, HTTP server
//
// The --rebuild flag re-indexes every document before the server starts
// serving, then continues normally.
//
// Shutdown on SIGINT/SIGTERM is graceful: the HTTP server drains, workers
// finish their in-flight pass and pending view counts are flushed.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmrenard/cairn/internal/api"
	"github.com/jmrenard/cairn/internal/cache"
	"github.com/jmrenard/cairn/internal/config"
	"github.com/jmrenard/cairn/internal/database"
	"github.com/jmrenard/cairn/internal/eventprocessor"
	"github.com/jmrenard/cairn/internal/index"
	"github.com/jmrenard/cairn/internal/logging"
	"github.com/jmrenard/cairn/internal/search"
	"github.com/jmrenard/cairn/internal/supervisor"
	"github.com/jmrenard/cairn/internal/supervisor/services"
	"github.com/jmrenard/cairn/internal/syncer"
	"github.com/jmrenard/cairn/internal/views"
)

func main() {
	rebuild := flag.Bool("rebuild", false, "re-index every document before serving")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("index_dir", cfg.Index.Dir).
		Bool("embedded_nats", cfg.NATS.EmbeddedServer).
		Msg("Starting Cairn")

	registries, err := search.BuildAll()
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid field registry")
	}

	store, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	indexes, err := index.OpenIndexes(cfg.Index.Dir, cfg.Index.Prefix, registries)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open search indexes")
	}
	writer := index.NewWriter(indexes, cfg.Index.BatchSize)
	defer func() {
		if err := writer.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing indexes")
		}
	}()

	// Embedded NATS keeps single-instance deployments self-contained. The
	// configured URL is only used when the embedded server is disabled.
	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		embedded, err := eventprocessor.NewEmbeddedServer(&cfg.NATS)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
		}
		natsURL = embedded.ClientURL()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := embedded.Shutdown(shutdownCtx); err != nil {
				logging.Error().Err(err).Msg("Error stopping embedded NATS server")
			}
		}()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}
	natsCfg := cfg.NATS
	natsCfg.URL = natsURL

	initializer, err := eventprocessor.NewStreamInitializer(&natsCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	provisionCtx, cancelProvision := context.WithTimeout(context.Background(), 30*time.Second)
	err = initializer.EnsureStream(provisionCtx)
	cancelProvision()
	initializer.Close()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to provision JetStream stream")
	}

	wmLogger := eventprocessor.NewWatermillLogger()
	publisher, err := eventprocessor.NewPublisher(&natsCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing publisher")
		}
	}()

	subscriber, err := eventprocessor.NewSubscriber(&natsCfg, wmLogger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create subscriber")
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing subscriber")
		}
	}()

	syncManager := syncer.NewManager(store, writer, subscriber, registries,
		cfg.Index.Prefix, natsCfg.SyncSubject, &cfg.Sync)

	if *rebuild {
		logging.Info().Msg("Full rebuild requested")
		rebuildCtx, cancelRebuild := context.WithTimeout(context.Background(), 30*time.Minute)
		err := syncManager.FullRebuild(rebuildCtx)
		cancelRebuild()
		if err != nil {
			logging.Fatal().Err(err).Msg("Full rebuild failed")
		}
	}

	aggregator := views.NewAggregator(store, subscriber, natsCfg.ViewsSubject, &cfg.Views)
	drainer := syncer.NewOutboxDrainer(store, publisher, &cfg.Sync)

	builder := search.NewBuilder(registries, cfg.API.DefaultPageSize, cfg.API.MaxPageSize)
	titleCache := cache.NewLRU[api.DocSummary](10000, 5*time.Minute)
	handler := api.NewHandler(builder, indexes, store, titleCache, publisher, natsCfg.ViewsSubject)
	server := api.NewHTTPServer(&cfg.Server, api.NewRouter(handler, &cfg.API))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.Slog(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewWorkerService("sync-manager", syncManager))
	tree.AddMessagingService(services.NewWorkerService("views-aggregator", aggregator))
	tree.AddMessagingService(services.NewWorkerService("outbox-drainer", drainer))
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
