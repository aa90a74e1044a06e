// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package syncer projects changed documents from the database into the
// search indexes. Notifications only say "something changed"; the pass
// itself re-reads everything past the watermark, so the pipeline converges
// even when notifications are lost or duplicated.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jmrenard/cairn/internal/config"
	"github.com/jmrenard/cairn/internal/documents"
	"github.com/jmrenard/cairn/internal/index"
	"github.com/jmrenard/cairn/internal/logging"
	"github.com/jmrenard/cairn/internal/metrics"
	"github.com/jmrenard/cairn/internal/search"
)

// DocumentSource is the slice of the database store the syncer reads from.
type DocumentSource interface {
	LoadDocuments(ctx context.Context, typ documents.DocumentType) ([]*documents.Document, error)
	LoadDocumentsChangedSince(ctx context.Context, typ documents.DocumentType, since time.Time) ([]*documents.Document, error)
	GetLastSyncTime(ctx context.Context) (time.Time, error)
	SetLastSyncTime(ctx context.Context, t time.Time) error
}

// RecordWriter applies serialized records to the search indexes.
type RecordWriter interface {
	Apply(typ documents.DocumentType, records []*index.Record) (index.ApplyStats, error)
}

// Subscriber delivers sync notifications.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Manager consumes sync notifications and runs synchronization passes.
type Manager struct {
	source     DocumentSource
	writer     RecordWriter
	subscriber Subscriber
	registries search.Registries
	prefix     string
	topic      string
	cfg        *config.SyncConfig

	// syncMu serializes passes. A notification arriving while a pass runs
	// waits for it and then triggers a fresh pass.
	syncMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager wires a syncer. The registries decide which document fields
// are projected for each type.
func NewManager(source DocumentSource, writer RecordWriter, subscriber Subscriber,
	registries search.Registries, prefix, topic string, cfg *config.SyncConfig) *Manager {
	return &Manager{
		source:     source,
		writer:     writer,
		subscriber: subscriber,
		registries: registries,
		prefix:     prefix,
		topic:      topic,
		cfg:        cfg,
	}
}

// Start subscribes to the sync topic and launches the consume loop.
func (m *Manager) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	msgs, err := m.subscriber.Subscribe(runCtx, m.topic)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to %s: %w", m.topic, err)
	}

	m.wg.Add(1)
	go m.run(runCtx, msgs)
	return nil
}

// Stop cancels the consume loop and waits for an in-flight pass to finish.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, msgs <-chan *message.Message) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.PollTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.reportWatermarkAge(ctx)
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			// Notifications are acked on receipt. A pass failure leaves
			// the watermark behind, so the next notification or rebuild
			// picks the same documents up again.
			msg.Ack()
			m.drain(ctx, msgs)
			if err := m.RunPass(ctx); err != nil {
				logging.Error().Err(err).Msg("Sync pass failed")
			}
		}
	}
}

// drain absorbs notifications that arrive shortly after the first one, so
// a burst of writes triggers one pass instead of one per write.
func (m *Manager) drain(ctx context.Context, msgs <-chan *message.Message) {
	if m.cfg.DrainWindow <= 0 {
		return
	}
	deadline := time.NewTimer(m.cfg.DrainWindow)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			msg.Ack()
			metrics.SyncNotificationsCoalesced.Inc()
		}
	}
}

// RunPass synchronizes every document type changed since the watermark.
// The watermark advances to the pass start time, and only when every type
// succeeded; a partial failure leaves it untouched so nothing is skipped.
func (m *Manager) RunPass(ctx context.Context) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	passStart := time.Now()
	watermark, err := m.source.GetLastSyncTime(ctx)
	if err != nil {
		return err
	}

	timer := time.Now()
	var total int
	for typ := range m.registries {
		docs, err := m.source.LoadDocumentsChangedSince(ctx, typ, watermark)
		if err != nil {
			metrics.SyncPassesTotal.WithLabelValues("incremental", "error").Inc()
			return fmt.Errorf("load changed %s documents: %w", typ, err)
		}
		n, err := m.applyDocuments(typ, docs)
		if err != nil {
			metrics.SyncPassesTotal.WithLabelValues("incremental", "error").Inc()
			return err
		}
		total += n
	}

	if err := m.source.SetLastSyncTime(ctx, passStart); err != nil {
		metrics.SyncPassesTotal.WithLabelValues("incremental", "error").Inc()
		return err
	}

	metrics.SyncPassesTotal.WithLabelValues("incremental", "ok").Inc()
	metrics.SyncPassDuration.WithLabelValues("incremental").Observe(time.Since(timer).Seconds())
	logging.Info().
		Int("documents", total).
		Dur("took", time.Since(timer)).
		Time("watermark", passStart).
		Msg("Sync pass completed")
	return nil
}

// FullRebuild re-indexes every document of every type, ignoring the
// watermark. Records are idempotent upserts, so rebuilding over a live
// index leaves no duplicates.
func (m *Manager) FullRebuild(ctx context.Context) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	passStart := time.Now()
	timer := time.Now()
	var total int
	for typ := range m.registries {
		docs, err := m.source.LoadDocuments(ctx, typ)
		if err != nil {
			metrics.SyncPassesTotal.WithLabelValues("rebuild", "error").Inc()
			return fmt.Errorf("load %s documents: %w", typ, err)
		}
		n, err := m.applyDocuments(typ, docs)
		if err != nil {
			metrics.SyncPassesTotal.WithLabelValues("rebuild", "error").Inc()
			return err
		}
		total += n
	}

	if err := m.source.SetLastSyncTime(ctx, passStart); err != nil {
		metrics.SyncPassesTotal.WithLabelValues("rebuild", "error").Inc()
		return err
	}

	metrics.SyncPassesTotal.WithLabelValues("rebuild", "ok").Inc()
	metrics.SyncPassDuration.WithLabelValues("rebuild").Observe(time.Since(timer).Seconds())
	logging.Info().
		Int("documents", total).
		Dur("took", time.Since(timer)).
		Msg("Full rebuild completed")
	return nil
}

func (m *Manager) applyDocuments(typ documents.DocumentType, docs []*documents.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	registry := m.registries[typ]
	records := make([]*index.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, index.ToRecord(doc, m.prefix, registry))
	}

	if _, err := m.writer.Apply(typ, records); err != nil {
		return 0, fmt.Errorf("apply %s records: %w", typ, err)
	}
	return len(docs), nil
}

func (m *Manager) reportWatermarkAge(ctx context.Context) {
	watermark, err := m.source.GetLastSyncTime(ctx)
	if err != nil {
		return
	}
	metrics.WatermarkAge.Set(time.Since(watermark).Seconds())
}
