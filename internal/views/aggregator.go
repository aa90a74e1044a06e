// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package views turns the stream of per-request view events into periodic
// bulk counter updates. Counts are best effort: a failed flush drops its
// chunk instead of retrying, so the aggregator can never wedge the writer.
package views

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/time/rate"

	"github.com/jmrenard/cairn/internal/config"
	"github.com/jmrenard/cairn/internal/eventprocessor"
	"github.com/jmrenard/cairn/internal/logging"
	"github.com/jmrenard/cairn/internal/metrics"
)

// ViewStore applies aggregated view count deltas.
type ViewStore interface {
	IncrementViews(ctx context.Context, counts map[int64]int64) (int64, error)
}

// Subscriber delivers view events.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Aggregator drains view events from the queue, counts them per document
// and flushes the counts in chunks on a fixed cadence.
type Aggregator struct {
	store      ViewStore
	subscriber Subscriber
	topic      string
	cfg        *config.ViewsConfig

	mu      sync.Mutex
	pending map[int64]int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAggregator wires an aggregator.
func NewAggregator(store ViewStore, subscriber Subscriber, topic string, cfg *config.ViewsConfig) *Aggregator {
	return &Aggregator{
		store:      store,
		subscriber: subscriber,
		topic:      topic,
		cfg:        cfg,
		pending:    make(map[int64]int64),
	}
}

// Start subscribes to the views topic and launches the drain and flush
// loops.
func (a *Aggregator) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	msgs, err := a.subscriber.Subscribe(runCtx, a.topic)
	if err != nil {
		cancel()
		return err
	}

	a.wg.Add(2)
	go a.drain(runCtx, msgs)
	go a.flushLoop(runCtx)
	return nil
}

// Stop cancels the loops, waits for them and flushes what is pending.
func (a *Aggregator) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a.Flush(ctx)
}

func (a *Aggregator) drain(ctx context.Context, msgs <-chan *message.Message) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			// View counting is at-most-once: the event is acked before
			// its count is durable. Losing a count on crash is fine,
			// double counting on redelivery would not be.
			msg.Ack()
			ev, err := eventprocessor.ParseViewEvent(msg)
			if err != nil {
				logging.Warn().Err(err).Str("uuid", msg.UUID).Msg("Dropping malformed view event")
				continue
			}
			a.mu.Lock()
			a.pending[ev.DocumentID]++
			a.mu.Unlock()
			metrics.ViewEventsDrained.Inc()
		}
	}
}

func (a *Aggregator) flushLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Flush(ctx)
		}
	}
}

// Flush writes the pending counts in chunks of at most ChunkSize ids,
// one transaction per chunk, paced so a large backlog does not
// monopolize the single writer connection. A failed chunk logs and drops
// its counts.
func (a *Aggregator) Flush(ctx context.Context) {
	a.mu.Lock()
	pending := a.pending
	a.pending = make(map[int64]int64)
	a.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	limiter := rate.NewLimiter(rate.Every(a.cfg.ChunkPause), 1)

	chunk := make(map[int64]int64, a.cfg.ChunkSize)
	flushChunk := func() {
		if len(chunk) == 0 {
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			metrics.ViewChunksFailed.Inc()
			logging.Warn().Err(err).Int("documents", len(chunk)).Msg("View flush interrupted, dropping chunk")
			chunk = make(map[int64]int64, a.cfg.ChunkSize)
			return
		}
		if _, err := a.store.IncrementViews(ctx, chunk); err != nil {
			metrics.ViewChunksFailed.Inc()
			logging.Warn().Err(err).Int("documents", len(chunk)).Msg("View flush failed, dropping chunk")
		} else {
			metrics.ViewChunksCommitted.Inc()
		}
		chunk = make(map[int64]int64, a.cfg.ChunkSize)
	}

	for id, n := range pending {
		chunk[id] = n
		if len(chunk) >= a.cfg.ChunkSize {
			flushChunk()
		}
	}
	flushChunk()
}
