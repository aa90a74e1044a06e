// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jmrenard/cairn/internal/config"
	"github.com/jmrenard/cairn/internal/database"
	"github.com/jmrenard/cairn/internal/logging"
)

// Publisher sends messages to the queue.
type Publisher interface {
	Publish(topic string, msg *message.Message) error
}

// OutboxSource is the slice of the store the drainer needs.
type OutboxSource interface {
	DrainOutbox(ctx context.Context, limit int) ([]database.OutboxRow, error)
	DeleteOutbox(ctx context.Context, ids []int64) error
}

// OutboxDrainer publishes pending outbox rows to the queue. Rows are only
// deleted after a successful publish, so a crash replays them; the
// stream's duplicate window absorbs the replays.
type OutboxDrainer struct {
	source    OutboxSource
	publisher Publisher
	cfg       *config.SyncConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxDrainer wires a drainer.
func NewOutboxDrainer(source OutboxSource, publisher Publisher, cfg *config.SyncConfig) *OutboxDrainer {
	return &OutboxDrainer{source: source, publisher: publisher, cfg: cfg}
}

// Start launches the poll loop.
func (d *OutboxDrainer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.run(runCtx)
	return nil
}

// Stop cancels the poll loop and waits for it to finish.
func (d *OutboxDrainer) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

func (d *OutboxDrainer) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.OutboxInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DrainOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("Outbox drain failed")
			}
		}
	}
}

// DrainOnce publishes one batch of pending rows. Rows that published are
// deleted even when a later row in the batch fails, so nothing is sent
// more often than the failure forces.
func (d *OutboxDrainer) DrainOnce(ctx context.Context) error {
	rows, err := d.source.DrainOutbox(ctx, d.cfg.OutboxBatch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	published := make([]int64, 0, len(rows))
	var publishErr error
	for _, row := range rows {
		// The row id makes the message id deterministic, so a replay
		// after a crash lands inside the stream's duplicate window.
		msg := message.NewMessage(fmt.Sprintf("outbox-%d", row.ID), []byte(row.Payload))
		if err := d.publisher.Publish(row.Subject, msg); err != nil {
			publishErr = err
			break
		}
		published = append(published, row.ID)
	}

	if len(published) > 0 {
		if err := d.source.DeleteOutbox(ctx, published); err != nil {
			return err
		}
	}
	return publishErr
}
