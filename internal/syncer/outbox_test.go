// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jmrenard/cairn/internal/config"
	"github.com/jmrenard/cairn/internal/database"
)

type fakeOutbox struct {
	rows []database.OutboxRow
}

func (f *fakeOutbox) DrainOutbox(_ context.Context, limit int) ([]database.OutboxRow, error) {
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

func (f *fakeOutbox) DeleteOutbox(_ context.Context, ids []int64) error {
	deleted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		deleted[id] = struct{}{}
	}
	kept := f.rows[:0]
	for _, r := range f.rows {
		if _, ok := deleted[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

type fakePublisher struct {
	published []*message.Message
	topics    []string
	failAfter int
}

func (f *fakePublisher) Publish(topic string, msg *message.Message) error {
	if f.failAfter >= 0 && len(f.published) >= f.failAfter {
		return errors.New("nats unavailable")
	}
	f.published = append(f.published, msg)
	f.topics = append(f.topics, topic)
	return nil
}

func outboxRow(id int64, payload string) database.OutboxRow {
	return database.OutboxRow{ID: id, Subject: "search.sync", Payload: payload, CreatedAt: time.Now()}
}

func drainerConfig() *config.SyncConfig {
	return &config.SyncConfig{OutboxInterval: time.Hour, OutboxBatch: 100}
}

func TestDrainOncePublishesAndDeletes(t *testing.T) {
	source := &fakeOutbox{rows: []database.OutboxRow{
		outboxRow(1, `{"doc_type":"r"}`),
		outboxRow(2, `{"doc_type":"w"}`),
	}}
	pub := &fakePublisher{failAfter: -1}
	d := NewOutboxDrainer(source, pub, drainerConfig())

	if err := d.DrainOnce(context.Background()); err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if len(pub.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.published))
	}
	if pub.topics[0] != "search.sync" {
		t.Errorf("topic = %q", pub.topics[0])
	}
	if string(pub.published[0].Payload) != `{"doc_type":"r"}` {
		t.Errorf("payload = %s", pub.published[0].Payload)
	}
	// Message ids derive from row ids so stream dedup can absorb replays.
	if pub.published[0].UUID != "outbox-1" || pub.published[1].UUID != "outbox-2" {
		t.Errorf("uuids = %q %q, want outbox-1 outbox-2", pub.published[0].UUID, pub.published[1].UUID)
	}
	if len(source.rows) != 0 {
		t.Errorf("%d rows left, want all deleted after publish", len(source.rows))
	}
}

func TestDrainOncePartialFailure(t *testing.T) {
	source := &fakeOutbox{rows: []database.OutboxRow{
		outboxRow(1, `{"doc_type":"r"}`),
		outboxRow(2, `{"doc_type":"w"}`),
		outboxRow(3, `{"doc_type":"o"}`),
	}}
	pub := &fakePublisher{failAfter: 1}
	d := NewOutboxDrainer(source, pub, drainerConfig())

	if err := d.DrainOnce(context.Background()); err == nil {
		t.Fatal("expected the failed publish to surface")
	}
	if len(pub.published) != 1 {
		t.Errorf("published %d messages, want 1 before the failure", len(pub.published))
	}
	// The published row is gone, the rest stay for the next drain.
	if len(source.rows) != 2 || source.rows[0].ID != 2 || source.rows[1].ID != 3 {
		t.Errorf("remaining rows = %v, want ids [2 3]", source.rows)
	}
}

func TestDrainOnceEmptyOutbox(t *testing.T) {
	source := &fakeOutbox{}
	pub := &fakePublisher{failAfter: -1}
	d := NewOutboxDrainer(source, pub, drainerConfig())

	if err := d.DrainOnce(context.Background()); err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d messages, want 0", len(pub.published))
	}
}
