// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package views

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jmrenard/cairn/internal/config"
	"github.com/jmrenard/cairn/internal/eventprocessor"
)

type fakeStore struct {
	mu    sync.Mutex
	calls []map[int64]int64
	fail  int
}

func (f *fakeStore) IncrementViews(_ context.Context, counts map[int64]int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return 0, errors.New("writer busy")
	}
	copied := make(map[int64]int64, len(counts))
	for id, n := range counts {
		copied[id] = n
	}
	f.calls = append(f.calls, copied)
	return int64(len(counts)), nil
}

func (f *fakeStore) totals() map[int64]int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]int64)
	for _, c := range f.calls {
		for id, n := range c {
			out[id] += n
		}
	}
	return out
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSubscriber struct {
	msgs chan *message.Message
}

func (f *fakeSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return f.msgs, nil
}

func testConfig(chunkSize int) *config.ViewsConfig {
	return &config.ViewsConfig{
		FlushInterval: time.Hour, // tests flush explicitly
		ChunkSize:     chunkSize,
		ChunkPause:    time.Millisecond,
	}
}

func sendAndAwaitAck(t *testing.T, msgs chan *message.Message, msg *message.Message) {
	t.Helper()
	msgs <- msg
	select {
	case <-msg.Acked():
	case <-time.After(5 * time.Second):
		t.Fatal("message was not acked")
	}
}

func TestAggregatorCountsEvents(t *testing.T) {
	store := &fakeStore{}
	sub := &fakeSubscriber{msgs: make(chan *message.Message)}
	agg := NewAggregator(store, sub, "views.increment", testConfig(100))

	if err := agg.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for _, id := range []int64{7, 7, 3, 7} {
		msg, err := eventprocessor.NewViewMessage(id)
		if err != nil {
			t.Fatalf("NewViewMessage: %v", err)
		}
		sendAndAwaitAck(t, sub.msgs, msg)
	}

	agg.Stop()

	totals := store.totals()
	if totals[7] != 3 || totals[3] != 1 {
		t.Errorf("totals = %v, want 7:3 3:1", totals)
	}
}

func TestAggregatorDropsMalformedEvents(t *testing.T) {
	store := &fakeStore{}
	sub := &fakeSubscriber{msgs: make(chan *message.Message)}
	agg := NewAggregator(store, sub, "views.increment", testConfig(100))

	if err := agg.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Malformed events are acked and dropped rather than redelivered forever.
	bad := message.NewMessage("bad-1", []byte("not json"))
	sendAndAwaitAck(t, sub.msgs, bad)

	agg.Stop()

	if n := store.callCount(); n != 0 {
		t.Errorf("store called %d times, want 0 for malformed input only", n)
	}
}

func TestFlushChunksBySize(t *testing.T) {
	store := &fakeStore{}
	sub := &fakeSubscriber{msgs: make(chan *message.Message)}
	agg := NewAggregator(store, sub, "views.increment", testConfig(2))

	agg.mu.Lock()
	for id := int64(1); id <= 5; id++ {
		agg.pending[id] = id
	}
	agg.mu.Unlock()

	agg.Flush(context.Background())

	if n := store.callCount(); n != 3 {
		t.Errorf("store called %d times, want 3 chunks for 5 ids with chunk size 2", n)
	}
	totals := store.totals()
	for id := int64(1); id <= 5; id++ {
		if totals[id] != id {
			t.Errorf("totals[%d] = %d, want %d", id, totals[id], id)
		}
	}
}

func TestFlushDropsFailedChunk(t *testing.T) {
	store := &fakeStore{fail: 1}
	sub := &fakeSubscriber{msgs: make(chan *message.Message)}
	agg := NewAggregator(store, sub, "views.increment", testConfig(10))

	agg.mu.Lock()
	agg.pending[42] = 5
	agg.mu.Unlock()

	agg.Flush(context.Background())

	// The chunk failed and its counts are gone; a later flush must not
	// resurrect them.
	agg.Flush(context.Background())

	if n := store.callCount(); n != 0 {
		t.Errorf("store recorded %d successful calls, want 0", n)
	}
	agg.mu.Lock()
	pending := len(agg.pending)
	agg.mu.Unlock()
	if pending != 0 {
		t.Errorf("pending = %d entries, want dropped counts to stay dropped", pending)
	}
}

func TestFlushWithNothingPending(t *testing.T) {
	store := &fakeStore{}
	sub := &fakeSubscriber{msgs: make(chan *message.Message)}
	agg := NewAggregator(store, sub, "views.increment", testConfig(10))

	agg.Flush(context.Background())
	if n := store.callCount(); n != 0 {
		t.Errorf("store called %d times, want 0 with nothing pending", n)
	}
}
