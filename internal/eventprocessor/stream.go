// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/jmrenard/cairn/internal/config"
)

// StreamInitializer provisions the JetStream stream before publishers and
// subscribers start. Initialization is idempotent.
type StreamInitializer struct {
	js  jetstream.JetStream
	cfg *config.NATSConfig
}

// NewStreamInitializer connects to the server and prepares a JetStream
// handle. The caller owns the returned initializer's Close.
func NewStreamInitializer(cfg *config.NATSConfig) (*StreamInitializer, error) {
	nc, err := natsgo.Connect(cfg.URL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return &StreamInitializer{js: js, cfg: cfg}, nil
}

// EnsureStream creates or updates the stream covering the sync and views
// subjects. Safe to call on every startup.
func (s *StreamInitializer) EnsureStream(ctx context.Context) error {
	streamCfg := jetstream.StreamConfig{
		Name:       s.cfg.StreamName,
		Subjects:   []string{s.cfg.SyncSubject, s.cfg.ViewsSubject},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     24 * time.Hour,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
		Duplicates: 2 * time.Minute,
	}

	_, err := s.js.Stream(ctx, s.cfg.StreamName)
	if err == nil {
		if _, err := s.js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", s.cfg.StreamName, err)
		}
		return nil
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := s.js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", s.cfg.StreamName, err)
		}
		return nil
	}
	return fmt.Errorf("lookup stream %s: %w", s.cfg.StreamName, err)
}

// Close releases the underlying connection.
func (s *StreamInitializer) Close() {
	s.js.Conn().Close()
}
