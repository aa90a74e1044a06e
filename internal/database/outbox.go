// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmrenard/cairn/internal/documents"
)

// subjectSync is the subject written on sync outbox rows. It matches the
// nats.sync_subject configuration default; the drainer publishes each row
// to whatever subject it carries.
const subjectSync = "search.sync"

// OutboxRow is one pending message in the transactional outbox.
type OutboxRow struct {
	ID        int64
	Subject   string
	Payload   string
	CreatedAt time.Time
}

func syncPayload(typ documents.DocumentType) string {
	return fmt.Sprintf(`{"doc_type":%q}`, string(typ))
}

func (s *Store) enqueueOutboxTx(ctx context.Context, tx *sql.Tx, subject, payload string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sync_outbox (subject, payload) VALUES (?, ?)`, subject, payload); err != nil {
		return fmt.Errorf("failed to enqueue outbox row: %w", err)
	}
	return nil
}

// DrainOutbox returns up to limit pending rows in insertion order. Rows stay
// in the table until DeleteOutbox confirms they were published, so a crash
// between drain and publish re-delivers rather than loses them.
func (s *Store) DrainOutbox(ctx context.Context, limit int) ([]OutboxRow, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, subject, payload, created_at FROM sync_outbox ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to drain outbox: %w", err)
	}
	defer closeRows(rows)

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.Subject, &r.Payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox: %w", err)
	}
	return out, nil
}

// DeleteOutbox removes published rows.
func (s *Store) DeleteOutbox(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM sync_outbox WHERE id IN (%s)`, placeholders), args...); err != nil {
		return fmt.Errorf("failed to delete outbox rows: %w", err)
	}
	return nil
}
