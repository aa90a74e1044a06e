// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package database

import (
	"context"
	"fmt"
	"strings"
)

// IncrementViews applies a batch of per-document view count deltas in a
// single statement and transaction. Ids without a matching document row are
// ignored by the join. Returns the number of rows updated.
func (s *Store) IncrementViews(ctx context.Context, counts map[int64]int64) (int64, error) {
	if len(counts) == 0 {
		return 0, nil
	}

	// UPDATE ... FROM (VALUES ...) keeps the whole batch in one statement
	// instead of one round trip per document.
	values := make([]string, 0, len(counts))
	args := make([]any, 0, len(counts)*2)
	for id, n := range counts {
		values = append(values, "(?, ?)")
		args = append(args, id, n)
	}

	query := fmt.Sprintf(
		`UPDATE documents SET view_count = view_count + v.delta
		 FROM (VALUES %s) AS v(id, delta)
		 WHERE documents.id = v.id`, strings.Join(values, ", "))

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin views transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to apply view increments: %w", err)
	}
	updated, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit view increments: %w", err)
	}
	return updated, nil
}

// ViewCount returns the stored view count for a document, or 0 when the
// document does not exist.
func (s *Store) ViewCount(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT COALESCE((SELECT view_count FROM documents WHERE id = ?), 0)`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to read view count: %w", err)
	}
	return n, nil
}
