// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package database

import (
	"context"
	"fmt"
	"time"
)

// GetLastSyncTime returns the search sync watermark. Every document updated
// at or after this instant still needs to be re-indexed.
func (s *Store) GetLastSyncTime(ctx context.Context) (time.Time, error) {
	var t time.Time
	err := s.conn.QueryRowContext(ctx,
		`SELECT last_synced FROM search_sync_status WHERE id = 1`).Scan(&t)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync watermark: %w", err)
	}
	return t, nil
}

// SetLastSyncTime advances the watermark. The watermark is monotonic: a
// value at or before the stored one is a no-op, so a stale pass finishing
// late cannot move it backwards.
func (s *Store) SetLastSyncTime(ctx context.Context, t time.Time) error {
	_, err := s.conn.ExecContext(ctx,
		`UPDATE search_sync_status SET last_synced = ? WHERE id = 1 AND last_synced < ?`, t, t)
	if err != nil {
		return fmt.Errorf("failed to advance sync watermark: %w", err)
	}
	return nil
}
