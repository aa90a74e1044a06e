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

// initialize creates the schema if it does not exist.
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, query := range schemaQueries() {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	// The sync status row is a singleton. The zero watermark makes the
	// first pass a full load of every document type.
	if _, err := s.conn.ExecContext(ctx,
		`INSERT INTO search_sync_status (id, last_synced)
		 SELECT 1, TIMESTAMP '1970-01-01 00:00:00'
		 WHERE NOT EXISTS (SELECT 1 FROM search_sync_status WHERE id = 1)`); err != nil {
		return fmt.Errorf("failed to seed sync status: %w", err)
	}

	return nil
}

func schemaQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS sync_outbox_seq START 1`,

		// Documents table. Free-form per-type attributes live in the
		// fields JSON column; the typed columns are the ones every
		// document type shares.
		`CREATE TABLE IF NOT EXISTS documents (
			id BIGINT PRIMARY KEY,
			doc_type VARCHAR NOT NULL,
			redirects_to BIGINT,
			quality VARCHAR NOT NULL DEFAULT '',
			geom_x DOUBLE,
			geom_y DOUBLE,
			fields VARCHAR NOT NULL DEFAULT '{}',
			view_count BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS document_locales (
			document_id BIGINT NOT NULL,
			lang VARCHAR NOT NULL,
			title VARCHAR NOT NULL DEFAULT '',
			title_prefix VARCHAR NOT NULL DEFAULT '',
			summary VARCHAR NOT NULL DEFAULT '',
			description VARCHAR NOT NULL DEFAULT '',
			PRIMARY KEY (document_id, lang)
		)`,

		`CREATE TABLE IF NOT EXISTS document_areas (
			document_id BIGINT NOT NULL,
			area_id BIGINT NOT NULL,
			PRIMARY KEY (document_id, area_id)
		)`,

		// Singleton watermark row, id is always 1.
		`CREATE TABLE IF NOT EXISTS search_sync_status (
			id INTEGER PRIMARY KEY,
			last_synced TIMESTAMP NOT NULL
		)`,

		// Outbox rows are written in the same transaction as the
		// business write and published by a background drainer.
		`CREATE TABLE IF NOT EXISTS sync_outbox (
			id BIGINT PRIMARY KEY DEFAULT nextval('sync_outbox_seq'),
			subject VARCHAR NOT NULL,
			payload VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_documents_type_updated
			ON documents (doc_type, updated_at)`,
	}
}
