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

	json "github.com/goccy/go-json"

	"github.com/jmrenard/cairn/internal/documents"
	"github.com/jmrenard/cairn/internal/logging"
)

// SaveDocument upserts a document, its locales and its area associations,
// and enqueues a sync notification in the same transaction. The outbox row
// only becomes visible together with the write it describes.
func (s *Store) SaveDocument(ctx context.Context, doc *documents.Document) error {
	if !doc.Type.Valid() {
		return fmt.Errorf("invalid document type %q", doc.Type)
	}

	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal document fields: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	var geomX, geomY any
	if doc.Geom != nil {
		geomX, geomY = doc.Geom.X, doc.Geom.Y
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, doc_type, redirects_to, quality, geom_x, geom_y, fields, view_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, now())
		 ON CONFLICT (id) DO UPDATE SET
			doc_type = excluded.doc_type,
			redirects_to = excluded.redirects_to,
			quality = excluded.quality,
			geom_x = excluded.geom_x,
			geom_y = excluded.geom_y,
			fields = excluded.fields,
			updated_at = now()`,
		doc.DocumentID, string(doc.Type), doc.RedirectsTo, doc.Quality,
		geomX, geomY, string(fieldsJSON), doc.ViewCount); err != nil {
		return fmt.Errorf("failed to upsert document %d: %w", doc.DocumentID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_locales WHERE document_id = ?`, doc.DocumentID); err != nil {
		return fmt.Errorf("failed to clear locales for document %d: %w", doc.DocumentID, err)
	}
	for _, loc := range doc.Locales {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_locales (document_id, lang, title, title_prefix, summary, description)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			doc.DocumentID, loc.Lang, loc.Title, loc.TitlePrefix, loc.Summary, loc.Description); err != nil {
			return fmt.Errorf("failed to insert locale %s for document %d: %w", loc.Lang, doc.DocumentID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_areas WHERE document_id = ?`, doc.DocumentID); err != nil {
		return fmt.Errorf("failed to clear areas for document %d: %w", doc.DocumentID, err)
	}
	for _, areaID := range doc.AreaIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_areas (document_id, area_id) VALUES (?, ?)`,
			doc.DocumentID, areaID); err != nil {
			return fmt.Errorf("failed to insert area %d for document %d: %w", areaID, doc.DocumentID, err)
		}
	}

	if err := s.enqueueOutboxTx(ctx, tx, subjectSync, syncPayload(doc.Type)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit document %d: %w", doc.DocumentID, err)
	}
	return nil
}

// LoadDocuments returns every document of the given type.
func (s *Store) LoadDocuments(ctx context.Context, typ documents.DocumentType) ([]*documents.Document, error) {
	return s.loadDocuments(ctx,
		`SELECT id, doc_type, redirects_to, quality, geom_x, geom_y, fields, view_count
		 FROM documents WHERE doc_type = ? ORDER BY id`, string(typ))
}

// LoadDocumentsChangedSince returns documents of the given type whose last
// write is at or after the watermark. The inclusive bound means a document
// updated at exactly the watermark is re-synced rather than missed.
func (s *Store) LoadDocumentsChangedSince(ctx context.Context, typ documents.DocumentType, since time.Time) ([]*documents.Document, error) {
	return s.loadDocuments(ctx,
		`SELECT id, doc_type, redirects_to, quality, geom_x, geom_y, fields, view_count
		 FROM documents WHERE doc_type = ? AND updated_at >= ? ORDER BY id`, string(typ), since)
}

// GetDocumentsByID returns the documents with the given ids, in id order.
// Missing ids are silently absent from the result.
func (s *Store) GetDocumentsByID(ctx context.Context, ids []int64) ([]*documents.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.loadDocuments(ctx, fmt.Sprintf(
		`SELECT id, doc_type, redirects_to, quality, geom_x, geom_y, fields, view_count
		 FROM documents WHERE id IN (%s) ORDER BY id`, placeholders), args...)
}

func (s *Store) loadDocuments(ctx context.Context, query string, args ...any) ([]*documents.Document, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer closeRows(rows)

	var docs []*documents.Document
	byID := make(map[int64]*documents.Document)
	for rows.Next() {
		var (
			doc        documents.Document
			typ        string
			geomX      sql.NullFloat64
			geomY      sql.NullFloat64
			fieldsJSON string
		)
		if err := rows.Scan(&doc.DocumentID, &typ, &doc.RedirectsTo,
			&doc.Quality, &geomX, &geomY, &fieldsJSON, &doc.ViewCount); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Type = documents.DocumentType(typ)
		if geomX.Valid && geomY.Valid {
			doc.Geom = &documents.Point{X: geomX.Float64, Y: geomY.Float64}
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &doc.Fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields for document %d: %w", doc.DocumentID, err)
		}
		docs = append(docs, &doc)
		byID[doc.DocumentID] = &doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	if err := s.attachLocales(ctx, byID); err != nil {
		return nil, err
	}
	if err := s.attachAreas(ctx, byID); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) attachLocales(ctx context.Context, byID map[int64]*documents.Document) error {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT document_id, lang, title, title_prefix, summary, description
		 FROM document_locales ORDER BY document_id, lang`)
	if err != nil {
		return fmt.Errorf("failed to query locales: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var (
			docID int64
			loc   documents.Locale
		)
		if err := rows.Scan(&docID, &loc.Lang, &loc.Title, &loc.TitlePrefix, &loc.Summary, &loc.Description); err != nil {
			return fmt.Errorf("failed to scan locale: %w", err)
		}
		if doc, ok := byID[docID]; ok {
			doc.Locales = append(doc.Locales, loc)
		}
	}
	return rows.Err()
}

func (s *Store) attachAreas(ctx context.Context, byID map[int64]*documents.Document) error {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT document_id, area_id FROM document_areas ORDER BY document_id, area_id`)
	if err != nil {
		return fmt.Errorf("failed to query areas: %w", err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var docID, areaID int64
		if err := rows.Scan(&docID, &areaID); err != nil {
			return fmt.Errorf("failed to scan area: %w", err)
		}
		if doc, ok := byID[docID]; ok {
			doc.AreaIDs = append(doc.AreaIDs, areaID)
		}
	}
	return rows.Err()
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close rows")
	}
}

func rollbackQuietly(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		logging.Warn().Err(err).Msg("Failed to roll back transaction")
	}
}
