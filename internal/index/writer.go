// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package index

import (
	"fmt"
	"strconv"
	"time"

	"github.com/blevesearch/bleve/v2"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jmrenard/cairn/internal/documents"
	"github.com/jmrenard/cairn/internal/logging"
	"github.com/jmrenard/cairn/internal/metrics"
)

// DefaultBatchSize bounds the number of operations accumulated before a
// batch is committed to the index.
const DefaultBatchSize = 1000

// Writer applies serialized records to the per-type bleve indexes in
// bounded batches. Batch commits run through a circuit breaker so that a
// struggling index backend trips fast instead of stalling a sync pass on
// every batch.
type Writer struct {
	indexes   map[documents.DocumentType]bleve.Index
	batchSize int
	breaker   *gobreaker.CircuitBreaker[any]
}

// ApplyStats summarizes one Apply call.
type ApplyStats struct {
	Upserts int
	Deletes int
	Batches int
}

// NewWriter creates a batching index writer over the opened indexes.
func NewWriter(indexes map[documents.DocumentType]bleve.Index, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:     "index-writer",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &Writer{
		indexes:   indexes,
		batchSize: batchSize,
		breaker:   breaker,
	}
}

// Apply writes the records of one document type: one upsert or delete per
// record, flushed in batches of at most batchSize operations. A redirected
// document arrives as a delete record and removes any previous entry; a
// repeated upsert overwrites keyed by document id, which is what makes
// re-running a pass idempotent.
func (w *Writer) Apply(typ documents.DocumentType, records []*Record) (ApplyStats, error) {
	var stats ApplyStats

	idx, ok := w.indexes[typ]
	if !ok {
		return stats, fmt.Errorf("no index for document type %q", typ)
	}

	batch := idx.NewBatch()
	pending := 0
	for _, rec := range records {
		docID := strconv.FormatInt(rec.ID, 10)
		if rec.OpType == OpDelete {
			batch.Delete(docID)
			stats.Deletes++
		} else {
			if err := batch.Index(docID, rec.Fields); err != nil {
				return stats, fmt.Errorf("batch index document %s/%s: %w", typ, docID, err)
			}
			stats.Upserts++
		}
		pending++
		if pending >= w.batchSize {
			if err := w.flush(idx, batch); err != nil {
				return stats, err
			}
			stats.Batches++
			batch = idx.NewBatch()
			pending = 0
		}
	}
	if pending > 0 {
		if err := w.flush(idx, batch); err != nil {
			return stats, err
		}
		stats.Batches++
	}

	metrics.DocumentsIndexed.WithLabelValues(string(typ), OpIndex).Add(float64(stats.Upserts))
	metrics.DocumentsIndexed.WithLabelValues(string(typ), OpDelete).Add(float64(stats.Deletes))
	return stats, nil
}

func (w *Writer) flush(idx bleve.Index, batch *bleve.Batch) error {
	_, err := w.breaker.Execute(func() (any, error) {
		return nil, idx.Batch(batch)
	})
	if err != nil {
		metrics.IndexBatchErrors.Inc()
		return fmt.Errorf("commit index batch: %w", err)
	}
	metrics.IndexBatchFlushes.Inc()
	return nil
}

// Index exposes the underlying index for one type, used by the search
// request path.
func (w *Writer) Index(typ documents.DocumentType) (bleve.Index, bool) {
	idx, ok := w.indexes[typ]
	return idx, ok
}

// Close closes every index, logging but not aborting on individual errors.
func (w *Writer) Close() error {
	var firstErr error
	for typ, idx := range w.indexes {
		if err := idx.Close(); err != nil {
			logging.Warn().Err(err).Str("doc_type", string(typ)).Msg("Failed to close index")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
