// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package index

import (
	"testing"

	"github.com/jmrenard/cairn/internal/documents"
)

func testWriter(t *testing.T, batchSize int) *Writer {
	t.Helper()
	regs := testRegistries(t)
	indexes, err := OpenMemIndexes(regs)
	if err != nil {
		t.Fatalf("OpenMemIndexes: %v", err)
	}
	w := NewWriter(indexes, batchSize)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func routeRecords(t *testing.T, ids ...int64) []*Record {
	t.Helper()
	regs := testRegistries(t)
	recs := make([]*Record, 0, len(ids))
	for _, id := range ids {
		doc := &documents.Document{
			DocumentID: id,
			Type:       documents.TypeRoute,
			Locales:    []documents.Locale{{Lang: "fr", Title: "Voie"}},
		}
		recs = append(recs, ToRecord(doc, "cairn", regs[documents.TypeRoute]))
	}
	return recs
}

func docCount(t *testing.T, w *Writer, typ documents.DocumentType) uint64 {
	t.Helper()
	idx, ok := w.Index(typ)
	if !ok {
		t.Fatalf("no index for %q", typ)
	}
	n, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	return n
}

func TestApplyUpserts(t *testing.T) {
	w := testWriter(t, 0)
	recs := routeRecords(t, 1, 2, 3)

	stats, err := w.Apply(documents.TypeRoute, recs)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if stats.Upserts != 3 || stats.Deletes != 0 || stats.Batches != 1 {
		t.Errorf("stats = %+v, want 3 upserts in 1 batch", stats)
	}
	if n := docCount(t, w, documents.TypeRoute); n != 3 {
		t.Errorf("doc count = %d, want 3", n)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	w := testWriter(t, 0)
	recs := routeRecords(t, 10, 11)

	for pass := 0; pass < 2; pass++ {
		if _, err := w.Apply(documents.TypeRoute, recs); err != nil {
			t.Fatalf("Apply pass %d: %v", pass, err)
		}
	}
	if n := docCount(t, w, documents.TypeRoute); n != 2 {
		t.Errorf("doc count after replay = %d, want 2 (upserts keyed by id)", n)
	}
}

func TestApplyDeleteRemovesDocument(t *testing.T) {
	w := testWriter(t, 0)
	if _, err := w.Apply(documents.TypeRoute, routeRecords(t, 20, 21)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	stats, err := w.Apply(documents.TypeRoute, []*Record{
		{ID: 20, Index: "cairn_r", OpType: OpDelete},
	})
	if err != nil {
		t.Fatalf("Apply delete: %v", err)
	}
	if stats.Deletes != 1 || stats.Upserts != 0 {
		t.Errorf("stats = %+v, want 1 delete", stats)
	}
	if n := docCount(t, w, documents.TypeRoute); n != 1 {
		t.Errorf("doc count = %d, want 1 after delete", n)
	}

	// Deleting an id that was never indexed is a no-op, not an error.
	if _, err := w.Apply(documents.TypeRoute, []*Record{
		{ID: 999, Index: "cairn_r", OpType: OpDelete},
	}); err != nil {
		t.Errorf("Apply delete of absent id: %v", err)
	}
}

func TestApplyBatchesBySize(t *testing.T) {
	w := testWriter(t, 2)
	recs := routeRecords(t, 30, 31, 32, 33, 34)

	stats, err := w.Apply(documents.TypeRoute, recs)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if stats.Batches != 3 {
		t.Errorf("batches = %d, want 3 for 5 records with batch size 2", stats.Batches)
	}
	if n := docCount(t, w, documents.TypeRoute); n != 5 {
		t.Errorf("doc count = %d, want 5", n)
	}
}

func TestApplyUnknownType(t *testing.T) {
	w := testWriter(t, 0)
	if _, err := w.Apply(documents.DocumentType("z"), nil); err == nil {
		t.Error("expected an error for a type without an index")
	}
}
