// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmrenard/cairn/internal/documents"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveDocumentRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := &documents.Document{
		DocumentID: 101,
		Type:       documents.TypeRoute,
		Quality:    "fine",
		Geom:       &documents.Point{X: 738000, Y: 5735000},
		Locales: []documents.Locale{
			{Lang: "fr", TitlePrefix: "Mont Blanc", Title: "Voie normale", Summary: "Résumé"},
			{Lang: "en", Title: "Normal route"},
		},
		AreaIDs: []int64{14274, 14287},
		Fields: map[string]any{
			"activities":     []string{"skitouring"},
			"height_diff_up": 950,
		},
	}
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	docs, err := s.LoadDocuments(ctx, documents.TypeRoute)
	if err != nil {
		t.Fatalf("LoadDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("loaded %d documents, want 1", len(docs))
	}
	got := docs[0]
	if got.DocumentID != 101 || got.Type != documents.TypeRoute || got.Quality != "fine" {
		t.Errorf("document = %+v", got)
	}
	if got.Geom == nil || got.Geom.X != 738000 || got.Geom.Y != 5735000 {
		t.Errorf("geom = %+v, want stored point", got.Geom)
	}
	if len(got.Locales) != 2 {
		t.Fatalf("locales = %v, want 2", got.Locales)
	}
	if got.Locales[1].TitlePrefix != "Mont Blanc" || got.Locales[1].Title != "Voie normale" {
		t.Errorf("fr locale = %+v", got.Locales[1])
	}
	if len(got.AreaIDs) != 2 || got.AreaIDs[0] != 14274 || got.AreaIDs[1] != 14287 {
		t.Errorf("area ids = %v", got.AreaIDs)
	}
	// JSON round trip turns numbers into float64.
	if v := got.Fields["height_diff_up"]; v != float64(950) {
		t.Errorf("height_diff_up = %v (%T)", v, v)
	}
}

func TestSaveDocumentUpsertReplacesChildRows(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := &documents.Document{
		DocumentID: 7,
		Type:       documents.TypeWaypoint,
		Locales:    []documents.Locale{{Lang: "fr", Title: "Ancien"}, {Lang: "de", Title: "Alt"}},
		AreaIDs:    []int64{1, 2, 3},
		Fields:     map[string]any{},
	}
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	doc.Locales = []documents.Locale{{Lang: "fr", Title: "Nouveau"}}
	doc.AreaIDs = []int64{9}
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument upsert: %v", err)
	}

	docs, err := s.GetDocumentsByID(ctx, []int64{7})
	if err != nil {
		t.Fatalf("GetDocumentsByID: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("loaded %d documents, want 1", len(docs))
	}
	got := docs[0]
	if len(got.Locales) != 1 || got.Locales[0].Title != "Nouveau" {
		t.Errorf("locales after upsert = %v", got.Locales)
	}
	if len(got.AreaIDs) != 1 || got.AreaIDs[0] != 9 {
		t.Errorf("area ids after upsert = %v", got.AreaIDs)
	}
}

func TestSaveDocumentRejectsInvalidType(t *testing.T) {
	s := testStore(t)
	doc := &documents.Document{DocumentID: 1, Type: documents.DocumentType("z")}
	if err := s.SaveDocument(context.Background(), doc); err == nil {
		t.Error("expected an error for an invalid document type")
	}
}

func TestGetDocumentsByID(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []int64{10, 20, 30} {
		doc := &documents.Document{DocumentID: id, Type: documents.TypeRoute, Fields: map[string]any{}}
		if err := s.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("SaveDocument %d: %v", id, err)
		}
	}

	docs, err := s.GetDocumentsByID(ctx, []int64{30, 10, 999})
	if err != nil {
		t.Fatalf("GetDocumentsByID: %v", err)
	}
	if len(docs) != 2 || docs[0].DocumentID != 10 || docs[1].DocumentID != 30 {
		t.Errorf("got %d documents, want ids [10 30] in id order", len(docs))
	}

	docs, err = s.GetDocumentsByID(ctx, nil)
	if err != nil || docs != nil {
		t.Errorf("empty id list: docs=%v err=%v, want nil/nil", docs, err)
	}
}

func TestLoadDocumentsChangedSince(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	doc := &documents.Document{DocumentID: 5, Type: documents.TypeOuting, Fields: map[string]any{}}
	if err := s.SaveDocument(ctx, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	docs, err := s.LoadDocumentsChangedSince(ctx, documents.TypeOuting, time.Unix(0, 0).UTC())
	if err != nil {
		t.Fatalf("LoadDocumentsChangedSince: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("since epoch: got %d documents, want 1", len(docs))
	}

	docs, err = s.LoadDocumentsChangedSince(ctx, documents.TypeOuting, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("LoadDocumentsChangedSince: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("since future: got %d documents, want 0", len(docs))
	}
}

func TestSyncWatermarkIsMonotonic(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	initial, err := s.GetLastSyncTime(ctx)
	if err != nil {
		t.Fatalf("GetLastSyncTime: %v", err)
	}
	if initial.Year() != 1970 {
		t.Errorf("initial watermark = %v, want epoch seed", initial)
	}

	t1 := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	if err := s.SetLastSyncTime(ctx, t1); err != nil {
		t.Fatalf("SetLastSyncTime: %v", err)
	}
	got, err := s.GetLastSyncTime(ctx)
	if err != nil {
		t.Fatalf("GetLastSyncTime: %v", err)
	}
	if !got.Equal(t1) {
		t.Errorf("watermark = %v, want %v", got, t1)
	}

	// A stale pass finishing late must not move it backwards.
	t0 := t1.Add(-time.Hour)
	if err := s.SetLastSyncTime(ctx, t0); err != nil {
		t.Fatalf("SetLastSyncTime stale: %v", err)
	}
	got, err = s.GetLastSyncTime(ctx)
	if err != nil {
		t.Fatalf("GetLastSyncTime: %v", err)
	}
	if !got.Equal(t1) {
		t.Errorf("watermark = %v, want %v unchanged after stale write", got, t1)
	}
}

func TestOutboxDrainAndDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, typ := range []documents.DocumentType{documents.TypeRoute, documents.TypeWaypoint, documents.TypeOuting} {
		doc := &documents.Document{DocumentID: int64(i) + 100, Type: typ, Fields: map[string]any{}}
		if err := s.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("SaveDocument: %v", err)
		}
	}

	rows, err := s.DrainOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("DrainOutbox: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("drained %d rows, want 3 (one per save)", len(rows))
	}
	if rows[0].Subject != "search.sync" {
		t.Errorf("subject = %q, want search.sync", rows[0].Subject)
	}
	if rows[0].Payload != `{"doc_type":"r"}` {
		t.Errorf("payload = %q", rows[0].Payload)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].ID <= rows[i-1].ID {
			t.Errorf("rows out of insertion order: %v", rows)
		}
	}

	// Rows survive a drain; only an explicit delete removes them.
	again, err := s.DrainOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("DrainOutbox again: %v", err)
	}
	if len(again) != 3 {
		t.Errorf("re-drained %d rows, want 3", len(again))
	}

	if err := s.DeleteOutbox(ctx, []int64{rows[0].ID, rows[1].ID}); err != nil {
		t.Fatalf("DeleteOutbox: %v", err)
	}
	rest, err := s.DrainOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("DrainOutbox after delete: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != rows[2].ID {
		t.Errorf("remaining rows = %v, want only the undeleted one", rest)
	}

	if err := s.DeleteOutbox(ctx, nil); err != nil {
		t.Errorf("DeleteOutbox with no ids: %v", err)
	}
}

func TestOutboxDrainLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		doc := &documents.Document{DocumentID: i, Type: documents.TypeRoute, Fields: map[string]any{}}
		if err := s.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("SaveDocument: %v", err)
		}
	}
	rows, err := s.DrainOutbox(ctx, 2)
	if err != nil {
		t.Fatalf("DrainOutbox: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("drained %d rows, want limit 2", len(rows))
	}
}

func TestIncrementViews(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, id := range []int64{3, 7} {
		doc := &documents.Document{DocumentID: id, Type: documents.TypeRoute, Fields: map[string]any{}}
		if err := s.SaveDocument(ctx, doc); err != nil {
			t.Fatalf("SaveDocument: %v", err)
		}
	}

	updated, err := s.IncrementViews(ctx, map[int64]int64{7: 3, 3: 1})
	if err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	n, err := s.ViewCount(ctx, 7)
	if err != nil {
		t.Fatalf("ViewCount: %v", err)
	}
	if n != 3 {
		t.Errorf("view count for 7 = %d, want 3", n)
	}
	n, err = s.ViewCount(ctx, 3)
	if err != nil {
		t.Fatalf("ViewCount: %v", err)
	}
	if n != 1 {
		t.Errorf("view count for 3 = %d, want 1", n)
	}

	// Increments accumulate.
	if _, err := s.IncrementViews(ctx, map[int64]int64{7: 2}); err != nil {
		t.Fatalf("IncrementViews: %v", err)
	}
	n, _ = s.ViewCount(ctx, 7)
	if n != 5 {
		t.Errorf("view count for 7 = %d, want 5", n)
	}

	// Unknown ids fall out of the join.
	updated, err = s.IncrementViews(ctx, map[int64]int64{999: 4})
	if err != nil {
		t.Fatalf("IncrementViews unknown id: %v", err)
	}
	if updated != 0 {
		t.Errorf("updated = %d, want 0 for an unknown id", updated)
	}
	n, _ = s.ViewCount(ctx, 999)
	if n != 0 {
		t.Errorf("view count for missing document = %d, want 0", n)
	}

	if _, err := s.IncrementViews(ctx, nil); err != nil {
		t.Errorf("IncrementViews with no counts: %v", err)
	}
}
