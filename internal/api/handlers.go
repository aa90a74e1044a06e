// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/go-chi/chi/v5"

	"github.com/jmrenard/cairn/internal/cache"
	"github.com/jmrenard/cairn/internal/documents"
	"github.com/jmrenard/cairn/internal/eventprocessor"
	"github.com/jmrenard/cairn/internal/logging"
	"github.com/jmrenard/cairn/internal/metrics"
	"github.com/jmrenard/cairn/internal/search"
	"github.com/jmrenard/cairn/internal/syncer"
)

// DocumentHydrator loads document summaries for search results.
type DocumentHydrator interface {
	GetDocumentsByID(ctx context.Context, ids []int64) ([]*documents.Document, error)
}

// Handler serves the search API.
type Handler struct {
	builder    *search.Builder
	indexes    map[documents.DocumentType]bleve.Index
	hydrator   DocumentHydrator
	titleCache *cache.LRU[DocSummary]
	publisher  syncer.Publisher
	viewsTopic string
}

// DocSummary is the hydrated slice of a document a result list needs.
type DocSummary struct {
	DocumentID int64             `json:"document_id"`
	Type       string            `json:"doc_type"`
	Titles     map[string]string `json:"titles"`
}

type searchResponse struct {
	Documents []DocSummary `json:"documents"`
	Total     uint64       `json:"total"`
}

// NewHandler wires the handler.
func NewHandler(builder *search.Builder, indexes map[documents.DocumentType]bleve.Index,
	hydrator DocumentHydrator, titleCache *cache.LRU[DocSummary],
	publisher syncer.Publisher, viewsTopic string) *Handler {
	return &Handler{
		builder:    builder,
		indexes:    indexes,
		hydrator:   hydrator,
		titleCache: titleCache,
		publisher:  publisher,
		viewsTopic: viewsTopic,
	}
}

// Search handles GET /v1/search/{doctype}. Unknown filter parameters and
// malformed values are ignored rather than rejected; only an unknown
// document type is an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	typ := documents.DocumentType(chi.URLParam(r, "doctype"))
	start := time.Now()

	req, err := h.builder.Build(typ, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_doctype", err.Error())
		return
	}

	idx, ok := h.indexes[typ]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_doctype", "no index for document type")
		return
	}

	result, err := idx.SearchInContext(r.Context(), req)
	if err != nil {
		logging.Error().Err(err).Str("doc_type", string(typ)).Msg("Search failed")
		writeError(w, http.StatusInternalServerError, "search_failed", "search failed")
		return
	}

	ids := make([]int64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	docs, err := h.hydrate(r.Context(), ids)
	if err != nil {
		logging.Error().Err(err).Str("doc_type", string(typ)).Msg("Hydration failed")
		writeError(w, http.StatusInternalServerError, "search_failed", "search failed")
		return
	}

	metrics.SearchRequestDuration.WithLabelValues(string(typ)).Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, searchResponse{Documents: docs, Total: result.Total})
}

// hydrate resolves result ids to summaries, keeping the result order.
// Cache misses are batch-loaded from the store.
func (h *Handler) hydrate(ctx context.Context, ids []int64) ([]DocSummary, error) {
	found := make(map[int64]DocSummary, len(ids))
	var misses []int64
	for _, id := range ids {
		if s, ok := h.titleCache.Get(id); ok {
			found[id] = s
		} else {
			misses = append(misses, id)
		}
	}

	if len(misses) > 0 {
		docs, err := h.hydrator.GetDocumentsByID(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			s := DocSummary{
				DocumentID: doc.DocumentID,
				Type:       string(doc.Type),
				Titles:     make(map[string]string, len(doc.Locales)),
			}
			for _, loc := range doc.Locales {
				s.Titles[loc.Lang] = loc.Title
			}
			h.titleCache.Add(doc.DocumentID, s)
			found[doc.DocumentID] = s
		}
	}

	out := make([]DocSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := found[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// TrackView handles POST /v1/documents/{id}/view. The event is fire and
// forget: a queue hiccup returns 202 all the same, the count is just lost.
func (h *Handler) TrackView(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "document id must be a positive integer")
		return
	}

	msg, err := eventprocessor.NewViewMessage(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to build event")
		return
	}
	if err := h.publisher.Publish(h.viewsTopic, msg); err != nil {
		logging.Warn().Err(err).Int64("document_id", id).Msg("View event publish failed")
	}
	w.WriteHeader(http.StatusAccepted)
}

// Health handles GET /v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
