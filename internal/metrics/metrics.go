// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package metrics exposes Prometheus instrumentation for the search
// synchronization pipeline: sync passes, index writes, query building and
// the view-count aggregator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync pipeline metrics
	SyncPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_sync_pass_duration_seconds",
			Help:    "Duration of search index sync passes in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"mode"}, // "incremental", "rebuild"
	)

	SyncPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_sync_passes_total",
			Help: "Total number of sync passes by outcome",
		},
		[]string{"mode", "outcome"}, // outcome: "ok", "error"
	)

	SyncNotificationsCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_sync_notifications_coalesced_total",
			Help: "Queue notifications absorbed into an already-pending sync pass",
		},
	)

	WatermarkAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_sync_watermark_age_seconds",
			Help: "Age of the last successful sync watermark in seconds",
		},
	)

	// Index writer metrics
	DocumentsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_index_documents_total",
			Help: "Documents written to the search index by operation",
		},
		[]string{"doc_type", "op"}, // op: "index", "delete"
	)

	IndexBatchFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_index_batch_flushes_total",
			Help: "Total number of index batch commits",
		},
	)

	IndexBatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "search_index_batch_errors_total",
			Help: "Total number of failed index batch commits",
		},
	)

	// Query building metrics
	SearchRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_request_duration_seconds",
			Help:    "Search request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"doc_type"},
	)

	FiltersDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_filters_dropped_total",
			Help: "Filter parameters that compiled to nothing and were omitted",
		},
		[]string{"doc_type"},
	)

	// View-count aggregator metrics
	ViewEventsDrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "views_events_drained_total",
			Help: "View-increment events consumed from the queue",
		},
	)

	ViewChunksCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "views_chunks_committed_total",
			Help: "View-count bulk update chunks committed",
		},
	)

	ViewChunksFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "views_chunks_failed_total",
			Help: "View-count bulk update chunks that failed (counts dropped)",
		},
	)
)
