// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmrenard/cairn/internal/config"
)

// NewRouter builds the chi router for the search surface. Rate limiting is
// keyed by client IP after RealIP has unwrapped the proxy headers.
func NewRouter(h *Handler, cfg *config.APIConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))

	r.Get("/v1/health", h.Health)
	r.Get("/v1/search/{doctype}", h.Search)
	r.Post("/v1/documents/{id}/view", h.TrackView)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// NewHTTPServer builds the http.Server around the router with the
// configured address and timeouts.
func NewHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Timeout,
		WriteTimeout:      cfg.Timeout,
		IdleTimeout:       2 * cfg.Timeout,
	}
}
