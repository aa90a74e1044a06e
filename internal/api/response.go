// Cairn - Collaborative Outdoor Route Knowledge Base
// Copyright 2026 J. Renard (jmrenard)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmrenard/cairn

// Package api exposes the HTTP search surface: the search endpoint, view
// tracking and the health and metrics endpoints.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/jmrenard/cairn/internal/logging"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}
