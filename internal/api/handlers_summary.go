// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/vitalport/internal/models"
)

type summaryQuery struct {
	UserID string `json:"user_id" validate:"required,max=128"`
}

// SummaryResponse is the payload of GET /api/v1/summaries.
type SummaryResponse struct {
	UserID    string                 `json:"user_id"`
	Summaries []models.EntitySummary `json:"summaries"`
}

// Summaries handles GET /api/v1/summaries
func (h *Handler) Summaries(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := summaryQuery{UserID: r.URL.Query().Get("user_id")}
	if !validateRequest(w, r, &q) {
		return
	}

	summaries, err := h.importer.Summaries(r.Context(), q.UserID)
	if err != nil {
		respondClassified(w, r, err, nil)
		return
	}
	respondSuccess(w, r, http.StatusOK, SummaryResponse{UserID: q.UserID, Summaries: summaries}, start)
}
