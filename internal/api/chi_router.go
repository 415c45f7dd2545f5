// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vitalport/internal/middleware"
)

// Router binds handlers to routes.
type Router struct {
	handler        *Handler
	chiMiddleware  *ChiMiddleware
	maxUploadBytes int64
}

// NewRouter creates a router. maxUploadBytes <= 0 disables the upload cap.
func NewRouter(handler *Handler, mw *ChiMiddleware, maxUploadBytes int64) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw, maxUploadBytes: maxUploadBytes}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(middleware.PrometheusMetrics)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())

		r.With(middleware.MaxBodySize(router.maxUploadBytes)).Post("/imports", router.handler.CreateImport)
		r.Get("/imports", router.handler.ListImports)
		r.Get("/summaries", router.handler.Summaries)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "no such endpoint", nil, nil)
	})

	return r
}
