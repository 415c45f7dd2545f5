// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package persistence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/vitalport/internal/config"
	"github.com/tomtom215/vitalport/internal/logging"
	"github.com/tomtom215/vitalport/internal/metrics"
	"github.com/tomtom215/vitalport/internal/models"
)

const (
	pathHealth      = "/health"
	pathImportBatch = "/rpc/import_batch"
	pathSummary     = "/rpc/entity_summary"
)

type importBatchRequest struct {
	UserID     string            `json:"user_id"`
	EntityType models.EntityType `json:"entity_type"`
	Records    []models.Entity   `json:"records"`
}

type rpcError struct {
	Message string `json:"message"`
}

// HTTPStore is a RemoteStore reached through an RPC-style HTTP endpoint.
// Batches are POSTed whole; the server answers with imported and
// duplicates_skipped counts.
type HTTPStore struct {
	client  *resty.Client
	limiter *rate.Limiter
	breaker *breaker
}

// NewHTTPStore creates a client for cfg.URL.
func NewHTTPStore(cfg *config.RemoteConfig) *HTTPStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &HTTPStore{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		breaker: newBreaker("remote-store", cfg.BreakerFailures, cfg.BreakerTimeout),
	}
}

// Ping checks the health endpoint.
func (s *HTTPStore) Ping(ctx context.Context) error {
	_, err := s.breaker.execute(func() (any, error) {
		return nil, s.do(ctx, "ping", http.MethodGet, pathHealth, nil, nil, nil)
	})
	if err != nil && !errors.Is(err, ErrRemoteUnavailable) {
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return err
}

// ImportBatch sends one entity batch.
func (s *HTTPStore) ImportBatch(ctx context.Context, userID string, t models.EntityType, entities []models.Entity) (BatchResult, error) {
	req := importBatchRequest{UserID: userID, EntityType: t, Records: entities}
	res, err := castResult[*BatchResult](s.breaker.execute(func() (any, error) {
		var out BatchResult
		if err := s.do(ctx, "import_batch", http.MethodPost, pathImportBatch, nil, req, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}))
	if err != nil {
		return BatchResult{}, err
	}
	if res.Imported < 0 || res.DuplicatesSkipped < 0 {
		return BatchResult{}, fmt.Errorf("remote store returned negative counts %+v", *res)
	}
	return *res, nil
}

// Summary fetches per-entity aggregates.
func (s *HTTPStore) Summary(ctx context.Context, userID string, t models.EntityType) (models.EntitySummary, error) {
	res, err := castResult[*models.EntitySummary](s.breaker.execute(func() (any, error) {
		out := models.EntitySummary{EntityType: t}
		query := map[string]string{"user_id": userID, "entity_type": string(t)}
		if err := s.do(ctx, "summary", http.MethodGet, pathSummary, query, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}))
	if err != nil {
		return models.EntitySummary{}, err
	}
	return *res, nil
}

// Close releases idle connections.
func (s *HTTPStore) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}

func (s *HTTPStore) do(ctx context.Context, op, method, path string, query map[string]string, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	req := s.client.R().SetContext(ctx).SetError(&rpcError{}).SetQueryParams(query)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err == nil && resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*rpcError); ok && e.Message != "" {
			msg = e.Message
		}
		err = fmt.Errorf("%s %s: %s", method, path, msg)
	}
	metrics.RecordRemoteRequest(op, time.Since(start), err)

	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("Remote store call failed")
		return err
	}
	return nil
}
