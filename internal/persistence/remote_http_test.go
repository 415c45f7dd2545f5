// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package persistence

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vitalport/internal/config"
	"github.com/tomtom215/vitalport/internal/models"
)

type capturedBatch struct {
	UserID     string            `json:"user_id"`
	EntityType string            `json:"entity_type"`
	Records    []json.RawMessage `json:"records"`
}

func newTestHTTPStore(t *testing.T, handler http.HandlerFunc) *HTTPStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPStore(&config.RemoteConfig{
		Mode:            config.RemoteModeHTTP,
		URL:             server.URL + "/",
		APIKey:          "secret-key",
		Timeout:         5 * time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestHTTPStore_ImportBatch(t *testing.T) {
	t.Parallel()

	var got capturedBatch
	var auth string
	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathImportBatch || r.Method != http.MethodPost {
			writeJSON(w, http.StatusNotFound, `{"message":"not found"}`)
			return
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message":"bad json"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"imported":2,"duplicates_skipped":1}`)
	})

	res, err := store.ImportBatch(context.Background(), "alice", models.EntityWeight, sampleBatch().Entities(models.EntityWeight))
	if err != nil {
		t.Fatalf("import batch: %v", err)
	}
	if res != (BatchResult{Imported: 2, DuplicatesSkipped: 1}) {
		t.Errorf("unexpected result %+v", res)
	}
	if auth != "Bearer secret-key" {
		t.Errorf("expected bearer auth, got %q", auth)
	}
	if got.UserID != "alice" || got.EntityType != "weight_logs" || len(got.Records) != 3 {
		t.Errorf("unexpected request %+v", got)
	}
	if !strings.Contains(string(got.Records[0]), `"weight_kg":80.5`) {
		t.Errorf("expected snake_case entity payload, got %s", got.Records[0])
	}
}

func TestHTTPStore_ErrorMessage(t *testing.T) {
	t.Parallel()

	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"message":"quota exceeded"}`)
	})

	target := NewRemoteTarget(store)
	_, err := target.Write(context.Background(), "alice", models.EntityWeight, sampleBatch().Entities(models.EntityWeight))
	if !IsRemoteWriteError(err) {
		t.Fatalf("expected RemoteWriteError, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected server message in error, got %q", err.Error())
	}
}

func TestHTTPStore_PingAndBreaker(t *testing.T) {
	t.Parallel()

	var healthy atomic.Bool
	var hits atomic.Int32
	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			writeJSON(w, http.StatusServiceUnavailable, `{"message":"down"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"ok"}`)
	})
	ctx := context.Background()

	healthy.Store(true)
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("expected healthy ping, got %v", err)
	}

	healthy.Store(false)
	for i := 0; i < 2; i++ {
		if err := store.Ping(ctx); !errors.Is(err, ErrRemoteUnavailable) {
			t.Fatalf("ping %d: expected ErrRemoteUnavailable, got %v", i, err)
		}
	}
	if state := store.breaker.State(); state != "open" {
		t.Fatalf("expected open breaker after 2 failures, got %s", state)
	}

	before := hits.Load()
	if err := store.Ping(ctx); !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("expected rejection while open, got %v", err)
	}
	if hits.Load() != before {
		t.Error("expected open breaker to short-circuit the request")
	}
}

func TestHTTPStore_Summary(t *testing.T) {
	t.Parallel()

	store := newTestHTTPStore(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathSummary || r.URL.Query().Get("user_id") != "alice" {
			writeJSON(w, http.StatusBadRequest, `{"message":"bad query"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"entity_type":"`+r.URL.Query().Get("entity_type")+`","count":4,"first_date":"2026-01-01","last_date":"2026-01-04"}`)
	})

	sum, err := store.Summary(context.Background(), "alice", models.EntitySleep)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := models.EntitySummary{EntityType: models.EntitySleep, Count: 4, FirstDate: "2026-01-01", LastDate: "2026-01-04"}
	if sum != want {
		t.Errorf("got %+v, want %+v", sum, want)
	}
}
