// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vitalport/internal/config"
	"github.com/tomtom215/vitalport/internal/models"
)

const workoutsCSV = `"title","start_time","end_time","exercise_title","weight_kg","reps"
"Push","15 Jan 2026, 18:00","15 Jan 2026, 19:05","Bench Press",80,10
"Push","15 Jan 2026, 18:00","15 Jan 2026, 19:05","Bench Press",80,8
`

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "vitalport.yaml")
	body := fmt.Sprintf(`local:
  duckdb_path: %s
ledger:
  badger_path: %s
logging:
  level: error
`, filepath.Join(dir, "vitalport.duckdb"), filepath.Join(dir, "ledger"))
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportAndLedgerCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	csvPath := filepath.Join(dir, "workouts.csv")
	if err := os.WriteFile(csvPath, []byte(workoutsCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out, err := execute(t, "--config", cfgPath, "import", csvPath, "--user", "u1", "--output", "json")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var res models.ImportResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if res.Status != models.StatusSuccess || res.Counts.Workouts != 1 || res.Target != models.TargetLocal {
		t.Errorf("result = %+v", res)
	}

	out, err = execute(t, "--config", cfgPath, "ledger", "--user", "u1")
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("ledger output has %d lines, want header plus one entry:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "workouts.csv") || !strings.Contains(lines[1], "success") {
		t.Errorf("ledger row = %q", lines[1])
	}
}

func TestImportCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing user", []string{"import", notes}, "--user"},
		{"missing file", []string{"import", filepath.Join(dir, "absent.csv"), "--user", "u1"}, "open"},
		{"unsupported format", []string{"import", notes, "--user", "u1"}, "format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", cfgPath}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestOpenRemote(t *testing.T) {
	t.Parallel()

	store, err := openRemote(context.Background(), &config.RemoteConfig{Mode: config.RemoteModeNone})
	if err != nil || store != nil {
		t.Errorf("mode none = (%v, %v), want (nil, nil)", store, err)
	}

	store, err = openRemote(context.Background(), &config.RemoteConfig{Mode: config.RemoteModeHTTP, URL: "http://127.0.0.1:1"})
	if err != nil || store == nil {
		t.Fatalf("mode http = (%v, %v)", store, err)
	}
	_ = store.Close()

	if _, err := openRemote(context.Background(), &config.RemoteConfig{Mode: "carrier-pigeon"}); err == nil {
		t.Error("unknown mode should fail")
	}
}

func TestDescribePath(t *testing.T) {
	t.Parallel()
	if got := describePath(""); got != "memory" {
		t.Errorf("describePath(\"\") = %q", got)
	}
	if got := describePath("/data/x"); got != "/data/x" {
		t.Errorf("describePath = %q", got)
	}
}
