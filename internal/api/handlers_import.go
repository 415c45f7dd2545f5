// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	healthimport "github.com/tomtom215/vitalport/internal/import"
	"github.com/tomtom215/vitalport/internal/ledger"
	"github.com/tomtom215/vitalport/internal/logging"
)

// uploadForm holds the validated non-file fields of an upload.
type uploadForm struct {
	UserID   string `json:"user_id" validate:"required,max=128"`
	FileName string `json:"file_name" validate:"required,max=255"`
}

type historyQuery struct {
	UserID string `json:"user_id" validate:"omitempty,max=128"`
	Limit  int    `json:"limit" validate:"gte=1,lte=1000"`
}

// spooledUpload is an upload written to a temporary file.
type spooledUpload struct {
	file     *os.File
	fileName string
	userID   string
	size     int64
}

// Close removes the spool file.
func (u *spooledUpload) Close() {
	if u.file == nil {
		return
	}
	name := u.file.Name()
	if err := u.file.Close(); err != nil {
		logging.Warn().Err(err).Str("path", name).Msg("Failed to close upload spool")
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Str("path", name).Msg("Failed to remove upload spool")
	}
}

// CreateImport handles POST /api/v1/imports
//
// The form carries user_id (field or query parameter) and one file part.
// The import runs to completion even if the client disconnects.
func (h *Handler) CreateImport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	upload, err := h.spoolUpload(r)
	if upload != nil {
		defer upload.Close()
	}
	if err != nil {
		respondClassified(w, r, err, nil)
		return
	}

	form := uploadForm{UserID: upload.userID, FileName: upload.fileName}
	if !validateRequest(w, r, &form) {
		return
	}

	ctx := context.WithoutCancel(r.Context())
	result, err := h.importer.Import(ctx, healthimport.Request{
		UserID:   form.UserID,
		FileName: form.FileName,
		File:     upload.file,
		Size:     upload.size,
	})
	if err != nil {
		respondClassified(w, r, err, result)
		return
	}

	respondSuccess(w, r, http.StatusOK, result, start)
}

// spoolUpload reads the multipart body. The first "file" part is copied to
// a temporary file; later file parts are ignored.
func (h *Handler) spoolUpload(r *http.Request) (*spooledUpload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFile, err)
	}

	up := &spooledUpload{userID: r.URL.Query().Get("user_id")}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return up, fmt.Errorf("read multipart body: %w", err)
		}

		switch {
		case part.FormName() == "user_id":
			value, err := io.ReadAll(io.LimitReader(part, maxMultipartMemory))
			if err != nil {
				_ = part.Close()
				return up, fmt.Errorf("read user_id: %w", err)
			}
			up.userID = strings.TrimSpace(string(value))

		case part.FormName() == "file" && up.file == nil:
			f, err := os.CreateTemp(h.spoolDir, "vitalport-upload-*")
			if err != nil {
				_ = part.Close()
				return up, fmt.Errorf("create upload spool: %w", err)
			}
			up.file = f
			up.fileName = part.FileName()
			up.size, err = io.Copy(f, part)
			if err != nil {
				_ = part.Close()
				return up, fmt.Errorf("spool upload: %w", err)
			}
		}
		_ = part.Close()
	}

	if up.file == nil {
		return up, ErrMissingFile
	}
	return up, nil
}

// ListImports handles GET /api/v1/imports
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := historyQuery{
		UserID: r.URL.Query().Get("user_id"),
		Limit:  getIntParam(r, "limit", defaultHistoryLimit),
	}
	if !validateRequest(w, r, &q) {
		return
	}

	entries, err := h.importer.History(r.Context(), ledger.Filter{UserID: q.UserID, Limit: q.Limit})
	if err != nil {
		respondClassified(w, r, err, nil)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	respondSuccess(w, r, http.StatusOK, entries, start)
}
