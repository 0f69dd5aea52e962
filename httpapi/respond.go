/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chainguard-dev/clog"

	"github.com/natx223/commitlog/apperror"
)

// respondJSON writes payload with the given status. Encoding failures
// are logged; headers are already gone by then.
func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		clog.FromContext(ctx).With("error", err).Error("Encoding response failed")
	}
}

// respondError maps domain errors onto HTTP statuses and writes the
// {error} body every failure shares.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrNotConnected):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrUpstream), errors.Is(err, apperror.ErrRefresh):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		clog.FromContext(ctx).With("error", err).Error("Request failed")
	}
	respondJSON(ctx, w, status, map[string]string{"error": err.Error()})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst); err != nil {
		return apperror.Validation("body", "must be valid JSON")
	}
	return nil
}
