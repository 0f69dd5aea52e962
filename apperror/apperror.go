/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package apperror defines the error taxonomy shared by the API surface,
// the store, and the provider integrations. Handlers map these sentinels
// to HTTP status codes; tool handlers convert them into error payloads
// for the model instead of propagating them.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a missing user, schedule, trace, or dataset.
	ErrNotFound = errors.New("not found")
	// ErrNotConnected indicates the user never completed the OAuth grant
	// for a required provider.
	ErrNotConnected = errors.New("provider not connected")
	// ErrRefresh indicates the social platform rejected a token refresh.
	ErrRefresh = errors.New("token refresh failed")
	// ErrUpstream indicates a provider API failure (commit listing, post
	// publishing, model call).
	ErrUpstream = errors.New("upstream api failure")
	// ErrValidation indicates a malformed inbound request.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness violation (e.g. duplicate
	// waitlist email).
	ErrConflict = errors.New("conflict")
	// ErrStore indicates the document store is unreachable or corrupt.
	ErrStore = errors.New("store failure")
)

// AppError carries a sentinel plus a human-readable message.
type AppError struct {
	Err     error
	Message string
	Field   string // optional: the request field that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource by kind and identifier.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s %q not found", resource, id),
	}
}

// NotConnected reports that a user has no credential for the provider.
func NotConnected(userID, provider string) *AppError {
	return &AppError{
		Err:     ErrNotConnected,
		Message: fmt.Sprintf("user %q has no connected %s account", userID, provider),
	}
}

// Refresh wraps a failed refresh-token exchange.
func Refresh(err error) *AppError {
	return &AppError{
		Err:     ErrRefresh,
		Message: fmt.Sprintf("refreshing social token: %v", err),
	}
}

// Upstream wraps a provider API failure.
func Upstream(provider string, err error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("%s: %v", provider, err),
	}
}

// Validation reports a malformed request field.
func Validation(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q already exists", resource, id),
	}
}

// Store wraps a document-store failure.
func Store(err error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Message: fmt.Sprintf("store: %v", err),
	}
}
