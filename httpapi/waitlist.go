/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type waitlistRequest struct {
	Email string `json:"email"`
}

// handleWaitlistJoin adds an email to the launch waitlist. Emails are
// stored lowercased and deduplicated.
func (a *API) handleWaitlistJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req waitlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		respondError(ctx, w, apperror.Validation("email", "email is required"))
		return
	}
	if !emailPattern.MatchString(email) {
		respondError(ctx, w, apperror.Validation("email", "please provide a valid email address"))
		return
	}

	entry := store.WaitlistEntry{
		ID:       xid.New().String(),
		Email:    email,
		Status:   "pending",
		Source:   "website",
		JoinedAt: a.now(),
	}
	if err := a.store.AddWaitlistEntry(ctx, entry); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Successfully joined the waitlist!",
		"data": map[string]string{
			"id":       entry.ID,
			"email":    entry.Email,
			"joinedAt": entry.JoinedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (a *API) handleWaitlistCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := a.store.CountWaitlist(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"success": true,
		"count":   count,
	})
}
