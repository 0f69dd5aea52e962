/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"net/http"

	"github.com/natx223/commitlog/feedback"
)

type feedbackRequest struct {
	UserID      string  `json:"userId"`
	ResponseID  string  `json:"responseId"`
	Correctness float64 `json:"correctness"`
	Feature     float64 `json:"feature"`
	Improvement string  `json:"improvement"`
}

// handleFeedback records a post rating. Side-channel work (trace
// scoring, curation, evaluation) happens inside the processor and never
// fails the acknowledgement.
func (a *API) handleFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := a.feedback.Submit(ctx, feedback.Submission{
		UserID:      req.UserID,
		ResponseID:  req.ResponseID,
		Correctness: req.Correctness,
		Feature:     req.Feature,
		Improvement: req.Improvement,
	}); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"message": "Feedback recorded",
	})
}
