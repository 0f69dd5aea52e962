/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

// CreateFeedback persists one quality rating. Scores are accepted in
// [0,1]; everything above the handler's interpretation lives elsewhere.
func (db *DB) CreateFeedback(ctx context.Context, f store.Feedback) error {
	if f.ResponseID == "" {
		return apperror.Validation("responseId", "feedback requires a response id")
	}
	if f.Correctness < 0 || f.Correctness > 1 {
		return apperror.Validation("correctnessScore", "score must be in [0,1]")
	}
	if f.Feature < 0 || f.Feature > 1 {
		return apperror.Validation("featureScore", "score must be in [0,1]")
	}
	at := f.CreatedAt
	if at.IsZero() {
		at = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO feedback (id, response_id, user_id, correctness, feature, improvement, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		xid.New().String(), f.ResponseID, f.UserID, f.Correctness, f.Feature, f.Improvement, at.UTC(),
	)
	if err != nil {
		return apperror.Store(fmt.Errorf("creating feedback: %w", err))
	}
	return nil
}
