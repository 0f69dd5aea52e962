/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

// PutAuthState stores one OAuth correlation state. The state value is
// the primary key; a duplicate means the caller reused a random value,
// which is a conflict, not an upsert. The verifier is empty for flows
// without a PKCE leg.
func (db *DB) PutAuthState(ctx context.Context, s store.AuthState) error {
	if s.State == "" {
		return apperror.Validation("state", "auth state requires a state value")
	}
	at := s.CreatedAt
	if at.IsZero() {
		at = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO auth_states (state, code_verifier, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		s.State, s.CodeVerifier, s.UserID, at.UTC(),
	)
	if err != nil {
		return apperror.Store(fmt.Errorf("storing auth state: %w", err))
	}
	return nil
}

// TakeAuthState consumes the state: the row is deleted on read, so a
// replayed callback fails. Expired states read as absent.
func (db *DB) TakeAuthState(ctx context.Context, state string) (*store.AuthState, error) {
	db.sweepAuthStates(ctx)

	var s store.AuthState
	err := db.conn.QueryRowContext(ctx,
		`DELETE FROM auth_states WHERE state = ? AND created_at >= ?
		 RETURNING state, code_verifier, user_id, created_at`,
		state, db.now().Add(-store.AuthStateTTL).UTC(),
	).Scan(&s.State, &s.CodeVerifier, &s.UserID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("auth state", state)
	}
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("consuming auth state: %w", err))
	}
	return &s, nil
}
