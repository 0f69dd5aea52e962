/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

// AddWaitlistEntry inserts one signup. The UNIQUE constraint on email is
// the dedupe authority; its violation surfaces as a conflict.
func (db *DB) AddWaitlistEntry(ctx context.Context, e store.WaitlistEntry) error {
	if e.Email == "" {
		return apperror.Validation("email", "waitlist entry requires an email")
	}
	if e.ID == "" {
		e.ID = xid.New().String()
	}
	if e.Status == "" {
		e.Status = "pending"
	}
	at := e.JoinedAt
	if at.IsZero() {
		at = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO waitlist (id, email, status, source, joined_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Email, e.Status, e.Source, at.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("waitlist entry", e.Email)
		}
		return apperror.Store(fmt.Errorf("adding waitlist entry: %w", err))
	}
	return nil
}

// CountWaitlist returns the number of signups.
func (db *DB) CountWaitlist(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM waitlist`).Scan(&n)
	if err != nil {
		return 0, apperror.Store(fmt.Errorf("counting waitlist: %w", err))
	}
	return n, nil
}
