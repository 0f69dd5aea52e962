/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package sqlite

import (
	"context"
	"fmt"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

// PutHistory records one published post. The (user, entry) key makes the
// write idempotent: re-recording the same entry is a no-op, never a
// duplicate and never an overwrite.
func (db *DB) PutHistory(ctx context.Context, userID string, e store.HistoryEntry) error {
	if e.EntryID == "" {
		return apperror.Validation("entryId", "history entry requires an id")
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO history (user_id, entry_id, content, link, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, e.EntryID, e.Content, e.Link, ts.UTC(),
	)
	if err != nil {
		return apperror.Store(fmt.Errorf("recording history: %w", err))
	}
	return nil
}

// ListHistory returns the user's posts, newest first.
func (db *DB) ListHistory(ctx context.Context, userID string) ([]store.HistoryEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT entry_id, content, link, timestamp
		 FROM history WHERE user_id = ?
		 ORDER BY timestamp DESC, entry_id DESC`, userID)
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("querying history: %w", err))
	}
	defer rows.Close()

	var out []store.HistoryEntry
	for rows.Next() {
		var e store.HistoryEntry
		if err := rows.Scan(&e.EntryID, &e.Content, &e.Link, &e.Timestamp); err != nil {
			return nil, apperror.Store(fmt.Errorf("scanning history entry: %w", err))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store(fmt.Errorf("iterating history: %w", err))
	}
	return out, nil
}
