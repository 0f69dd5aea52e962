/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package sqlite backs the store interfaces with an embedded SQLite
// database via the pure-Go modernc driver, so deployments stay a single
// binary plus one file. ":memory:" works for tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/natx223/commitlog/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*DB)(nil)

// DB wraps the connection pool and implements store.Store.
type DB struct {
	conn *sql.DB
	// now is replaceable for expiry tests.
	now func() time.Time
}

// New opens (or creates) the database at path and applies the schema.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	// WAL lets reads proceed during writes; foreign keys default off.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}
	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// Close releases the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			display_name TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT NOT NULL DEFAULT '',
			email        TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL,
			updated_at   DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS connections (
			user_id       TEXT NOT NULL REFERENCES users(id),
			provider      TEXT NOT NULL CHECK (provider IN ('github', 'social')),
			access_token  TEXT NOT NULL,
			refresh_token TEXT NOT NULL DEFAULT '',
			token_type    TEXT NOT NULL DEFAULT '',
			expires_at    INTEGER NOT NULL DEFAULT 0,
			updated_at    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, provider)
		);

		CREATE TABLE IF NOT EXISTS schedules (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL REFERENCES users(id),
			username      TEXT NOT NULL,
			repo          TEXT NOT NULL,
			cadence       TEXT NOT NULL CHECK (cadence IN ('daily', 'weekly')),
			post_utc_hour INTEGER NOT NULL CHECK (post_utc_hour BETWEEN 0 AND 23),
			weekday       TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_schedules_slot
			ON schedules(cadence, post_utc_hour, weekday);
		CREATE INDEX IF NOT EXISTS idx_schedules_user ON schedules(user_id);

		CREATE TABLE IF NOT EXISTS history (
			user_id   TEXT NOT NULL REFERENCES users(id),
			entry_id  TEXT NOT NULL,
			content   TEXT NOT NULL,
			link      TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL,
			PRIMARY KEY (user_id, entry_id)
		);

		CREATE TABLE IF NOT EXISTS feedback (
			id          TEXT PRIMARY KEY,
			response_id TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			correctness REAL NOT NULL,
			feature     REAL NOT NULL,
			improvement TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_response ON feedback(response_id);

		CREATE TABLE IF NOT EXISTS traces (
			id         TEXT PRIMARY KEY,
			tag        TEXT NOT NULL,
			input      TEXT NOT NULL,
			output     TEXT NOT NULL,
			tool_calls INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_traces_tag ON traces(tag);

		CREATE TABLE IF NOT EXISTS trace_scores (
			trace_id TEXT NOT NULL REFERENCES traces(id),
			name     TEXT NOT NULL,
			value    REAL NOT NULL,
			PRIMARY KEY (trace_id, name)
		);

		CREATE TABLE IF NOT EXISTS dataset_items (
			id          TEXT PRIMARY KEY,
			input       TEXT NOT NULL,
			output      TEXT NOT NULL,
			correctness REAL NOT NULL,
			feature     REAL NOT NULL,
			added_at    DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS eval_runs (
			id            TEXT PRIMARY KEY,
			experiment    TEXT NOT NULL,
			hallucination REAL NOT NULL,
			relevance     REAL NOT NULL,
			cases         INTEGER NOT NULL,
			created_at    DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS auth_states (
			state         TEXT PRIMARY KEY,
			code_verifier TEXT NOT NULL,
			user_id       TEXT NOT NULL,
			created_at    DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS waitlist (
			id        TEXT PRIMARY KEY,
			email     TEXT NOT NULL UNIQUE,
			status    TEXT NOT NULL DEFAULT 'pending',
			source    TEXT NOT NULL DEFAULT '',
			joined_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// sweepAuthStates opportunistically deletes expired correlation states.
// Called from TakeAuthState; a failed sweep is not fatal, expired rows
// stay invisible either way.
func (db *DB) sweepAuthStates(ctx context.Context) {
	cutoff := db.now().Add(-store.AuthStateTTL)
	_, _ = db.conn.ExecContext(ctx,
		`DELETE FROM auth_states WHERE created_at < ?`, cutoff)
}
