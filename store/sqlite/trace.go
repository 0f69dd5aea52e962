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

	"github.com/rs/xid"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

// PutTrace persists one agent run summary, assigning an ID if absent.
func (db *DB) PutTrace(ctx context.Context, t store.TraceRecord) error {
	if t.Tag == "" {
		return apperror.Validation("tag", "trace requires a tag")
	}
	if t.ID == "" {
		t.ID = xid.New().String()
	}
	at := t.CreatedAt
	if at.IsZero() {
		at = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO traces (id, tag, input, output, tool_calls, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Tag, t.Input, t.Output, t.ToolCalls, at.UTC(),
	)
	if err != nil {
		return apperror.Store(fmt.Errorf("storing trace: %w", err))
	}
	return nil
}

// FindTraceByTag returns the most recent trace carrying the tag.
func (db *DB) FindTraceByTag(ctx context.Context, tag string) (*store.TraceRecord, error) {
	var t store.TraceRecord
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, tag, input, output, tool_calls, created_at
		 FROM traces WHERE tag = ?
		 ORDER BY created_at DESC LIMIT 1`, tag,
	).Scan(&t.ID, &t.Tag, &t.Input, &t.Output, &t.ToolCalls, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("trace", tag)
	}
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("finding trace: %w", err))
	}
	return &t, nil
}

// AttachTraceScores upserts named scores onto a trace.
func (db *DB) AttachTraceScores(ctx context.Context, traceID string, scores []store.TraceScore) error {
	for _, s := range scores {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO trace_scores (trace_id, name, value) VALUES (?, ?, ?)
			 ON CONFLICT(trace_id, name) DO UPDATE SET value = excluded.value`,
			traceID, s.Name, s.Value,
		)
		if err != nil {
			return apperror.Store(fmt.Errorf("attaching score %q: %w", s.Name, err))
		}
	}
	return nil
}
