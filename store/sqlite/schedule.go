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

// CreateSchedule validates and inserts the schedule, assigning its ID.
func (db *DB) CreateSchedule(ctx context.Context, s *store.Schedule) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.UserID == "" {
		return apperror.Validation("userId", "schedule requires a user")
	}
	if s.Username == "" || s.Repo == "" {
		return apperror.Validation("repo", "schedule requires owner and repository")
	}
	s.ID = xid.New().String()
	s.CreatedAt = db.now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO schedules (id, user_id, username, repo, cadence, post_utc_hour, weekday, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Username, s.Repo, string(s.Cadence), s.PostUTCHour, s.Weekday, s.CreatedAt,
	)
	if err != nil {
		return apperror.Store(fmt.Errorf("creating schedule: %w", err))
	}
	return nil
}

// SchedulesAt returns the schedules due at the given slot. Weekday only
// participates in the match for weekly cadence.
func (db *DB) SchedulesAt(ctx context.Context, cadence store.Cadence, utcHour int, weekday string) ([]store.Schedule, error) {
	query := `SELECT id, user_id, username, repo, cadence, post_utc_hour, weekday, created_at
		 FROM schedules WHERE cadence = ? AND post_utc_hour = ?`
	args := []any{string(cadence), utcHour}
	if cadence == store.CadenceWeekly {
		query += ` AND weekday = ?`
		args = append(args, weekday)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("querying schedules: %w", err))
	}
	defer rows.Close()

	var out []store.Schedule
	for rows.Next() {
		var s store.Schedule
		var cad string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Username, &s.Repo, &cad,
			&s.PostUTCHour, &s.Weekday, &s.CreatedAt); err != nil {
			return nil, apperror.Store(fmt.Errorf("scanning schedule: %w", err))
		}
		s.Cadence = store.Cadence(cad)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store(fmt.Errorf("iterating schedules: %w", err))
	}
	return out, nil
}

// SchedulesForUser lists a user's schedules, oldest first.
func (db *DB) SchedulesForUser(ctx context.Context, userID string) ([]store.Schedule, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, username, repo, cadence, post_utc_hour, weekday, created_at
		 FROM schedules WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("querying user schedules: %w", err))
	}
	defer rows.Close()

	var out []store.Schedule
	for rows.Next() {
		var s store.Schedule
		var cad string
		if err := rows.Scan(&s.ID, &s.UserID, &s.Username, &s.Repo, &cad,
			&s.PostUTCHour, &s.Weekday, &s.CreatedAt); err != nil {
			return nil, apperror.Store(fmt.Errorf("scanning schedule: %w", err))
		}
		s.Cadence = store.Cadence(cad)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store(fmt.Errorf("iterating schedules: %w", err))
	}
	return out, nil
}

// DeleteSchedule removes one schedule; the user scope prevents deleting
// another user's schedule by guessing IDs.
func (db *DB) DeleteSchedule(ctx context.Context, userID, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM schedules WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return apperror.Store(fmt.Errorf("deleting schedule: %w", err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("schedule", id)
	}
	return nil
}
