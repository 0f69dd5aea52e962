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

// InsertDatasetItem adds one curated example to the baseline dataset.
func (db *DB) InsertDatasetItem(ctx context.Context, item store.DatasetItem) error {
	if item.ID == "" {
		item.ID = xid.New().String()
	}
	at := item.AddedAt
	if at.IsZero() {
		at = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO dataset_items (id, input, output, correctness, feature, added_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.Input, item.Output, item.Correctness, item.Feature, at.UTC(),
	)
	if err != nil {
		return apperror.Store(fmt.Errorf("inserting dataset item: %w", err))
	}
	return nil
}

// ListDatasetItems returns the dataset oldest first, the order items
// were curated in.
func (db *DB) ListDatasetItems(ctx context.Context) ([]store.DatasetItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, input, output, correctness, feature, added_at
		 FROM dataset_items ORDER BY added_at ASC, id ASC`)
	if err != nil {
		return nil, apperror.Store(fmt.Errorf("querying dataset: %w", err))
	}
	defer rows.Close()

	var out []store.DatasetItem
	for rows.Next() {
		var item store.DatasetItem
		if err := rows.Scan(&item.ID, &item.Input, &item.Output,
			&item.Correctness, &item.Feature, &item.AddedAt); err != nil {
			return nil, apperror.Store(fmt.Errorf("scanning dataset item: %w", err))
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Store(fmt.Errorf("iterating dataset: %w", err))
	}
	return out, nil
}

// RecordEvalRun persists the aggregate result of one evaluation pass.
func (db *DB) RecordEvalRun(ctx context.Context, run store.EvalRun) error {
	if run.ID == "" {
		run.ID = xid.New().String()
	}
	at := run.CreatedAt
	if at.IsZero() {
		at = db.now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO eval_runs (id, experiment, hallucination, relevance, cases, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Experiment, run.Hallucination, run.Relevance, run.Cases, at.UTC(),
	)
	if err != nil {
		return apperror.Store(fmt.Errorf("recording eval run: %w", err))
	}
	return nil
}
