/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// RunContext identifies which scheduled run an agent execution belongs
// to. It rides the Go context from the scheduler down into traces and
// metric labels.
type RunContext struct {
	UserID     string `json:"user_id,omitempty"`
	Repository string `json:"repository,omitempty"` // "owner/repo"
	Cadence    string `json:"cadence,omitempty"`    // "daily" or "weekly"
	RunID      string `json:"run_id,omitempty"`
}

// EnrichAttributes appends run labels to metric attributes. Only bounded
// dimensions go to metrics: cadence and repository aggregate cleanly,
// while user_id and run_id would mint a time series per user per run.
// Those stay on the trace span, where cardinality does not matter.
func (r RunContext) EnrichAttributes(base []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(base), len(base)+2)
	copy(attrs, base)
	if r.Cadence != "" {
		attrs = append(attrs, attribute.String("cadence", r.Cadence))
	}
	if r.Repository != "" {
		attrs = append(attrs, attribute.String("repository", r.Repository))
	}
	return attrs
}

type runContextKey struct{}

// WithRun attaches the run context.
func WithRun(ctx context.Context, run RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, run)
}

// RunFromContext returns the attached run context, or a zero value.
func RunFromContext(ctx context.Context) RunContext {
	if run, ok := ctx.Value(runContextKey{}).(RunContext); ok {
		return run
	}
	return RunContext{}
}
