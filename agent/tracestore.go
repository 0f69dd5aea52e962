/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/natx223/commitlog/agents/trace"
	"github.com/natx223/commitlog/store"
)

// StoreTraces returns a trace callback that persists each completed run
// tagged with its response id, so user feedback can find it later.
func StoreTraces(ctx context.Context, traces store.Traces) trace.Callback[Outcome] {
	log := clog.FromContext(ctx)
	return func(tr *trace.Trace[Outcome]) {
		record := store.TraceRecord{
			ID:        tr.ID,
			Tag:       tr.Run.RunID,
			Input:     tr.Prompt,
			Output:    tr.Result.Text,
			ToolCalls: len(tr.ToolCalls),
			CreatedAt: tr.EndTime,
		}
		if err := traces.PutTrace(ctx, record); err != nil {
			log.With("trace_id", tr.ID).With("error", err).
				Error("Persisting agent trace failed")
		}
	}
}
