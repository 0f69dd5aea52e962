/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package trace records complete agent runs: the prompt that started
// them, every tool invocation, model reasoning, and the final result.
// Traces feed both observability (otel spans) and the feedback loop,
// which keys dataset curation off recorded runs.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "commitlog.agents.trace"

// Reasoning holds one block of model thinking surfaced during a run.
type Reasoning struct {
	Thinking string `json:"thinking"`
}

// ToolCall is one tool invocation inside a run.
type ToolCall[T any] struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params"`
	Result    any            `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`

	parent *Trace[T]
	span   oteltrace.Span
	mu     sync.Mutex
}

// Trace is one agent run from prompt to result.
type Trace[T any] struct {
	ID        string         `json:"id"`
	Prompt    string         `json:"prompt"`
	Run       RunContext     `json:"run,omitempty"`
	ToolCalls []*ToolCall[T] `json:"tool_calls"`
	Reasoning []Reasoning    `json:"reasoning,omitempty"`
	Result    T              `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`

	tracer Tracer[T]
	ctx    context.Context
	span   oteltrace.Span
	mu     sync.Mutex
}

func newTrace[T any](ctx context.Context, tracer Tracer[T], prompt string) *Trace[T] {
	run := RunFromContext(ctx)

	attrs := []attribute.KeyValue{attribute.String("agent.prompt", prompt)}
	if run.UserID != "" {
		attrs = append(attrs, attribute.String("user_id", run.UserID))
	}
	if run.Repository != "" {
		attrs = append(attrs, attribute.String("repository", run.Repository))
	}
	if run.Cadence != "" {
		attrs = append(attrs, attribute.String("cadence", run.Cadence))
	}

	tr := otel.Tracer(instrumentationName)
	ctx, span := tr.Start(ctx, "agent.run", oteltrace.WithAttributes(attrs...))

	return &Trace[T]{
		ID:        newTraceID(),
		Prompt:    prompt,
		Run:       run,
		ToolCalls: []*ToolCall[T]{},
		StartTime: time.Now(),
		tracer:    tracer,
		ctx:       ctx,
		span:      span,
	}
}

// StartToolCall opens a tool call; the caller completes it with Complete.
func (t *Trace[T]) StartToolCall(id, name string, params map[string]any) *ToolCall[T] {
	_, span := otel.Tracer(instrumentationName).Start(t.ctx, "agent.tool_call",
		oteltrace.WithAttributes(
			attribute.String("tool.name", name),
			attribute.String("tool.id", id),
		))
	return &ToolCall[T]{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: time.Now(),
		parent:    t,
		span:      span,
	}
}

// BadToolCall records an invocation that never ran: unknown tool or
// arguments the handler rejected outright.
func (t *Trace[T]) BadToolCall(id, name string, params map[string]any, err error) {
	_, span := otel.Tracer(instrumentationName).Start(t.ctx, "agent.tool_call",
		oteltrace.WithAttributes(
			attribute.String("tool.name", name),
			attribute.String("tool.id", id),
		))
	span.SetStatus(codes.Error, err.Error())
	span.End()

	now := time.Now()
	tc := &ToolCall[T]{
		ID: id, Name: name, Params: params,
		Error: err, StartTime: now, EndTime: now, parent: t,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ToolCalls = append(t.ToolCalls, tc)
}

// RecordTokenUsage annotates the run span with token counts so usage is
// visible on the trace without cross-referencing metrics.
func (t *Trace[T]) RecordTokenUsage(model string, inputTokens, outputTokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.span != nil {
		t.span.SetAttributes(
			attribute.String("model", model),
			attribute.Int64("tokens.input", inputTokens),
			attribute.Int64("tokens.output", outputTokens),
			attribute.Int64("tokens.total", inputTokens+outputTokens),
		)
	}
}

// AddReasoning appends one block of model thinking.
func (t *Trace[T]) AddReasoning(thinking string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Reasoning = append(t.Reasoning, Reasoning{Thinking: thinking})
}

// Complete closes the tool call and attaches it to the run.
func (tc *ToolCall[T]) Complete(result any, err error) {
	tc.mu.Lock()
	tc.Result = result
	tc.Error = err
	tc.EndTime = time.Now()
	parent := tc.parent
	span := tc.span
	tc.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	parent.mu.Lock()
	defer parent.mu.Unlock()
	parent.ToolCalls = append(parent.ToolCalls, tc)
}

// Duration reports elapsed time; for an open call, time so far.
func (tc *ToolCall[T]) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.EndTime.IsZero() {
		return time.Since(tc.StartTime)
	}
	return tc.EndTime.Sub(tc.StartTime)
}

// Complete closes the run and hands it to the tracer for recording.
func (t *Trace[T]) Complete(result T, err error) {
	t.mu.Lock()
	t.Result = result
	t.Error = err
	t.EndTime = time.Now()
	tracer := t.tracer
	span := t.span
	t.mu.Unlock()

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}

	tracer.RecordTrace(t)
}

// Duration reports the run's elapsed time.
func (t *Trace[T]) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// String renders a compact human-readable view for logs.
func (t *Trace[T]) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Trace %s ===\n", t.ID)
	fmt.Fprintf(&sb, "Prompt: %q\n", truncate(t.Prompt, 200))
	if t.Run.Repository != "" {
		fmt.Fprintf(&sb, "Repository: %s\n", t.Run.Repository)
	}
	fmt.Fprintf(&sb, "Tool calls: %d\n", len(t.ToolCalls))
	for i, tc := range t.ToolCalls {
		fmt.Fprintf(&sb, "  [%d] %s", i+1, tc.Name)
		if tc.Error != nil {
			fmt.Fprintf(&sb, " error=%v", tc.Error)
		} else if tc.Result != nil {
			fmt.Fprintf(&sb, " result=%s", truncate(fmt.Sprintf("%v", tc.Result), 120))
		}
		sb.WriteString("\n")
	}
	if t.Error != nil {
		fmt.Fprintf(&sb, "Error: %v\n", t.Error)
	} else {
		fmt.Fprintf(&sb, "Result: %s\n", truncate(fmt.Sprintf("%v", t.Result), 300))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func newTraceID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102-150405.000000")
	}
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), hex.EncodeToString(b))
}
