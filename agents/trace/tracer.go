/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trace

import (
	"context"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

// Tracer creates and records traces for runs producing results of type T.
type Tracer[T any] interface {
	NewTrace(ctx context.Context, prompt string) *Trace[T]
	RecordTrace(trace *Trace[T])
}

type tracerKey[T any] struct{}

// WithTracer attaches a tracer for result type T to the context.
func WithTracer[T any](ctx context.Context, tracer Tracer[T]) context.Context {
	return context.WithValue(ctx, tracerKey[T]{}, tracer)
}

// FromContext returns the attached tracer for T, falling back to a
// logging tracer so runs are never silently untraced.
func FromContext[T any](ctx context.Context) Tracer[T] {
	if tracer, ok := ctx.Value(tracerKey[T]{}).(Tracer[T]); ok {
		return tracer
	}
	return NewLogTracer[T](ctx)
}

// Start opens a trace using the tracer attached to the context.
func Start[T any](ctx context.Context, prompt string) *Trace[T] {
	return FromContext[T](ctx).NewTrace(ctx, prompt)
}

// Callback receives completed traces.
type Callback[T any] func(*Trace[T])

type callbackTracer[T any] struct {
	callbacks []Callback[T]
}

// ByCallback builds a tracer that fans completed traces out to the
// given callbacks in parallel.
func ByCallback[T any](callbacks ...Callback[T]) Tracer[T] {
	return &callbackTracer[T]{callbacks: callbacks}
}

func (t *callbackTracer[T]) NewTrace(ctx context.Context, prompt string) *Trace[T] {
	return newTrace[T](ctx, t, prompt)
}

func (t *callbackTracer[T]) RecordTrace(tr *Trace[T]) {
	g := new(errgroup.Group)
	for _, cb := range t.callbacks {
		if cb != nil {
			g.Go(func() error {
				cb(tr)
				return nil
			})
		}
	}
	_ = g.Wait()
}

// NewLogTracer builds a tracer that logs completed traces.
func NewLogTracer[T any](ctx context.Context) Tracer[T] {
	logger := clog.FromContext(ctx)
	return ByCallback(func(tr *Trace[T]) {
		logger.With(
			"trace_id", tr.ID,
			"duration_ms", tr.Duration().Milliseconds(),
			"tool_calls", len(tr.ToolCalls),
		).Info("Agent trace completed", "trace", tr.String())
	})
}
