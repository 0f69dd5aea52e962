/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics records token usage and tool call counters for model
// interactions over OpenTelemetry.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Enricher adds contextual attributes before a metric is recorded. The
// base set carries model (and tool where relevant); callers layer on
// their own bounded dimensions.
type Enricher func(ctx context.Context, base []attribute.KeyValue) []attribute.KeyValue

// GenAI holds the counters for one meter. A failed counter degrades to
// noop rather than disabling the caller.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	toolCalls        metric.Int64Counter
	enricher         Enricher
}

// NewGenAI creates counters on the named meter. One meter is shared
// across runners, with the model name as a dimension.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName)

	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := meter.Int64Counter(name,
			metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			slog.Warn("Failed to create counter, disabling it", "counter", name, "error", err)
			return noop.Int64Counter{}
		}
		return c
	}

	return &GenAI{
		promptTokens:     counter("genai.token.prompt", "The number of prompt tokens used", "{tokens}"),
		completionTokens: counter("genai.token.completion", "The number of completion tokens used", "{tokens}"),
		toolCalls:        counter("genai.tool.calls", "The number of tool calls made during execution", "{calls}"),
	}
}

// SetEnricher installs the attribute enricher.
func (m *GenAI) SetEnricher(e Enricher) {
	m.enricher = e
}

// RecordTokens records prompt and completion token usage.
func (m *GenAI) RecordTokens(ctx context.Context, model string, promptTokens, completionTokens int64) {
	attrs := m.enrich(ctx, attribute.String("model", model))
	m.promptTokens.Add(ctx, promptTokens, metric.WithAttributes(attrs...))
	m.completionTokens.Add(ctx, completionTokens, metric.WithAttributes(attrs...))
}

// RecordToolCall counts one tool invocation.
func (m *GenAI) RecordToolCall(ctx context.Context, model, toolName string) {
	attrs := m.enrich(ctx,
		attribute.String("model", model),
		attribute.String("tool", toolName))
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *GenAI) enrich(ctx context.Context, base ...attribute.KeyValue) []attribute.KeyValue {
	if m.enricher == nil {
		return base
	}
	return m.enricher(ctx, base)
}
