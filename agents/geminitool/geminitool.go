/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package geminitool defines how tools are described to and invoked by
// Gemini models.
package geminitool

import (
	"context"

	"google.golang.org/genai"

	"github.com/natx223/commitlog/agents/toolparams"
	"github.com/natx223/commitlog/agents/trace"
)

// Metadata pairs a Gemini function declaration with its handler.
//
// The handler returns the FunctionResponse to feed back to the model. If
// it sets *result to a non-zero value, the conversation loop exits
// immediately with that value as the run's outcome.
type Metadata[Result any] struct {
	Definition *genai.FunctionDeclaration
	Handler    func(ctx context.Context, call *genai.FunctionCall, tr *trace.Trace[Result], result *Result) *genai.FunctionResponse
}

// Param extracts a required parameter from the call. On failure it
// returns a FunctionResponse describing the problem, sized for the model
// to correct itself on the next turn.
func Param[T any](call *genai.FunctionCall, name string) (T, *genai.FunctionResponse) {
	v, err := toolparams.Get[T](call.Args, name)
	if err != nil {
		return v, respondError(call, err)
	}
	return v, nil
}

// OptionalParam extracts an optional parameter, using fallback when the
// model omitted it.
func OptionalParam[T any](call *genai.FunctionCall, name string, fallback T) (T, *genai.FunctionResponse) {
	v, err := toolparams.GetOptional(call.Args, name, fallback)
	if err != nil {
		return v, respondError(call, err)
	}
	return v, nil
}

// Error builds an error FunctionResponse for the call.
func Error(call *genai.FunctionCall, format string, args ...any) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: toolparams.ErrorPayload(format, args...),
	}
}

// ErrorWith builds an error FunctionResponse carrying context fields the
// model can use to adjust its next attempt.
func ErrorWith(call *genai.FunctionCall, err error, context map[string]any) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: toolparams.ErrorPayloadWith(err, context),
	}
}

// Respond builds a success FunctionResponse with the given payload.
func Respond(call *genai.FunctionCall, payload map[string]any) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: payload,
	}
}

func respondError(call *genai.FunctionCall, err error) *genai.FunctionResponse {
	return &genai.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: toolparams.ErrorPayload("%s", err.Error()),
	}
}
