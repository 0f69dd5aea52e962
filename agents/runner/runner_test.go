/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"context"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"github.com/natx223/commitlog/agents/geminitool"
	"github.com/natx223/commitlog/agents/promptbuilder"
	"github.com/natx223/commitlog/agents/trace"
)

type digestResult struct {
	Posted  bool   `json:"posted"`
	Message string `json:"message"`
}

type noopRequest struct{}

func (noopRequest) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) { return p, nil }

// scriptedChat replays canned responses and records what was sent.
type scriptedChat struct {
	responses []*genai.GenerateContentResponse
	sent      [][]*genai.Part
}

func (c *scriptedChat) Send(_ context.Context, parts ...*genai.Part) (*genai.GenerateContentResponse, error) {
	c.sent = append(c.sent, parts)
	if len(c.responses) == 0 {
		return nil, fmt.Errorf("scripted chat exhausted after %d sends", len(c.sent))
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func callResponse(name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{
				FunctionCall: &genai.FunctionCall{ID: "call-1", Name: name, Args: args},
			}}},
		}},
	}
}

func newTestRunner(t *testing.T, chat *scriptedChat, options ...Option[noopRequest, digestResult]) Interface[noopRequest, digestResult] {
	t.Helper()
	iface, err := New(nil, promptbuilder.MustNew(`summarize the day`), options...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	r := iface.(*runner[noopRequest, digestResult])
	r.newChat = func(context.Context, string, *genai.GenerateContentConfig) (chatSession, error) {
		return chat, nil
	}
	return iface
}

func TestRunParsesTextResult(t *testing.T) {
	chat := &scriptedChat{responses: []*genai.GenerateContentResponse{
		textResponse("```json\n{\"posted\": true, \"message\": \"shipped it\"}\n```"),
	}}
	r := newTestRunner(t, chat)

	got, err := r.Run(context.Background(), noopRequest{}, nil)
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if !got.Posted || got.Message != "shipped it" {
		t.Errorf("Run() = %+v", got)
	}
	if len(chat.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(chat.sent))
	}
}

func TestRunExecutesToolsAndFeedsBackResponses(t *testing.T) {
	chat := &scriptedChat{responses: []*genai.GenerateContentResponse{
		callResponse("get_latest_commits", map[string]any{"count": float64(10)}),
		textResponse(`{"posted": false, "message": "quiet day"}`),
	}}
	r := newTestRunner(t, chat)

	var handlerCalls int
	tools := map[string]geminitool.Metadata[digestResult]{
		"get_latest_commits": {
			Definition: &genai.FunctionDeclaration{Name: "get_latest_commits"},
			Handler: func(_ context.Context, call *genai.FunctionCall, tr *trace.Trace[digestResult], _ *digestResult) *genai.FunctionResponse {
				handlerCalls++
				tc := tr.StartToolCall(call.ID, call.Name, call.Args)
				payload := map[string]any{"commits": []string{"fix parser"}}
				tc.Complete(payload, nil)
				return geminitool.Respond(call, payload)
			},
		},
	}

	got, err := r.Run(context.Background(), noopRequest{}, tools)
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if handlerCalls != 1 {
		t.Errorf("handler ran %d times, want 1", handlerCalls)
	}
	if got.Message != "quiet day" {
		t.Errorf("Run() = %+v", got)
	}
	// Second send must carry the tool response back to the model.
	if len(chat.sent) != 2 || chat.sent[1][0].FunctionResponse == nil {
		t.Errorf("tool response was not fed back: %+v", chat.sent)
	}
}

func TestRunToolSubmitsFinalResult(t *testing.T) {
	chat := &scriptedChat{responses: []*genai.GenerateContentResponse{
		callResponse("record_history", map[string]any{"post": "done"}),
		// Never reached: the tool ends the run.
		textResponse(`{"posted": false}`),
	}}
	r := newTestRunner(t, chat)

	tools := map[string]geminitool.Metadata[digestResult]{
		"record_history": {
			Definition: &genai.FunctionDeclaration{Name: "record_history"},
			Handler: func(_ context.Context, call *genai.FunctionCall, _ *trace.Trace[digestResult], result *digestResult) *genai.FunctionResponse {
				*result = digestResult{Posted: true, Message: "done"}
				return geminitool.Respond(call, map[string]any{"success": true})
			},
		},
	}

	got, err := r.Run(context.Background(), noopRequest{}, tools)
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if !got.Posted || got.Message != "done" {
		t.Errorf("Run() = %+v, want the tool-submitted result", got)
	}
	if len(chat.sent) != 1 {
		t.Errorf("sent %d messages, want 1: run must end when a tool submits", len(chat.sent))
	}
}

func TestRunStepBudgetCutsOff(t *testing.T) {
	// The model asks for tools forever; the budget must stop it.
	chat := &scriptedChat{responses: []*genai.GenerateContentResponse{
		callResponse("noisy", nil),
		callResponse("noisy", nil),
		callResponse("noisy", nil),
	}}
	r := newTestRunner(t, chat, WithStepBudget[noopRequest, digestResult](2))

	var handlerCalls int
	tools := map[string]geminitool.Metadata[digestResult]{
		"noisy": {
			Definition: &genai.FunctionDeclaration{Name: "noisy"},
			Handler: func(_ context.Context, call *genai.FunctionCall, _ *trace.Trace[digestResult], _ *digestResult) *genai.FunctionResponse {
				handlerCalls++
				return geminitool.Respond(call, map[string]any{"ok": true})
			},
		},
	}

	got, err := r.Run(context.Background(), noopRequest{}, tools)
	if err != nil {
		t.Fatalf("Run() after budget exhaustion = %v, want nil (truncation, not failure)", err)
	}
	if handlerCalls != 2 {
		t.Errorf("handler ran %d times, want exactly the budget of 2", handlerCalls)
	}
	if got != (digestResult{}) {
		t.Errorf("Run() = %+v, want zero result", got)
	}
}

func TestRunUnknownToolReportsBackToModel(t *testing.T) {
	chat := &scriptedChat{responses: []*genai.GenerateContentResponse{
		callResponse("no_such_tool", nil),
		textResponse(`{"posted": false, "message": "gave up"}`),
	}}
	r := newTestRunner(t, chat)

	got, err := r.Run(context.Background(), noopRequest{}, map[string]geminitool.Metadata[digestResult]{})
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got.Message != "gave up" {
		t.Errorf("Run() = %+v", got)
	}
	fr := chat.sent[1][0].FunctionResponse
	if fr == nil || fr.Response["error"] == nil {
		t.Errorf("unknown tool response = %+v, want error payload", fr)
	}
}

func TestRunRecoverFromMalformedFunctionCall(t *testing.T) {
	malformed := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonMalformedFunctionCall,
		}},
	}
	chat := &scriptedChat{responses: []*genai.GenerateContentResponse{
		malformed,
		textResponse(`{"posted": true, "message": "second try"}`),
	}}
	r := newTestRunner(t, chat)

	got, err := r.Run(context.Background(), noopRequest{}, nil)
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if got.Message != "second try" {
		t.Errorf("Run() = %+v", got)
	}
	if len(chat.sent) != 2 || chat.sent[1][0].Text == "" {
		t.Errorf("no retry message sent after malformed call: %+v", chat.sent)
	}
}

func TestRunUnparseableTextIsTruncationNotError(t *testing.T) {
	chat := &scriptedChat{responses: []*genai.GenerateContentResponse{
		textResponse("I could not complete the task."),
	}}
	r := newTestRunner(t, chat)

	got, err := r.Run(context.Background(), noopRequest{}, nil)
	if err != nil {
		t.Fatalf("Run() = %v, want nil for unparseable final text", err)
	}
	if got != (digestResult{}) {
		t.Errorf("Run() = %+v, want zero result", got)
	}
}

func TestOptionValidation(t *testing.T) {
	prompt := promptbuilder.MustNew(`p`)
	for name, opt := range map[string]Option[noopRequest, digestResult]{
		"bad model":       WithModel[noopRequest, digestResult]("gpt-4"),
		"bad temperature": WithTemperature[noopRequest, digestResult](3.0),
		"bad tokens":      WithMaxOutputTokens[noopRequest, digestResult](0),
		"bad budget":      WithStepBudget[noopRequest, digestResult](0),
		"bad thinking":    WithThinking[noopRequest, digestResult](0),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := New(nil, prompt, opt); err == nil {
				t.Error("New() accepted invalid option")
			}
		})
	}
}
