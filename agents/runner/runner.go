/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package runner drives bounded tool-calling conversations with Gemini
// models. A run binds a request into a prompt, hands the model a set of
// tools, and loops until a tool submits the final result, the model
// settles on text, or the step budget runs out.
package runner

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/chainguard-dev/clog"
	"google.golang.org/genai"

	"github.com/natx223/commitlog/agents/geminitool"
	"github.com/natx223/commitlog/agents/metrics"
	"github.com/natx223/commitlog/agents/promptbuilder"
	"github.com/natx223/commitlog/agents/result"
	"github.com/natx223/commitlog/agents/trace"
)

// Interface is the contract for running one agent conversation.
type Interface[Request promptbuilder.Bindable, Result any] interface {
	Run(ctx context.Context, request Request, tools map[string]geminitool.Metadata[Result]) (Result, error)
}

// chatSession is the slice of *genai.Chat the loop needs; tests swap in
// a scripted session.
type chatSession interface {
	Send(ctx context.Context, parts ...*genai.Part) (*genai.GenerateContentResponse, error)
}

type chatFactory func(ctx context.Context, model string, config *genai.GenerateContentConfig) (chatSession, error)

type runner[Request promptbuilder.Bindable, Result any] struct {
	prompt         *promptbuilder.Prompt
	system         *promptbuilder.Prompt
	model          string
	temperature    float32
	maxTokens      int32
	thinkingBudget *int32
	stepBudget     int
	retryConfig    RetryConfig
	genaiMetrics   *metrics.GenAI
	newChat        chatFactory
}

// New builds a runner over the given client and prompt template.
func New[Request promptbuilder.Bindable, Result any](
	client *genai.Client,
	prompt *promptbuilder.Prompt,
	options ...Option[Request, Result],
) (Interface[Request, Result], error) {
	if prompt == nil {
		return nil, errors.New("prompt is required")
	}

	r := &runner[Request, Result]{
		prompt:       prompt,
		model:        "gemini-2.5-flash",
		temperature:  0.1,
		maxTokens:    8192,
		stepBudget:   5,
		retryConfig:  DefaultRetryConfig(),
		genaiMetrics: metrics.NewGenAI("commitlog.agents"),
	}
	r.newChat = func(ctx context.Context, model string, config *genai.GenerateContentConfig) (chatSession, error) {
		return client.Chats.Create(ctx, model, config, nil)
	}

	for _, opt := range options {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return r, nil
}

// Run executes one conversation. Tool handlers can end the run early by
// setting the final result; otherwise the loop feeds tool responses
// back until the model answers in text. Once the step budget is spent,
// no further tools run: the conversation is cut off with whatever
// result has accumulated, mirroring a capped generation rather than a
// failure.
func (r *runner[Request, Result]) Run(
	ctx context.Context,
	request Request,
	tools map[string]geminitool.Metadata[Result],
) (res Result, err error) {
	log := clog.FromContext(ctx)

	bound, err := request.Bind(r.prompt)
	if err != nil {
		return res, fmt.Errorf("binding request to prompt: %w", err)
	}
	prompt, err := bound.Build()
	if err != nil {
		return res, fmt.Errorf("building prompt: %w", err)
	}

	tr := trace.Start[Result](ctx, prompt)
	defer func() {
		tr.Complete(res, err)
	}()

	config := &genai.GenerateContentConfig{
		Temperature:     ptr(r.temperature),
		MaxOutputTokens: r.maxTokens,
	}
	if r.system != nil {
		systemPrompt, err := r.system.Build()
		if err != nil {
			return res, fmt.Errorf("building system prompt: %w", err)
		}
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, meta := range tools {
		declarations = append(declarations, meta.Definition)
	}
	if len(declarations) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}
	if r.thinkingBudget != nil {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  r.thinkingBudget,
		}
	}

	log.With("model", r.model).Info("Creating chat session")
	chat, err := r.newChat(ctx, r.model, config)
	if err != nil {
		return res, fmt.Errorf("creating chat with model %q: %w", r.model, err)
	}

	var finalResult Result
	response, err := r.send(ctx, tr, chat, "send_prompt", &genai.Part{Text: prompt})
	if err != nil {
		return res, err
	}

	steps := 0
	var responseText string
	for {
		if len(response.Candidates) == 0 {
			return res, errors.New("no content generated: no candidates")
		}
		candidate := response.Candidates[0]

		if candidate.FinishReason == genai.FinishReasonMalformedFunctionCall {
			log.With("finish_message", candidate.FinishMessage).
				Warn("Model produced a malformed function call, asking it to retry")
			names := make([]string, 0, len(declarations))
			for _, decl := range declarations {
				names = append(names, decl.Name)
			}
			response, err = r.send(ctx, tr, chat, "send_malformed_retry", &genai.Part{
				Text: fmt.Sprintf("The function call was malformed. Please try again using the available functions: %v", names),
			})
			if err != nil {
				return res, fmt.Errorf("recovering from malformed function call: %w", err)
			}
			continue
		}

		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			return res, errors.New("no content generated: empty candidate")
		}

		var calls []*genai.FunctionCall
		var hasText bool
		for _, part := range candidate.Content.Parts {
			switch {
			case part.Thought:
				tr.AddReasoning(part.Text)
			case part.Text != "":
				responseText = part.Text
				hasText = true
			case part.FunctionCall != nil:
				calls = append(calls, part.FunctionCall)
			}
		}

		if len(calls) > 0 {
			if steps >= r.stepBudget {
				log.With("steps", steps).With("budget", r.stepBudget).
					Warn("Step budget exhausted, cutting conversation off")
				break
			}

			var responseParts []*genai.Part
			for _, call := range calls {
				steps++
				log.With("tool", call.Name).With("id", call.ID).With("step", steps).
					Info("Executing tool call")
				r.genaiMetrics.RecordToolCall(ctx, r.model, call.Name)

				var toolResponse *genai.FunctionResponse
				if meta, ok := tools[call.Name]; ok {
					toolResponse = meta.Handler(ctx, call, tr, &finalResult)
				} else {
					log.With("tool", call.Name).Error("Model requested an unknown tool")
					tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("unknown tool: %q", call.Name))
					toolResponse = geminitool.Error(call, "Unknown function: %s", call.Name)
				}

				if !reflect.ValueOf(&finalResult).Elem().IsZero() {
					log.Info("Tool submitted the final result, ending conversation")
					return finalResult, nil
				}
				responseParts = append(responseParts, &genai.Part{FunctionResponse: toolResponse})
			}

			response, err = r.send(ctx, tr, chat, "send_tool_responses", responseParts...)
			if err != nil {
				return res, fmt.Errorf("sending tool responses: %w", err)
			}
			continue
		}

		if hasText && responseText != "" {
			break
		}
		return res, errors.New("unexpected response: no text and no tool calls")
	}

	if responseText == "" {
		// Budget ran out before the model produced any text. The run is
		// truncated, not failed.
		log.Warn("Conversation ended without text output")
		return res, nil
	}
	parsed, err := result.Extract[Result](responseText)
	if err != nil {
		log.With("response", responseText).With("error", err).
			Warn("Final text was not parseable, returning zero result")
		return res, nil
	}
	return parsed, nil
}

func ptr[T any](v T) *T {
	return &v
}

func (r *runner[Request, Result]) send(
	ctx context.Context,
	tr *trace.Trace[Result],
	chat chatSession,
	operation string,
	parts ...*genai.Part,
) (*genai.GenerateContentResponse, error) {
	response, err := withBackoff(ctx, r.retryConfig, operation, isRetryableModelError, func() (*genai.GenerateContentResponse, error) {
		return chat.Send(ctx, parts...)
	})
	if err != nil {
		return nil, err
	}
	if response != nil && response.UsageMetadata != nil {
		usage := response.UsageMetadata
		r.genaiMetrics.RecordTokens(ctx, r.model, int64(usage.PromptTokenCount), int64(usage.CandidatesTokenCount))
		tr.RecordTokenUsage(r.model, int64(usage.PromptTokenCount), int64(usage.CandidatesTokenCount))
	}
	return response, nil
}
