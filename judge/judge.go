/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package judge scores a generated post against a single evaluation
// criterion using a Claude model. Judgements are standalone: there is
// no reference answer, only the response and the criterion.
package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/natx223/commitlog/agents/promptbuilder"
	"github.com/natx223/commitlog/agents/result"
)

// Request is one judgement to perform.
type Request struct {
	// Response is the text to evaluate.
	Response string `json:"response"`
	// Criterion is what the response is scored on.
	Criterion string `json:"criterion"`
}

// Bind implements promptbuilder.Bindable for Request.
func (r *Request) Bind(prompt *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	prompt, err := prompt.BindXML("response", struct {
		XMLName struct{} `xml:"response"`
		Content string   `xml:",chardata"`
	}{Content: r.Response})
	if err != nil {
		return nil, err
	}
	return prompt.BindXML("criterion", struct {
		XMLName struct{} `xml:"criterion"`
		Content string   `xml:",chardata"`
	}{Content: r.Criterion})
}

// Judgement is the outcome of one judgement.
type Judgement struct {
	// Score runs from 0.0 (fails the criterion) to 1.0 (meets it fully).
	Score float64 `json:"score"`
	// Reasoning explains the score.
	Reasoning string `json:"reasoning"`
	// Suggestions recommend improvements. Empty for perfect scores.
	Suggestions []string `json:"suggestions"`
}

// Validate rejects judgements whose score escaped the rubric's range.
func (j *Judgement) Validate() error {
	if j.Score < 0 || j.Score > 1 {
		return fmt.Errorf("score %v is outside [0.0, 1.0]", j.Score)
	}
	return nil
}

// String formats a judgement the way trace output does.
func (j *Judgement) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Grade: %.2f", j.Score)
	if j.Reasoning != "" {
		fmt.Fprintf(&sb, " - %s", j.Reasoning)
	}
	for _, s := range j.Suggestions {
		fmt.Fprintf(&sb, "\n  Suggestion: %s", s)
	}
	return sb.String()
}

// Interface is the contract for judge implementations.
type Interface interface {
	Judge(ctx context.Context, request *Request) (*Judgement, error)
}

type completeFunc func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)

// claude implements Interface over the Anthropic API.
type claude struct {
	model       string
	maxTokens   int64
	temperature float64

	// complete is replaceable in tests.
	complete completeFunc
}

// Option adjusts a Claude judge.
type Option func(*claude)

// WithModel overrides the judge model.
func WithModel(model string) Option {
	return func(c *claude) {
		c.model = model
	}
}

// NewClaude builds a judge over the given Anthropic client.
func NewClaude(client anthropic.Client, options ...Option) Interface {
	c := &claude{
		model:       string(anthropic.ModelClaudeSonnet4_5),
		maxTokens:   8192,
		temperature: 0.1,
		complete: func(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
			return client.Messages.New(ctx, params)
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Judge implements Interface.
func (c *claude) Judge(ctx context.Context, request *Request) (*Judgement, error) {
	if request.Response == "" {
		return nil, errors.New("response is required")
	}
	if request.Criterion == "" {
		return nil, errors.New("criterion is required")
	}

	bound, err := request.Bind(standalonePrompt)
	if err != nil {
		return nil, fmt.Errorf("binding judgement prompt: %w", err)
	}
	prompt, err := bound.Build()
	if err != nil {
		return nil, fmt.Errorf("building judgement prompt: %w", err)
	}

	message, err := c.complete(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(prompt),
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("judging response: %w", err)
	}

	var text string
	for _, content := range message.Content {
		if content.Type == "text" {
			text = content.Text
		}
	}
	if text == "" {
		return nil, errors.New("no text in judge response")
	}

	judgement, err := result.Extract[*Judgement](text)
	if err != nil {
		return nil, fmt.Errorf("parsing judgement: %w", err)
	}
	if err := judgement.Validate(); err != nil {
		return nil, fmt.Errorf("invalid judgement: %w", err)
	}
	return judgement, nil
}
