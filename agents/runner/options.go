/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/natx223/commitlog/agents/metrics"
	"github.com/natx223/commitlog/agents/promptbuilder"
)

// Option configures a runner.
type Option[Request promptbuilder.Bindable, Result any] func(*runner[Request, Result]) error

// WithModel sets the Gemini model.
func WithModel[Request promptbuilder.Bindable, Result any](model string) Option[Request, Result] {
	return func(r *runner[Request, Result]) error {
		if !strings.HasPrefix(model, "gemini-") {
			return fmt.Errorf("model %q does not appear to be a Gemini model", model)
		}
		r.model = model
		return nil
	}
}

// WithTemperature sets the sampling temperature. Gemini accepts 0.0-2.0.
func WithTemperature[Request promptbuilder.Bindable, Result any](temperature float32) Option[Request, Result] {
	return func(r *runner[Request, Result]) error {
		if temperature < 0.0 || temperature > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temperature)
		}
		r.temperature = temperature
		return nil
	}
}

// WithMaxOutputTokens bounds the generation length.
func WithMaxOutputTokens[Request promptbuilder.Bindable, Result any](tokens int32) Option[Request, Result] {
	return func(r *runner[Request, Result]) error {
		if tokens <= 0 {
			return fmt.Errorf("max output tokens must be positive, got %d", tokens)
		}
		if tokens > 32768 {
			return fmt.Errorf("max output tokens %d exceeds maximum of 32768", tokens)
		}
		r.maxTokens = tokens
		return nil
	}
}

// WithSystemInstructions sets the system prompt.
func WithSystemInstructions[Request promptbuilder.Bindable, Result any](prompt *promptbuilder.Prompt) Option[Request, Result] {
	return func(r *runner[Request, Result]) error {
		if prompt == nil {
			return errors.New("system instructions prompt cannot be nil")
		}
		r.system = prompt
		return nil
	}
}

// WithStepBudget caps the number of tool invocations in one run. When
// the budget is spent the conversation is cut off, not failed.
func WithStepBudget[Request promptbuilder.Bindable, Result any](steps int) Option[Request, Result] {
	return func(r *runner[Request, Result]) error {
		if steps <= 0 {
			return fmt.Errorf("step budget must be positive, got %d", steps)
		}
		r.stepBudget = steps
		return nil
	}
}

// WithThinking enables thinking with the given token budget; -1 lets the
// model size its own reasoning. The budget counts against max output
// tokens, so it must stay below them.
func WithThinking[Request promptbuilder.Bindable, Result any](budgetTokens int32) Option[Request, Result] {
	return func(r *runner[Request, Result]) error {
		if budgetTokens == -1 {
			r.thinkingBudget = &budgetTokens
			return nil
		}
		if budgetTokens <= 0 {
			return fmt.Errorf("thinking budget must be positive (or -1 for dynamic), got %d", budgetTokens)
		}
		if budgetTokens >= r.maxTokens {
			return fmt.Errorf("thinking budget (%d) must be less than max output tokens (%d)", budgetTokens, r.maxTokens)
		}
		r.thinkingBudget = &budgetTokens
		return nil
	}
}

// WithRetryConfig overrides the transient-error retry behavior.
func WithRetryConfig[Request promptbuilder.Bindable, Result any](cfg RetryConfig) Option[Request, Result] {
	return func(r *runner[Request, Result]) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		r.retryConfig = cfg
		return nil
	}
}

// WithMetricsEnricher installs an attribute enricher so recorded token
// and tool metrics carry run context.
func WithMetricsEnricher[Request promptbuilder.Bindable, Result any](enricher metrics.Enricher) Option[Request, Result] {
	return func(r *runner[Request, Result]) error {
		r.genaiMetrics.SetEnricher(enricher)
		return nil
	}
}
