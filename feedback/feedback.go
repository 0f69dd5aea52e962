/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package feedback routes user quality ratings into the curation
// dataset or an evaluation pass. The rating itself is always persisted;
// everything downstream of it is a side channel that must not fail the
// submission.
package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/rs/xid"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/evals"
	"github.com/natx223/commitlog/judge"
	"github.com/natx223/commitlog/store"
)

const (
	// CurationThreshold is the minimum score, inclusive, on both axes for
	// a response to enter the curation dataset.
	CurationThreshold = 0.5

	// ExperimentName labels evaluation passes triggered by low feedback.
	ExperimentName = "CommitLogExperiment"
)

// Submission is one feedback event from a user.
type Submission struct {
	UserID      string
	ResponseID  string
	Correctness float64
	Feature     float64
	Improvement string
}

// Validate rejects submissions with missing keys or out-of-range scores.
func (s Submission) Validate() error {
	if s.UserID == "" {
		return apperror.Validation("userId", "is required")
	}
	if s.ResponseID == "" {
		return apperror.Validation("responseId", "is required")
	}
	if s.Correctness < 0 || s.Correctness > 1 {
		return apperror.Validation("correctness", "must be between 0 and 1")
	}
	if s.Feature < 0 || s.Feature > 1 {
		return apperror.Validation("feature", "must be between 0 and 1")
	}
	return nil
}

// curationWorthy reports whether both scores clear the threshold. The
// boundary is inclusive: 0.5/0.5 feedback curates.
func (s Submission) curationWorthy() bool {
	return s.Correctness >= CurationThreshold && s.Feature >= CurationThreshold
}

// Processor persists feedback and drives the curation/evaluation side
// channel.
type Processor struct {
	store store.Store
	judge judge.Interface

	now     func() time.Time
	observe func(metric string) evals.Observer
}

// NewProcessor builds a Processor. The judge may be nil, in which case
// low feedback only records the rating without running an evaluation.
func NewProcessor(st store.Store, j judge.Interface) *Processor {
	return &Processor{
		store: st,
		judge: j,
		now:   time.Now,
		observe: func(metric string) evals.Observer {
			return evals.NewMetricsObserver(metric, ExperimentName)
		},
	}
}

// Submit persists the rating and runs the side channel. Only validation
// and the rating write itself can fail the call.
func (p *Processor) Submit(ctx context.Context, sub Submission) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	if err := p.store.CreateFeedback(ctx, store.Feedback{
		ResponseID:  sub.ResponseID,
		UserID:      sub.UserID,
		Correctness: sub.Correctness,
		Feature:     sub.Feature,
		Improvement: sub.Improvement,
		CreatedAt:   p.now(),
	}); err != nil {
		return fmt.Errorf("persisting feedback: %w", err)
	}

	p.sideChannel(ctx, sub)
	return nil
}

// sideChannel attaches the scores to the run's trace and either curates
// the response or triggers an evaluation pass. Every failure here is
// logged and swallowed.
func (p *Processor) sideChannel(ctx context.Context, sub Submission) {
	log := clog.FromContext(ctx).With("response", sub.ResponseID)

	tr, err := p.store.FindTraceByTag(ctx, sub.ResponseID)
	if err != nil {
		log.With("error", err).Warn("No trace found for feedback, skipping side channel")
		return
	}

	if err := p.store.AttachTraceScores(ctx, tr.ID, []store.TraceScore{
		{Name: "correctness", Value: sub.Correctness},
		{Name: "feature", Value: sub.Feature},
	}); err != nil {
		log.With("error", err).Warn("Attaching feedback scores failed")
	}

	if sub.curationWorthy() {
		if err := p.store.InsertDatasetItem(ctx, store.DatasetItem{
			ID:          xid.New().String(),
			Input:       tr.Input,
			Output:      tr.Output,
			Correctness: sub.Correctness,
			Feature:     sub.Feature,
			AddedAt:     p.now(),
		}); err != nil {
			log.With("error", err).Warn("Curating response into dataset failed")
			return
		}
		log.Info("Response curated into baseline dataset")
		return
	}

	p.evaluate(ctx, log)
}

// evaluate runs the hallucination and relevance pass over the baseline
// dataset and records the aggregate result.
func (p *Processor) evaluate(ctx context.Context, log *clog.Logger) {
	if p.judge == nil {
		log.Warn("No judge configured, skipping evaluation pass")
		return
	}

	items, err := p.store.ListDatasetItems(ctx)
	if err != nil {
		log.With("error", err).Warn("Loading baseline dataset failed")
		return
	}
	if len(items) == 0 {
		log.Info("Baseline dataset is empty, nothing to evaluate")
		return
	}

	report, err := evals.Evaluate(ctx, ExperimentName, items, p.judge,
		[]evals.Metric{evals.Hallucination, evals.AnswerRelevance}, p.observe)
	if err != nil {
		log.With("error", err).Warn("Evaluation pass failed")
		return
	}

	if err := p.store.RecordEvalRun(ctx, store.EvalRun{
		ID:            xid.New().String(),
		Experiment:    report.Experiment,
		Hallucination: report.Mean(evals.Hallucination.Name),
		Relevance:     report.Mean(evals.AnswerRelevance.Name),
		Cases:         report.Cases,
		CreatedAt:     p.now(),
	}); err != nil {
		log.With("error", err).Warn("Recording evaluation run failed")
		return
	}
	log.With("cases", report.Cases).Info("Evaluation pass recorded")
}
