/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package evals runs judge-scored evaluation passes over the curated
// baseline dataset and aggregates the grades into a report.
package evals

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/natx223/commitlog/judge"
	"github.com/natx223/commitlog/store"
)

// maxConcurrentJudgements bounds parallel judge calls per pass.
const maxConcurrentJudgements = 4

// Metric names one quality dimension and phrases the judge criterion
// for a given item's source material.
type Metric struct {
	Name      string
	Criterion func(input string) string
}

// Hallucination scores whether the post only describes work actually
// present in the commit digest it was generated from.
var Hallucination = Metric{
	Name: "hallucination",
	Criterion: func(input string) string {
		return fmt.Sprintf(
			"The response must only describe work that is present in the following source material, without inventing features, fixes, or progress: %s",
			input)
	},
}

// AnswerRelevance scores whether the post is on topic for its digest.
var AnswerRelevance = Metric{
	Name: "answer_relevance",
	Criterion: func(input string) string {
		return fmt.Sprintf(
			"The response must be a relevant, on-topic summary of the following source material rather than a generic update: %s",
			input)
	},
}

// Grade is one item's score on one metric.
type Grade struct {
	ItemID    string
	Metric    string
	Score     float64
	Reasoning string
}

// Report aggregates one evaluation pass.
type Report struct {
	Experiment string
	Grades     []Grade
	// Means holds the per-metric mean over successfully judged items.
	Means map[string]float64
	// Cases is how many dataset items the pass covered.
	Cases int
}

// Mean returns the mean for a metric, zero when nothing was graded.
func (r *Report) Mean(metric string) float64 {
	return r.Means[metric]
}

// Evaluate judges every dataset item on every metric. Individual
// judgement failures are counted and skipped; the pass only fails when
// nothing could be judged at all.
func Evaluate(
	ctx context.Context,
	experiment string,
	items []store.DatasetItem,
	j judge.Interface,
	metrics []Metric,
	observe func(metric string) Observer,
) (*Report, error) {
	if len(items) == 0 {
		return nil, errors.New("dataset is empty")
	}
	if len(metrics) == 0 {
		return nil, errors.New("no metrics to evaluate")
	}
	if observe == nil {
		observe = func(string) Observer { return nopObserver{} }
	}
	log := clog.FromContext(ctx)

	report := &Report{
		Experiment: experiment,
		Means:      make(map[string]float64, len(metrics)),
		Cases:      len(items),
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(maxConcurrentJudgements)

	for _, metric := range metrics {
		obs := observe(metric.Name)
		for _, item := range items {
			g.Go(func() error {
				obs.Increment()
				judgement, err := j.Judge(ctx, &judge.Request{
					Response:  item.Output,
					Criterion: metric.Criterion(item.Input),
				})
				if err != nil {
					obs.Fail(err.Error())
					log.With("item", item.ID).With("metric", metric.Name).
						With("error", err).Warn("Judgement failed, skipping item")
					return nil
				}
				obs.Grade(judgement.Score, judgement.Reasoning)

				mu.Lock()
				report.Grades = append(report.Grades, Grade{
					ItemID:    item.ID,
					Metric:    metric.Name,
					Score:     judgement.Score,
					Reasoning: judgement.Reasoning,
				})
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(report.Grades) == 0 {
		return nil, errors.New("every judgement failed")
	}

	sums := make(map[string]float64, len(metrics))
	counts := make(map[string]int, len(metrics))
	for _, grade := range report.Grades {
		sums[grade.Metric] += grade.Score
		counts[grade.Metric]++
	}
	for name, sum := range sums {
		report.Means[name] = sum / float64(counts[name])
	}
	return report, nil
}
