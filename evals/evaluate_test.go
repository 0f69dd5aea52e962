/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/natx223/commitlog/judge"
	"github.com/natx223/commitlog/store"
)

// scriptedJudge scores by response content and fails on demand.
type scriptedJudge struct {
	mu     sync.Mutex
	scores map[string]float64
	failOn map[string]bool
	seen   []string
}

func (s *scriptedJudge) Judge(_ context.Context, req *judge.Request) (*judge.Judgement, error) {
	s.mu.Lock()
	s.seen = append(s.seen, req.Criterion)
	s.mu.Unlock()
	if s.failOn[req.Response] {
		return nil, errors.New("judge unavailable")
	}
	return &judge.Judgement{Score: s.scores[req.Response], Reasoning: "scripted"}, nil
}

// countingObserver records calls per metric.
type countingObserver struct {
	mu         sync.Mutex
	increments int
	failures   int
	grades     []float64
}

func (c *countingObserver) Increment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.increments++
}

func (c *countingObserver) Fail(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
}

func (c *countingObserver) Grade(score float64, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grades = append(c.grades, score)
}

func items(outputs ...string) []store.DatasetItem {
	out := make([]store.DatasetItem, 0, len(outputs))
	for i, o := range outputs {
		out = append(out, store.DatasetItem{ID: string(rune('a' + i)), Input: "digest for " + o, Output: o})
	}
	return out
}

func TestEvaluateAggregatesMeans(t *testing.T) {
	j := &scriptedJudge{scores: map[string]float64{"good": 1.0, "okay": 0.5}}

	report, err := Evaluate(context.Background(), "exp", items("good", "okay"), j,
		[]Metric{Hallucination, AnswerRelevance}, nil)
	if err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}
	if report.Cases != 2 {
		t.Errorf("Cases = %d, want 2", report.Cases)
	}
	if len(report.Grades) != 4 {
		t.Errorf("Grades = %d, want 2 items x 2 metrics", len(report.Grades))
	}
	want := map[string]float64{"hallucination": 0.75, "answer_relevance": 0.75}
	if diff := cmp.Diff(want, report.Means, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Means mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateSkipsFailedJudgements(t *testing.T) {
	j := &scriptedJudge{
		scores: map[string]float64{"good": 1.0},
		failOn: map[string]bool{"broken": true},
	}
	obs := &countingObserver{}

	report, err := Evaluate(context.Background(), "exp", items("good", "broken"), j,
		[]Metric{Hallucination}, func(string) Observer { return obs })
	if err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}
	if got := report.Mean("hallucination"); got != 1.0 {
		t.Errorf("Mean = %v, want failed item excluded from the mean", got)
	}
	if obs.increments != 2 || obs.failures != 1 || len(obs.grades) != 1 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestEvaluateAllFailures(t *testing.T) {
	j := &scriptedJudge{failOn: map[string]bool{"broken": true}}
	if _, err := Evaluate(context.Background(), "exp", items("broken"), j,
		[]Metric{Hallucination}, nil); err == nil {
		t.Fatal("Evaluate() = nil, want error when nothing could be judged")
	}
}

func TestEvaluateEmptyDataset(t *testing.T) {
	j := &scriptedJudge{}
	if _, err := Evaluate(context.Background(), "exp", nil, j, []Metric{Hallucination}, nil); err == nil {
		t.Fatal("Evaluate() = nil, want error for empty dataset")
	}
}

func TestCriteriaReferenceSourceMaterial(t *testing.T) {
	j := &scriptedJudge{scores: map[string]float64{"good": 1.0}}
	if _, err := Evaluate(context.Background(), "exp", items("good"), j,
		[]Metric{Hallucination}, nil); err != nil {
		t.Fatalf("Evaluate() = %v", err)
	}
	if len(j.seen) != 1 || !strings.Contains(j.seen[0], "digest for good") {
		t.Errorf("criterion = %q, want it to embed the item input", j.seen)
	}
}
