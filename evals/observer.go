/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package evals

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evaluationCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commitlog_evaluations_total",
			Help: "Total number of judge evaluations performed",
		},
		[]string{"metric", "experiment"},
	)

	failureCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commitlog_evaluation_failures_total",
			Help: "Total number of failed judge evaluations",
		},
		[]string{"metric", "experiment"},
	)

	gradeGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "commitlog_evaluation_grade",
			Help: "Most recent evaluation grade (0.0-1.0)",
		},
		[]string{"metric", "experiment"},
	)
)

// Observer watches one metric's evaluations within an experiment.
type Observer interface {
	// Increment is called once per evaluated item.
	Increment()
	// Fail marks one item's evaluation as failed.
	Fail(msg string)
	// Grade records one item's score.
	Grade(score float64, reasoning string)
}

// MetricsObserver implements Observer with Prometheus metrics.
type MetricsObserver struct {
	evalCounter prometheus.Counter
	failCounter prometheus.Counter
	gradeGauge  prometheus.Gauge
}

// NewMetricsObserver creates an observer labeled with the metric and
// experiment names.
func NewMetricsObserver(metric, experiment string) *MetricsObserver {
	labels := prometheus.Labels{"metric": metric, "experiment": experiment}
	return &MetricsObserver{
		evalCounter: evaluationCounter.With(labels),
		failCounter: failureCounter.With(labels),
		gradeGauge:  gradeGauge.With(labels),
	}
}

// Increment implements Observer.
func (m *MetricsObserver) Increment() {
	m.evalCounter.Inc()
}

// Fail implements Observer.
func (m *MetricsObserver) Fail(string) {
	m.failCounter.Inc()
}

// Grade implements Observer.
func (m *MetricsObserver) Grade(score float64, _ string) {
	m.gradeGauge.Set(score)
}

// nopObserver is used when the caller does not care about metrics.
type nopObserver struct{}

func (nopObserver) Increment()            {}
func (nopObserver) Fail(string)           {}
func (nopObserver) Grade(float64, string) {}
