/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package scheduler fires the posting agent for every schedule whose
// slot matches the current UTC hour. One user's failure never blocks
// another's run.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/natx223/commitlog/agent"
	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/github"
	"github.com/natx223/commitlog/store"
)

// DefaultRunTimeout bounds one agent conversation.
const DefaultRunTimeout = 5 * time.Minute

// Runner executes one posting conversation.
type Runner interface {
	Run(ctx context.Context, req agent.Request) (agent.Outcome, error)
}

// loginFunc resolves the GitHub login that owns a token.
type loginFunc func(ctx context.Context, token string) (string, error)

// Scheduler matches schedules to clock slots and fans runs out.
type Scheduler struct {
	schedules store.Schedules
	users     store.Users
	runner    Runner

	login      loginFunc
	runTimeout time.Duration
}

// Option adjusts a Scheduler.
type Option func(*Scheduler)

// WithRunTimeout overrides the per-run timeout. Zero disables it.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.runTimeout = d
	}
}

// New builds a Scheduler. The GitHub client resolves each user's login
// from their stored token at run time, so renamed accounts keep
// working.
func New(schedules store.Schedules, users store.Users, gh *github.Client, runner Runner, options ...Option) *Scheduler {
	s := &Scheduler{
		schedules:  schedules,
		users:      users,
		runner:     runner,
		runTimeout: DefaultRunTimeout,
		login: func(ctx context.Context, token string) (string, error) {
			profile, err := gh.AuthenticatedUser(ctx, token)
			if err != nil {
				return "", err
			}
			return profile.Login, nil
		},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// RunDaily fires every daily schedule whose postUTCHour matches now.
func (s *Scheduler) RunDaily(ctx context.Context, now time.Time) error {
	return s.run(ctx, store.CadenceDaily, now, 1)
}

// RunWeekly fires every weekly schedule whose postUTCHour and weekday
// match now.
func (s *Scheduler) RunWeekly(ctx context.Context, now time.Time) error {
	return s.run(ctx, store.CadenceWeekly, now, 7)
}

// run queries the slot and executes all matches before returning. Only
// the slot query itself can fail the batch; every per-user error is
// logged and swallowed.
func (s *Scheduler) run(ctx context.Context, cadence store.Cadence, now time.Time, windowDays int) error {
	log := clog.FromContext(ctx)

	utc := now.UTC()
	hour := utc.Hour()
	weekday := ""
	if cadence == store.CadenceWeekly {
		weekday = strings.ToLower(utc.Weekday().String())
	}

	matches, err := s.schedules.SchedulesAt(ctx, cadence, hour, weekday)
	if err != nil {
		return fmt.Errorf("querying %s schedules for hour %d: %w", cadence, hour, err)
	}
	if len(matches) == 0 {
		log.With("cadence", cadence).With("hour", hour).Info("No schedules for this hour")
		return nil
	}
	log.With("cadence", cadence).With("hour", hour).With("count", len(matches)).
		Info("Processing scheduled posts")

	var g errgroup.Group
	for _, sched := range matches {
		g.Go(func() error {
			if err := s.runOne(ctx, sched, cadence, windowDays); err != nil {
				log.With("user", sched.UserID).With("schedule", sched.ID).
					With("error", err).Error("Scheduled run failed")
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) runOne(ctx context.Context, sched store.Schedule, cadence store.Cadence, windowDays int) error {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	user, err := s.users.GetUser(ctx, sched.UserID)
	if err != nil {
		return fmt.Errorf("loading user: %w", err)
	}
	if user.GitHub == nil {
		return apperror.NotConnected(sched.UserID, "github")
	}
	login, err := s.login(ctx, user.GitHub.AccessToken)
	if err != nil {
		return fmt.Errorf("resolving GitHub login: %w", err)
	}

	_, err = s.runner.Run(ctx, agent.Request{
		UserID:     sched.UserID,
		Username:   login,
		Repo:       sched.Repo,
		WindowDays: windowDays,
		Cadence:    cadence,
	})
	return err
}
