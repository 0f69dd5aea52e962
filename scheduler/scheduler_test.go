/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/natx223/commitlog/agent"
	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
	"github.com/natx223/commitlog/store/sqlite"
)

type fakeSchedules struct {
	matches []store.Schedule
	err     error

	gotCadence store.Cadence
	gotHour    int
	gotWeekday string
}

func (f *fakeSchedules) CreateSchedule(context.Context, *store.Schedule) error { return nil }

func (f *fakeSchedules) SchedulesAt(_ context.Context, cadence store.Cadence, utcHour int, weekday string) ([]store.Schedule, error) {
	f.gotCadence, f.gotHour, f.gotWeekday = cadence, utcHour, weekday
	return f.matches, f.err
}

func (f *fakeSchedules) SchedulesForUser(context.Context, string) ([]store.Schedule, error) {
	return nil, nil
}

func (f *fakeSchedules) DeleteSchedule(context.Context, string, string) error { return nil }

type fakeUsers struct {
	users map[string]*store.User
}

func (f *fakeUsers) UpsertUser(context.Context, string, store.Profile) (*store.User, error) {
	return nil, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*store.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUsers) SetGitHubCredential(context.Context, string, store.GitHubCredential) error {
	return nil
}

func (f *fakeUsers) SetSocialCredential(context.Context, string, store.SocialCredential) error {
	return nil
}

// recordingRunner succeeds or fails per user id and remembers every
// request it saw.
type recordingRunner struct {
	mu       sync.Mutex
	requests []agent.Request
	failFor  map[string]bool
}

func (r *recordingRunner) Run(_ context.Context, req agent.Request) (agent.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[req.UserID] {
		return agent.Outcome{}, errors.New("model unavailable")
	}
	r.requests = append(r.requests, req)
	return agent.Outcome{Posted: true}, nil
}

func (r *recordingRunner) ranUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, req.UserID)
	}
	sort.Strings(out)
	return out
}

func githubUser(id string) *store.User {
	return &store.User{ID: id, GitHub: &store.GitHubCredential{AccessToken: "tok-" + id}}
}

func testScheduler(schedules store.Schedules, users store.Users, runner Runner) *Scheduler {
	s := New(schedules, users, nil, runner, WithRunTimeout(time.Minute))
	s.login = func(_ context.Context, token string) (string, error) {
		return "login-for-" + token, nil
	}
	return s
}

func TestRunDailyQueriesCurrentHour(t *testing.T) {
	schedules := &fakeSchedules{}
	s := testScheduler(schedules, &fakeUsers{}, &recordingRunner{})

	now := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	if err := s.RunDaily(context.Background(), now); err != nil {
		t.Fatalf("RunDaily() = %v", err)
	}
	if schedules.gotCadence != store.CadenceDaily || schedules.gotHour != 9 {
		t.Errorf("queried (%s, %d), want (daily, 9)", schedules.gotCadence, schedules.gotHour)
	}
	if schedules.gotWeekday != "" {
		t.Errorf("weekday = %q, want it ignored for daily", schedules.gotWeekday)
	}
}

func TestRunWeeklyQueriesWeekday(t *testing.T) {
	schedules := &fakeSchedules{}
	s := testScheduler(schedules, &fakeUsers{}, &recordingRunner{})

	// 2026-08-28 is a Friday.
	now := time.Date(2026, 8, 28, 17, 5, 0, 0, time.UTC)
	if err := s.RunWeekly(context.Background(), now); err != nil {
		t.Fatalf("RunWeekly() = %v", err)
	}
	if schedules.gotCadence != store.CadenceWeekly || schedules.gotHour != 17 || schedules.gotWeekday != "friday" {
		t.Errorf("queried (%s, %d, %q), want (weekly, 17, friday)",
			schedules.gotCadence, schedules.gotHour, schedules.gotWeekday)
	}
}

func TestRunDailyIsolatesFailures(t *testing.T) {
	var matches []store.Schedule
	users := &fakeUsers{users: map[string]*store.User{}}
	for _, id := range []string{"u1", "u2", "u3", "u4", "u5"} {
		matches = append(matches, store.Schedule{ID: "s-" + id, UserID: id, Repo: "proj", Cadence: store.CadenceDaily, PostUTCHour: 9})
		users.users[id] = githubUser(id)
	}
	runner := &recordingRunner{failFor: map[string]bool{"u1": true, "u3": true, "u5": true}}
	s := testScheduler(&fakeSchedules{matches: matches}, users, runner)

	err := s.RunDaily(context.Background(), time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("RunDaily() = %v, want per-user failures swallowed", err)
	}
	if got := runner.ranUsers(); len(got) != 2 || got[0] != "u2" || got[1] != "u4" {
		t.Errorf("completed runs = %v, want [u2 u4]", got)
	}
}

func TestRunDailySkipsUserWithoutGitHub(t *testing.T) {
	matches := []store.Schedule{
		{ID: "s1", UserID: "u1", Repo: "proj", Cadence: store.CadenceDaily, PostUTCHour: 9},
		{ID: "s2", UserID: "u2", Repo: "proj", Cadence: store.CadenceDaily, PostUTCHour: 9},
	}
	users := &fakeUsers{users: map[string]*store.User{
		"u1": {ID: "u1"}, // no github connection
		"u2": githubUser("u2"),
	}}
	runner := &recordingRunner{}
	s := testScheduler(&fakeSchedules{matches: matches}, users, runner)

	if err := s.RunDaily(context.Background(), time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("RunDaily() = %v", err)
	}
	if got := runner.ranUsers(); len(got) != 1 || got[0] != "u2" {
		t.Errorf("completed runs = %v, want [u2]", got)
	}
}

func TestRunDailyPropagatesQueryError(t *testing.T) {
	s := testScheduler(&fakeSchedules{err: errors.New("db down")}, &fakeUsers{}, &recordingRunner{})
	if err := s.RunDaily(context.Background(), time.Now()); err == nil {
		t.Fatal("RunDaily() = nil, want the slot query error")
	}
}

func TestRunDailyRequestShape(t *testing.T) {
	matches := []store.Schedule{
		{ID: "s1", UserID: "u1", Repo: "proj", Cadence: store.CadenceDaily, PostUTCHour: 9},
	}
	users := &fakeUsers{users: map[string]*store.User{"u1": githubUser("u1")}}
	runner := &recordingRunner{}
	s := testScheduler(&fakeSchedules{matches: matches}, users, runner)

	if err := s.RunDaily(context.Background(), time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("RunDaily() = %v", err)
	}
	if len(runner.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(runner.requests))
	}
	req := runner.requests[0]
	if req.Username != "login-for-tok-u1" {
		t.Errorf("Username = %q, want it resolved from the stored token", req.Username)
	}
	if req.WindowDays != 1 || req.Cadence != store.CadenceDaily || req.Repo != "proj" {
		t.Errorf("request = %+v", req)
	}
}

// The end-to-end slot test runs against the real store: two users with
// schedules at different hours, one batch at 09:00, and only the 09:00
// user's history gains an entry.
func TestRunDailyEndToEnd(t *testing.T) {
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("sqlite.New() = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	for _, u := range []struct {
		id   string
		hour int
	}{{"morning", 9}, {"evening", 17}} {
		if _, err := db.UpsertUser(ctx, u.id, store.Profile{DisplayName: u.id}); err != nil {
			t.Fatalf("UpsertUser(%s) = %v", u.id, err)
		}
		if err := db.SetGitHubCredential(ctx, u.id, store.GitHubCredential{AccessToken: "tok-" + u.id}); err != nil {
			t.Fatalf("SetGitHubCredential(%s) = %v", u.id, err)
		}
		if err := db.CreateSchedule(ctx, &store.Schedule{
			UserID:      u.id,
			Username:    u.id,
			Repo:        "proj",
			Cadence:     store.CadenceDaily,
			PostUTCHour: u.hour,
		}); err != nil {
			t.Fatalf("CreateSchedule(%s) = %v", u.id, err)
		}
	}

	// The stub runner stands in for the whole conversation: it writes
	// the history entry the record tool would have written.
	runner := runnerFunc(func(ctx context.Context, req agent.Request) (agent.Outcome, error) {
		entry := store.HistoryEntry{
			EntryID:   "run-" + req.UserID,
			Content:   "shipped",
			Link:      "https://x.com/i/web/status/1",
			Timestamp: time.Now(),
		}
		if err := db.PutHistory(ctx, req.UserID, entry); err != nil {
			return agent.Outcome{}, err
		}
		return agent.Outcome{Posted: true, EntryID: entry.EntryID}, nil
	})

	s := New(db, db, nil, runner)
	s.login = func(_ context.Context, token string) (string, error) { return "login", nil }

	if err := s.RunDaily(ctx, time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("RunDaily() = %v", err)
	}

	morning, err := db.ListHistory(ctx, "morning")
	if err != nil {
		t.Fatalf("ListHistory(morning) = %v", err)
	}
	if len(morning) != 1 {
		t.Errorf("morning history = %d entries, want 1", len(morning))
	}
	evening, err := db.ListHistory(ctx, "evening")
	if err != nil {
		t.Fatalf("ListHistory(evening) = %v", err)
	}
	if len(evening) != 0 {
		t.Errorf("evening history = %d entries, want none for an off-hour schedule", len(evening))
	}
}

type runnerFunc func(ctx context.Context, req agent.Request) (agent.Outcome, error)

func (f runnerFunc) Run(ctx context.Context, req agent.Request) (agent.Outcome, error) {
	return f(ctx, req)
}
