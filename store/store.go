/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package store defines the persistent entities and the narrow interfaces
// the rest of the system uses to talk to the document store. Nothing in
// this package holds authoritative state across invocations: every
// operation reads fresh, mutates, and writes back.
package store

import (
	"context"
	"time"

	"github.com/natx223/commitlog/apperror"
)

// AuthStateTTL bounds how long an OAuth correlation state stays valid.
// Expired states are invisible on read and swept opportunistically.
const AuthStateTTL = 10 * time.Minute

// Cadence classifies posting frequency.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// Valid reports whether the cadence is one of the recognized values.
func (c Cadence) Valid() bool {
	return c == CadenceDaily || c == CadenceWeekly
}

// Profile is the user-facing identity attached to a user account.
type Profile struct {
	DisplayName string
	AvatarURL   string
	Email       string
}

// GitHubCredential is the github variant of the connected-account union.
type GitHubCredential struct {
	AccessToken string
}

// SocialCredential is the social-platform variant of the connected-account
// union. ExpiresAt and UpdatedAt are epoch milliseconds.
type SocialCredential struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    int64
	UpdatedAt    int64
}

// Validate enforces the credential shape at the storage boundary.
func (c SocialCredential) Validate() error {
	switch {
	case c.AccessToken == "":
		return apperror.Validation("accessToken", "social credential requires an access token")
	case c.RefreshToken == "":
		return apperror.Validation("refreshToken", "social credential requires a refresh token")
	case c.TokenType == "":
		return apperror.Validation("tokenType", "social credential requires a token type")
	case c.ExpiresAt <= 0:
		return apperror.Validation("expiresAt", "social credential requires an expiry")
	}
	return nil
}

// User is one account document, including the per-provider credential
// union. A credential pointer is nil until the OAuth grant for that
// provider completes.
type User struct {
	ID        string
	Profile   Profile
	CreatedAt time.Time
	UpdatedAt time.Time
	GitHub    *GitHubCredential
	Social    *SocialCredential
}

// Schedule is one posting schedule: (user, repository, cadence).
// Weekday is set if and only if Cadence is weekly.
type Schedule struct {
	ID          string
	UserID      string
	Username    string
	Repo        string
	Cadence     Cadence
	PostUTCHour int
	Weekday     string
	CreatedAt   time.Time
}

// Validate enforces the schedule invariants.
func (s *Schedule) Validate() error {
	if !s.Cadence.Valid() {
		return apperror.Validation("type", "cadence must be daily or weekly")
	}
	if s.PostUTCHour < 0 || s.PostUTCHour > 23 {
		return apperror.Validation("time", "posting hour must be in [0,23]")
	}
	if s.Cadence == CadenceWeekly && s.Weekday == "" {
		return apperror.Validation("day", "weekly schedules require a day")
	}
	if s.Cadence == CadenceDaily && s.Weekday != "" {
		return apperror.Validation("day", "daily schedules must not carry a day")
	}
	return nil
}

// HistoryEntry is one published post in a user's history. Entries are
// immutable once written; EntryID makes re-recording idempotent.
type HistoryEntry struct {
	EntryID   string
	Content   string
	Link      string
	Timestamp time.Time
}

// Feedback is one quality rating for a generated post, keyed by the
// response identifier of the originating run.
type Feedback struct {
	ResponseID  string
	UserID      string
	Correctness float64
	Feature     float64
	Improvement string
	CreatedAt   time.Time
}

// TraceRecord is the persisted summary of one agent run, tagged with the
// run's response identifier so feedback can find it later.
type TraceRecord struct {
	ID        string
	Tag       string
	Input     string
	Output    string
	ToolCalls int
	CreatedAt time.Time
}

// TraceScore attaches a named feedback score to a trace.
type TraceScore struct {
	Name  string
	Value float64
}

// DatasetItem is one curated (input, output, feedback) triple in the
// evaluation baseline dataset.
type DatasetItem struct {
	ID          string
	Input       string
	Output      string
	Correctness float64
	Feature     float64
	AddedAt     time.Time
}

// EvalRun is the aggregate result of one automated evaluation pass.
type EvalRun struct {
	ID            string
	Experiment    string
	Hallucination float64
	Relevance     float64
	Cases         int
	CreatedAt     time.Time
}

// AuthState is the short-lived correlation between an OAuth initiation
// and its callback. Stored in the shared document store, not in process
// memory, so correctness holds across instances.
type AuthState struct {
	State        string
	CodeVerifier string
	UserID       string
	CreatedAt    time.Time
}

// WaitlistEntry is one email on the launch waitlist.
type WaitlistEntry struct {
	ID       string
	Email    string
	Status   string
	Source   string
	JoinedAt time.Time
}

// Users manages account documents and their credential union.
type Users interface {
	// UpsertUser creates the user if absent and returns the stored
	// document. Calling it again with the same ID is idempotent; the
	// profile is refreshed in place.
	UpsertUser(ctx context.Context, id string, profile Profile) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	SetGitHubCredential(ctx context.Context, userID string, cred GitHubCredential) error
	SetSocialCredential(ctx context.Context, userID string, cred SocialCredential) error
}

// Schedules manages posting schedules.
type Schedules interface {
	CreateSchedule(ctx context.Context, s *Schedule) error
	// SchedulesAt returns the schedules matching cadence and UTC hour.
	// For weekly cadence, weekday (lowercase English name) must match too;
	// it is ignored for daily.
	SchedulesAt(ctx context.Context, cadence Cadence, utcHour int, weekday string) ([]Schedule, error)
	SchedulesForUser(ctx context.Context, userID string) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, userID, id string) error
}

// History manages the per-user published-post history.
type History interface {
	// PutHistory appends one entry. A second put with the same EntryID
	// is a no-op.
	PutHistory(ctx context.Context, userID string, e HistoryEntry) error
	// ListHistory returns entries newest first.
	ListHistory(ctx context.Context, userID string) ([]HistoryEntry, error)
}

// Feedbacks persists quality ratings.
type Feedbacks interface {
	CreateFeedback(ctx context.Context, f Feedback) error
}

// Traces persists agent run summaries for the feedback side channel.
type Traces interface {
	PutTrace(ctx context.Context, t TraceRecord) error
	FindTraceByTag(ctx context.Context, tag string) (*TraceRecord, error)
	AttachTraceScores(ctx context.Context, traceID string, scores []TraceScore) error
}

// Dataset manages the curation dataset and evaluation results.
type Dataset interface {
	InsertDatasetItem(ctx context.Context, item DatasetItem) error
	ListDatasetItems(ctx context.Context) ([]DatasetItem, error)
	RecordEvalRun(ctx context.Context, run EvalRun) error
}

// AuthStates manages ephemeral OAuth correlation state.
type AuthStates interface {
	PutAuthState(ctx context.Context, s AuthState) error
	// TakeAuthState consumes the state: exactly one read+delete. States
	// older than AuthStateTTL are treated as absent.
	TakeAuthState(ctx context.Context, state string) (*AuthState, error)
}

// Waitlist manages launch-waitlist signups.
type Waitlist interface {
	// AddWaitlistEntry stores the entry, failing with a conflict if the
	// email is already present.
	AddWaitlistEntry(ctx context.Context, e WaitlistEntry) error
	CountWaitlist(ctx context.Context) (int, error)
}

// Store is the full document-store surface.
type Store interface {
	Users
	Schedules
	History
	Feedbacks
	Traces
	Dataset
	AuthStates
	Waitlist
}
