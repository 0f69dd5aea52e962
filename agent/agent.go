/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agent turns a user's recent commit activity into a published
// build-in-public post. One run drives a bounded tool-calling
// conversation over three tools: fetch the commit digest, publish the
// post, and record it in the user's history.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"google.golang.org/genai"

	"github.com/natx223/commitlog/agents/geminitool"
	"github.com/natx223/commitlog/agents/promptbuilder"
	"github.com/natx223/commitlog/agents/runner"
	"github.com/natx223/commitlog/agents/trace"
	"github.com/natx223/commitlog/github"
	"github.com/natx223/commitlog/social"
	"github.com/natx223/commitlog/store"
)

// Request describes one run: whose schedule fired and which repository
// to digest. ResponseID tags the trace and keys the history entry; when
// empty a fresh id is generated.
type Request struct {
	UserID     string
	Username   string
	Repo       string
	WindowDays int
	Cadence    store.Cadence
	ResponseID string
}

// Bind fills the kickoff prompt with the run's identifiers.
func (r Request) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	p, err := p.BindString("username", r.Username)
	if err != nil {
		return nil, err
	}
	p, err = p.BindString("repository", r.Repo)
	if err != nil {
		return nil, err
	}
	p, err = p.BindString("user_id", r.UserID)
	if err != nil {
		return nil, err
	}
	return p.BindString("entry_id", r.ResponseID)
}

// Outcome is what a run produced. A zero Outcome means nothing was
// published, either because there was no activity or because the step
// budget ran out first.
type Outcome struct {
	Posted  bool   `json:"posted"`
	Text    string `json:"text"`
	Link    string `json:"link"`
	EntryID string `json:"entryId"`
}

// Agent wires the model runner to the commit, publishing, and history
// backends.
type Agent struct {
	users    store.Users
	history  store.History
	commits  *github.Client
	resolver *social.Resolver
	posts    *social.Client

	now func() time.Time

	// newRunner assembles the conversation runner for one run. The
	// system instruction carries run context, so assembly happens per
	// run; tests swap this for a scripted runner.
	newRunner func(system *promptbuilder.Prompt) (runner.Interface[Request, Outcome], error)
}

// New builds an Agent over the given model client and backends. Options
// are passed through to the underlying runner.
func New(
	client *genai.Client,
	users store.Users,
	history store.History,
	commits *github.Client,
	resolver *social.Resolver,
	posts *social.Client,
	options ...runner.Option[Request, Outcome],
) *Agent {
	a := &Agent{
		users:    users,
		history:  history,
		commits:  commits,
		resolver: resolver,
		posts:    posts,
		now:      time.Now,
	}
	a.newRunner = func(system *promptbuilder.Prompt) (runner.Interface[Request, Outcome], error) {
		opts := append([]runner.Option[Request, Outcome]{
			runner.WithSystemInstructions[Request, Outcome](system),
		}, options...)
		return runner.New(client, kickoffPrompt, opts...)
	}
	return a
}

// Run executes one posting conversation and returns what it produced.
// A run that publishes nothing is not an error.
func (a *Agent) Run(ctx context.Context, req Request) (Outcome, error) {
	if req.WindowDays <= 0 {
		req.WindowDays = 1
	}
	if req.ResponseID == "" {
		req.ResponseID = xid.New().String()
	}

	ctx = trace.WithRun(ctx, trace.RunContext{
		UserID:     req.UserID,
		Repository: req.Repo,
		Cadence:    string(req.Cadence),
		RunID:      req.ResponseID,
	})

	system, err := personaPrompt.BindString("username", req.Username)
	if err != nil {
		return Outcome{}, fmt.Errorf("binding system prompt: %w", err)
	}
	system, err = system.BindString("repository", req.Repo)
	if err != nil {
		return Outcome{}, fmt.Errorf("binding system prompt: %w", err)
	}
	system, err = system.BindString("timeframe", timeframe(req.WindowDays))
	if err != nil {
		return Outcome{}, fmt.Errorf("binding system prompt: %w", err)
	}

	r, err := a.newRunner(system)
	if err != nil {
		return Outcome{}, fmt.Errorf("assembling runner: %w", err)
	}

	tools := map[string]geminitool.Metadata[Outcome]{
		commitDigestToolName:  a.commitDigestTool(req),
		postPublisherToolName: a.postPublisherTool(),
		recordHistoryToolName: a.recordHistoryTool(),
	}
	return r.Run(ctx, req, tools)
}
