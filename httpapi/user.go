/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/natx223/commitlog/apperror"
)

type scheduleView struct {
	ID      string `json:"id"`
	Repo    string `json:"repo"`
	Type    string `json:"type"`
	UTCHour int    `json:"utcHour"`
	Day     string `json:"day,omitempty"`
}

type historyView struct {
	EntryID   string `json:"entryId"`
	Content   string `json:"content"`
	Link      string `json:"link,omitempty"`
	Timestamp string `json:"timestamp"`
}

type userView struct {
	UserID    string         `json:"userId"`
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatarUrl"`
	Email     string         `json:"email,omitempty"`
	HasGitHub bool           `json:"hasGithub"`
	HasX      bool           `json:"hasX"`
	Repos     []string       `json:"repos"`
	Schedules []scheduleView `json:"schedules"`
	History   []historyView  `json:"history"`
}

// handleGetUser renders the dashboard view: profile, connection flags,
// repositories, schedules, and post history.
func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(ctx, w, apperror.Validation("userId", "userId is required"))
		return
	}

	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	view := userView{
		UserID:    user.ID,
		Username:  user.Profile.DisplayName,
		AvatarURL: user.Profile.AvatarURL,
		Email:     user.Profile.Email,
		HasGitHub: user.GitHub != nil,
		HasX:      user.Social != nil,
		Repos:     []string{},
		Schedules: []scheduleView{},
		History:   []historyView{},
	}

	// Repositories come from GitHub live, and only for connected
	// accounts. A listing failure degrades to an empty list rather than
	// failing the whole view.
	if user.GitHub != nil {
		repos, err := a.gh.Repositories(ctx, user.GitHub.AccessToken)
		if err != nil {
			clog.FromContext(ctx).With("user", userID, "error", err).Warn("Failed to list repositories")
		} else {
			view.Repos = repos
		}
	}

	schedules, err := a.store.SchedulesForUser(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	for _, s := range schedules {
		view.Schedules = append(view.Schedules, scheduleView{
			ID:      s.ID,
			Repo:    s.Repo,
			Type:    string(s.Cadence),
			UTCHour: s.PostUTCHour,
			Day:     s.Weekday,
		})
	}

	history, err := a.store.ListHistory(ctx, userID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	for _, e := range history {
		ts := e.Timestamp
		if ts.IsZero() {
			ts = a.now()
		}
		view.History = append(view.History, historyView{
			EntryID:   e.EntryID,
			Content:   e.Content,
			Link:      e.Link,
			Timestamp: ts.UTC().Format(time.RFC3339),
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"userData": view})
}
