/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/natx223/commitlog/agents/geminitool"
	"github.com/natx223/commitlog/agents/schema"
	"github.com/natx223/commitlog/agents/trace"
	"github.com/natx223/commitlog/store"
)

const (
	commitDigestToolName  = "get_latest_commits"
	postPublisherToolName = "post_tweet"
	recordHistoryToolName = "record_history"
)

type commitDigestParams struct {
	Username string `json:"username" jsonschema:"required" jsonschema_description:"The GitHub username."`
	Repo     string `json:"repo" jsonschema:"required" jsonschema_description:"The repository name."`
	Days     int    `json:"days,omitempty" jsonschema_description:"How many days back to look for activity."`
}

type postPublisherParams struct {
	Text   string `json:"text" jsonschema:"required" jsonschema_description:"The post text to publish."`
	UserID string `json:"user_id" jsonschema:"required" jsonschema_description:"The id of the user publishing the post."`
}

type recordHistoryParams struct {
	Text    string `json:"text" jsonschema:"required" jsonschema_description:"The published post text."`
	UserID  string `json:"user_id" jsonschema:"required" jsonschema_description:"The id of the user the post belongs to."`
	Link    string `json:"link" jsonschema:"required" jsonschema_description:"The permalink of the published post."`
	EntryID string `json:"entry_id" jsonschema:"required" jsonschema_description:"The history entry id for this post."`
}

// commitDigestTool fetches recent commits for the run's user. Tool
// failures are reported back to the model as payloads so it can decide
// to stop rather than aborting the whole run.
func (a *Agent) commitDigestTool(req Request) geminitool.Metadata[Outcome] {
	return geminitool.Metadata[Outcome]{
		Definition: schema.Declare[commitDigestParams](
			commitDigestToolName,
			"Fetch the latest commit messages and metadata for a repository.",
		),
		Handler: func(ctx context.Context, call *genai.FunctionCall, tr *trace.Trace[Outcome], _ *Outcome) *genai.FunctionResponse {
			username, errResp := geminitool.Param[string](call, "username")
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing username"))
				return errResp
			}
			repo, errResp := geminitool.Param[string](call, "repo")
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing repo"))
				return errResp
			}
			days, errResp := geminitool.OptionalParam(call, "days", req.WindowDays)
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("bad days"))
				return errResp
			}
			if days <= 0 {
				days = 1
			}

			tc := tr.StartToolCall(call.ID, call.Name, call.Args)

			user, err := a.users.GetUser(ctx, req.UserID)
			if err != nil {
				tc.Complete(nil, err)
				return geminitool.Error(call, "Failed to fetch latest commits: %v", err)
			}
			if user.GitHub == nil {
				err := fmt.Errorf("user %s has no GitHub connection", req.UserID)
				tc.Complete(nil, err)
				return geminitool.Error(call, "Failed to fetch latest commits: %v", err)
			}

			since := a.now().Add(-time.Duration(days) * 24 * time.Hour)
			digest, err := a.commits.CommitsSince(ctx, user.GitHub.AccessToken, username, repo, since)
			if err != nil {
				tc.Complete(nil, err)
				return geminitool.Error(call, "Failed to fetch latest commits: %v", err)
			}

			if len(digest.Commits) == 0 {
				payload := map[string]any{
					"message": fmt.Sprintf("No commits found in the last %s.", timeframe(days)),
					"post":    false,
				}
				tc.Complete(payload, nil)
				return geminitool.Respond(call, payload)
			}

			latest := make([]map[string]any, 0, len(digest.Commits))
			for _, c := range digest.Commits {
				latest = append(latest, map[string]any{
					"project": repo,
					"message": c.Message,
					"author":  c.Author,
					"date":    c.Date.Format(time.RFC3339),
				})
			}
			payload := map[string]any{
				"count":         digest.TotalCount,
				"latestCommits": latest,
			}
			tc.Complete(payload, nil)
			return geminitool.Respond(call, payload)
		},
	}
}

// postPublisherTool publishes the drafted text to X with the user's
// resolved credential.
func (a *Agent) postPublisherTool() geminitool.Metadata[Outcome] {
	return geminitool.Metadata[Outcome]{
		Definition: schema.Declare[postPublisherParams](
			postPublisherToolName,
			"Publish the generated post to X on behalf of the user.",
		),
		Handler: func(ctx context.Context, call *genai.FunctionCall, tr *trace.Trace[Outcome], _ *Outcome) *genai.FunctionResponse {
			text, errResp := geminitool.Param[string](call, "text")
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing text"))
				return errResp
			}
			userID, errResp := geminitool.Param[string](call, "user_id")
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing user_id"))
				return errResp
			}

			tc := tr.StartToolCall(call.ID, call.Name, call.Args)

			token, err := a.resolver.AccessToken(ctx, userID)
			if err != nil {
				tc.Complete(nil, err)
				return geminitool.Error(call, "Failed to post tweet: %v", err)
			}
			post, err := a.posts.Publish(ctx, token, text)
			if err != nil {
				tc.Complete(nil, err)
				return geminitool.Error(call, "Failed to post tweet: %v", err)
			}

			payload := map[string]any{
				"result": "Tweet posted successfully",
				"link":   post.Permalink,
			}
			tc.Complete(payload, nil)
			return geminitool.Respond(call, payload)
		},
	}
}

// recordHistoryTool appends the published post to the user's history
// and submits the run's final result, ending the conversation.
func (a *Agent) recordHistoryTool() geminitool.Metadata[Outcome] {
	return geminitool.Metadata[Outcome]{
		Definition: schema.Declare[recordHistoryParams](
			recordHistoryToolName,
			"Save the published post and its link to the user's history.",
		),
		Handler: func(ctx context.Context, call *genai.FunctionCall, tr *trace.Trace[Outcome], result *Outcome) *genai.FunctionResponse {
			text, errResp := geminitool.Param[string](call, "text")
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing text"))
				return errResp
			}
			userID, errResp := geminitool.Param[string](call, "user_id")
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing user_id"))
				return errResp
			}
			link, errResp := geminitool.Param[string](call, "link")
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing link"))
				return errResp
			}
			entryID, errResp := geminitool.Param[string](call, "entry_id")
			if errResp != nil {
				tr.BadToolCall(call.ID, call.Name, call.Args, fmt.Errorf("missing entry_id"))
				return errResp
			}

			tc := tr.StartToolCall(call.ID, call.Name, call.Args)

			err := a.history.PutHistory(ctx, userID, store.HistoryEntry{
				EntryID:   entryID,
				Content:   text,
				Link:      link,
				Timestamp: a.now(),
			})
			if err != nil {
				tc.Complete(nil, err)
				return geminitool.Error(call, "Failed to save history: %v", err)
			}

			*result = Outcome{
				Posted:  true,
				Text:    text,
				Link:    link,
				EntryID: entryID,
			}

			payload := map[string]any{"result": "post history saved successfully"}
			tc.Complete(payload, nil)
			return geminitool.Respond(call, payload)
		},
	}
}
