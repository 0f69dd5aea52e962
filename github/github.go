/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package github retrieves commit activity and account identity from
// the GitHub API, reduced to the shapes the agent and auth flows need.
package github

import (
	"context"
	"net/url"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v84/github"

	"github.com/natx223/commitlog/apperror"
)

// DigestLimit bounds how many commits a digest carries. The true total
// still reports everything found, so the model can say "12 commits"
// while only reading the 10 most recent.
const DigestLimit = 10

// fetchWindow is how many commits one page requests. Anything beyond
// this is old enough that the count stops mattering for a short post.
const fetchWindow = 100

// Commit is one commit reduced for prompt consumption.
type Commit struct {
	Repo    string    `json:"repo"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// Digest is the bounded commit summary handed to the model.
type Digest struct {
	Repo       string   `json:"repo"`
	Commits    []Commit `json:"commits"`
	TotalCount int      `json:"totalCount"`
}

// Profile is the identity of a token's owner.
type Profile struct {
	Login     string
	Name      string
	Email     string
	AvatarURL string
}

type commitLister interface {
	ListCommits(ctx context.Context, owner, repo string, opts *gogithub.CommitsListOptions) ([]*gogithub.RepositoryCommit, *gogithub.Response, error)
	ListByAuthenticatedUser(ctx context.Context, opts *gogithub.RepositoryListByAuthenticatedUserOptions) ([]*gogithub.Repository, *gogithub.Response, error)
}

type userGetter interface {
	Get(ctx context.Context, user string) (*gogithub.User, *gogithub.Response, error)
}

type services struct {
	repositories commitLister
	users        userGetter
}

// Client talks to GitHub with per-call user tokens. One Client serves
// all users; the token picks the identity.
type Client struct {
	baseURL string

	// forToken is replaceable in tests.
	forToken func(token string) services
}

// ClientOption adjusts a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient builds a Client over the public GitHub API.
func NewClient(options ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range options {
		opt(c)
	}
	c.forToken = func(token string) services {
		gh := gogithub.NewClient(nil).WithAuthToken(token)
		if c.baseURL != "" {
			if u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/"); err == nil {
				gh.BaseURL = u
			}
		}
		return services{
			repositories: gh.Repositories,
			users:        gh.Users,
		}
	}
	return c
}

// CommitsSince returns the digest of commits on the default branch
// authored at or after since, newest first, truncated to DigestLimit
// entries with the true count preserved.
func (c *Client) CommitsSince(ctx context.Context, token, owner, repo string, since time.Time) (Digest, error) {
	commits, _, err := c.forToken(token).repositories.ListCommits(ctx, owner, repo, &gogithub.CommitsListOptions{
		Since:       since,
		ListOptions: gogithub.ListOptions{PerPage: fetchWindow},
	})
	if err != nil {
		return Digest{}, apperror.Upstream("github", err)
	}

	d := Digest{Repo: repo, TotalCount: len(commits)}
	for _, rc := range commits {
		if len(d.Commits) == DigestLimit {
			break
		}
		d.Commits = append(d.Commits, reduceCommit(repo, rc))
	}
	return d, nil
}

func reduceCommit(repo string, rc *gogithub.RepositoryCommit) Commit {
	c := Commit{Repo: repo}
	if commit := rc.GetCommit(); commit != nil {
		c.Message = commit.GetMessage()
		if author := commit.GetAuthor(); author != nil {
			c.Author = author.GetName()
			c.Date = author.GetDate().Time
		}
	}
	if c.Author == "" {
		c.Author = rc.GetAuthor().GetLogin()
	}
	return c
}

// Repositories lists the full names of the token owner's repositories,
// most recently pushed first.
func (c *Client) Repositories(ctx context.Context, token string) ([]string, error) {
	repos, _, err := c.forToken(token).repositories.ListByAuthenticatedUser(ctx, &gogithub.RepositoryListByAuthenticatedUserOptions{
		Sort:        "pushed",
		ListOptions: gogithub.ListOptions{PerPage: fetchWindow},
	})
	if err != nil {
		return nil, apperror.Upstream("github", err)
	}
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.GetFullName())
	}
	return names, nil
}

// AuthenticatedUser returns the profile of the token's owner.
func (c *Client) AuthenticatedUser(ctx context.Context, token string) (Profile, error) {
	u, _, err := c.forToken(token).users.Get(ctx, "")
	if err != nil {
		return Profile{}, apperror.Upstream("github", err)
	}
	return Profile{
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		Email:     u.GetEmail(),
		AvatarURL: u.GetAvatarURL(),
	}, nil
}
