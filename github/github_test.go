/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package github

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gogithub "github.com/google/go-github/v84/github"

	"github.com/natx223/commitlog/apperror"
)

type fakeRepos struct {
	commits []*gogithub.RepositoryCommit
	repos   []*gogithub.Repository
	err     error
	since   time.Time
}

func (f *fakeRepos) ListCommits(_ context.Context, _, _ string, opts *gogithub.CommitsListOptions) ([]*gogithub.RepositoryCommit, *gogithub.Response, error) {
	f.since = opts.Since
	return f.commits, nil, f.err
}

func (f *fakeRepos) ListByAuthenticatedUser(context.Context, *gogithub.RepositoryListByAuthenticatedUserOptions) ([]*gogithub.Repository, *gogithub.Response, error) {
	return f.repos, nil, f.err
}

type fakeUsers struct {
	user *gogithub.User
	err  error
}

func (f *fakeUsers) Get(context.Context, string) (*gogithub.User, *gogithub.Response, error) {
	return f.user, nil, f.err
}

func fakeClient(repos *fakeRepos, users *fakeUsers) *Client {
	return &Client{forToken: func(string) services {
		return services{repositories: repos, users: users}
	}}
}

func makeCommits(n int) []*gogithub.RepositoryCommit {
	out := make([]*gogithub.RepositoryCommit, 0, n)
	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		msg := fmt.Sprintf("commit %d", i)
		name := "Ada"
		out = append(out, &gogithub.RepositoryCommit{
			Commit: &gogithub.Commit{
				Message: &msg,
				Author: &gogithub.CommitAuthor{
					Name: &name,
					Date: &gogithub.Timestamp{Time: base.Add(-time.Duration(i) * time.Hour)},
				},
			},
		})
	}
	return out
}

func TestCommitsSinceTruncatesButCountsAll(t *testing.T) {
	repos := &fakeRepos{commits: makeCommits(15)}
	c := fakeClient(repos, nil)

	since := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	d, err := c.CommitsSince(context.Background(), "tok", "octo", "proj", since)
	if err != nil {
		t.Fatalf("CommitsSince() = %v", err)
	}
	if d.TotalCount != 15 {
		t.Errorf("TotalCount = %d, want the true count 15", d.TotalCount)
	}
	if len(d.Commits) != DigestLimit {
		t.Errorf("len(Commits) = %d, want truncation to %d", len(d.Commits), DigestLimit)
	}
	if d.Commits[0].Message != "commit 0" || d.Commits[0].Author != "Ada" {
		t.Errorf("Commits[0] = %+v", d.Commits[0])
	}
	if !repos.since.Equal(since) {
		t.Errorf("since passed upstream = %v, want %v", repos.since, since)
	}
}

func TestCommitsSinceEmpty(t *testing.T) {
	c := fakeClient(&fakeRepos{}, nil)
	d, err := c.CommitsSince(context.Background(), "tok", "octo", "proj", time.Now())
	if err != nil {
		t.Fatalf("CommitsSince() on empty repo = %v, want no error", err)
	}
	if d.TotalCount != 0 || len(d.Commits) != 0 {
		t.Errorf("empty digest = %+v", d)
	}
}

func TestCommitsSinceUpstreamError(t *testing.T) {
	c := fakeClient(&fakeRepos{err: errors.New("boom")}, nil)
	_, err := c.CommitsSince(context.Background(), "tok", "octo", "proj", time.Now())
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("CommitsSince() = %v, want ErrUpstream", err)
	}
}

func TestAuthenticatedUser(t *testing.T) {
	login, name := "octocat", "Octo Cat"
	c := fakeClient(nil, &fakeUsers{user: &gogithub.User{Login: &login, Name: &name}})
	p, err := c.AuthenticatedUser(context.Background(), "tok")
	if err != nil {
		t.Fatalf("AuthenticatedUser() = %v", err)
	}
	if p.Login != "octocat" || p.Name != "Octo Cat" {
		t.Errorf("profile = %+v", p)
	}
}

func TestRepositories(t *testing.T) {
	full := []string{"octocat/proj", "octocat/blog"}
	repos := make([]*gogithub.Repository, 0, len(full))
	for i := range full {
		repos = append(repos, &gogithub.Repository{FullName: &full[i]})
	}
	c := fakeClient(&fakeRepos{repos: repos}, nil)

	got, err := c.Repositories(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Repositories() = %v", err)
	}
	if len(got) != 2 || got[0] != "octocat/proj" || got[1] != "octocat/blog" {
		t.Errorf("Repositories() = %v", got)
	}
}
