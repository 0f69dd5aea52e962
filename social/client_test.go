/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package social

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/natx223/commitlog/apperror"
)

func TestPublish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets" {
			t.Errorf("path = %q, want /2/tweets", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Text != "hello world" {
			t.Errorf("text = %q", body.Text)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "1234", "text": body.Text},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient()
	c.baseURL = srv.URL

	post, err := c.Publish(context.Background(), "tok", "hello world")
	if err != nil {
		t.Fatalf("Publish() = %v", err)
	}
	if post.ID != "1234" {
		t.Errorf("ID = %q", post.ID)
	}
	if want := "https://x.com/i/web/status/1234"; post.Permalink != want {
		t.Errorf("Permalink = %q, want %q", post.Permalink, want)
	}
}

func TestPublishUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"Forbidden"}`, http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c := NewClient()
	c.baseURL = srv.URL

	_, err := c.Publish(context.Background(), "tok", "hello")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Publish() = %v, want ErrUpstream", err)
	}
}

func TestPublishMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"text": "hello"}})
	}))
	t.Cleanup(srv.Close)

	c := NewClient()
	c.baseURL = srv.URL

	_, err := c.Publish(context.Background(), "tok", "hello")
	if !errors.Is(err, apperror.ErrUpstream) {
		t.Errorf("Publish() = %v, want ErrUpstream", err)
	}
}
