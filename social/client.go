/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package social publishes posts to X and manages the OAuth credentials
// that authorize them.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/natx223/commitlog/apperror"
)

const defaultBaseURL = "https://api.twitter.com"

// Post is one published post.
type Post struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Permalink string `json:"permalink"`
}

// Client calls the X v2 API with per-call bearer tokens.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOption adjusts a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient builds a client against the public X API.
func NewClient(options ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Publish posts text as the token's owner and returns the post with its
// canonical permalink. No length validation happens here: the platform
// owns its limits, and its rejections surface as upstream errors.
func (c *Client) Publish(ctx context.Context, accessToken, text string) (Post, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return Post{}, fmt.Errorf("encoding post body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return Post{}, fmt.Errorf("building post request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Post{}, apperror.Upstream("x", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Post{}, apperror.Upstream("x", fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Post{}, apperror.Upstream("x", fmt.Errorf("post rejected with status %d: %s", resp.StatusCode, payload))
	}

	var decoded struct {
		Data struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Post{}, apperror.Upstream("x", fmt.Errorf("decoding response: %w", err))
	}
	if decoded.Data.ID == "" {
		return Post{}, apperror.Upstream("x", fmt.Errorf("response carried no post id: %s", payload))
	}

	return Post{
		ID:        decoded.Data.ID,
		Text:      decoded.Data.Text,
		Permalink: Permalink(decoded.Data.ID),
	}, nil
}

// Permalink builds the canonical link for a post identifier.
func Permalink(id string) string {
	return "https://x.com/i/web/status/" + id
}
