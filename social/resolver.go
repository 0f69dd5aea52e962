/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package social

import (
	"context"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/oauth2"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/store"
)

// RefreshSkew is how far before the stored expiry a token is treated as
// expired. Publishing with a token that dies mid-request is a worse
// failure than an occasional early refresh.
const RefreshSkew = 5 * time.Minute

// ProviderName labels the social platform in errors and logs.
const ProviderName = "x"

type refreshFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

// Resolver hands out valid access tokens for users, refreshing and
// persisting expired ones on the way. State lives in the store only:
// concurrent refreshes race benignly, last write wins, and both
// returned tokens remain usable for their lifetime.
type Resolver struct {
	users   store.Users
	refresh refreshFunc
	now     func() time.Time
}

// NewResolver builds a resolver that refreshes through the given OAuth
// configuration.
func NewResolver(users store.Users, conf *oauth2.Config) *Resolver {
	return &Resolver{
		users: users,
		refresh: func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
			return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
		},
		now: time.Now,
	}
}

// AccessToken returns a bearer token valid for at least RefreshSkew.
func (r *Resolver) AccessToken(ctx context.Context, userID string) (string, error) {
	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	cred := user.Social
	if cred == nil {
		return "", apperror.NotConnected(userID, ProviderName)
	}

	if r.now().UnixMilli() <= cred.ExpiresAt-RefreshSkew.Milliseconds() {
		return cred.AccessToken, nil
	}

	clog.FromContext(ctx).With("user_id", userID).Info("Social token expired, refreshing")
	token, err := r.refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", apperror.Refresh(err)
	}

	// Providers that rotate refresh tokens return a new one; those that
	// do not leave it empty, so the stored one stays valid.
	refreshToken := token.RefreshToken
	if refreshToken == "" {
		refreshToken = cred.RefreshToken
	}
	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = cred.TokenType
	}

	updated := store.SocialCredential{
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
		ExpiresAt:    token.Expiry.UnixMilli(),
		UpdatedAt:    r.now().UnixMilli(),
	}
	if err := r.users.SetSocialCredential(ctx, userID, updated); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
