/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package social

import (
	"context"

	"golang.org/x/oauth2"
)

// Endpoint is the X OAuth2 endpoint. Client credentials go in the
// Authorization header, not the form body.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// Scopes covers reading the profile, posting, and offline refresh.
var Scopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

// NewOAuthConfig builds the X OAuth2 configuration.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
		Scopes:       Scopes,
	}
}

// AuthCodeURL builds the PKCE authorization URL for the given state and
// code verifier.
func AuthCodeURL(conf *oauth2.Config, state, verifier string) string {
	return conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the callback code for tokens, proving possession of
// the verifier from the initiation leg.
func Exchange(ctx context.Context, conf *oauth2.Config, code, verifier string) (*oauth2.Token, error) {
	return conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
}
