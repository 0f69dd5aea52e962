/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"fmt"
	"net/http"

	"github.com/chainguard-dev/clog"
	"github.com/rs/xid"
	"golang.org/x/oauth2"

	"github.com/natx223/commitlog/apperror"
	"github.com/natx223/commitlog/social"
	"github.com/natx223/commitlog/store"
)

type signinRequest struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	Email       string `json:"email"`
}

// handleSignin upserts the account. Signing in twice with the same id is
// a no-op apart from a profile refresh.
func (a *API) handleSignin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req signinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.UserID == "" {
		respondError(ctx, w, apperror.Validation("userId", "userId is required"))
		return
	}
	user, err := a.store.UpsertUser(ctx, req.UserID, store.Profile{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
		Email:       req.Email,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"userId":   user.ID,
		"username": user.Profile.DisplayName,
	})
}

type githubConnectRequest struct {
	UserID string `json:"userId"`
}

// handleGitHubConnect starts the GitHub OAuth flow for an existing
// account. The owning user rides in the stored state so the callback
// knows which account receives the token.
func (a *API) handleGitHubConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req githubConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.UserID == "" {
		respondError(ctx, w, apperror.Validation("userId", "userId is required"))
		return
	}
	if _, err := a.store.GetUser(ctx, req.UserID); err != nil {
		respondError(ctx, w, err)
		return
	}
	state := xid.New().String()
	if err := a.store.PutAuthState(ctx, store.AuthState{
		State:     state,
		UserID:    req.UserID,
		CreatedAt: a.now(),
	}); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"redirectUrl": a.githubOAuth.AuthCodeURL(state),
	})
}

// handleGitHubCallback finishes the GitHub flow. Failures degrade to a
// frontend redirect rather than a JSON error because the caller is a
// browser mid-flow.
func (a *API) handleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := clog.FromContext(ctx)

	fail := func(err error) {
		log.With("error", err).Warn("GitHub OAuth callback failed")
		http.Redirect(w, r, a.frontendURL+"/?error=github_auth_failed", http.StatusFound)
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		fail(apperror.Validation("state", "missing callback parameters"))
		return
	}
	auth, err := a.store.TakeAuthState(ctx, state)
	if err != nil {
		fail(err)
		return
	}
	token, err := a.githubOAuth.Exchange(ctx, code)
	if err != nil {
		fail(apperror.Upstream("github", err))
		return
	}
	// Refresh the profile from GitHub so the dashboard shows the GitHub
	// identity going forward.
	profile, err := a.gh.AuthenticatedUser(ctx, token.AccessToken)
	if err != nil {
		fail(err)
		return
	}
	if _, err := a.store.UpsertUser(ctx, auth.UserID, store.Profile{
		DisplayName: profile.Login,
		AvatarURL:   profile.AvatarURL,
		Email:       profile.Email,
	}); err != nil {
		fail(err)
		return
	}
	if err := a.store.SetGitHubCredential(ctx, auth.UserID, store.GitHubCredential{
		AccessToken: token.AccessToken,
	}); err != nil {
		fail(err)
		return
	}
	http.Redirect(w, r,
		fmt.Sprintf("%s/dashboard?userId=%s", a.frontendURL, auth.UserID),
		http.StatusFound)
}

type xConnectRequest struct {
	UserID string `json:"userId"`
}

// handleXConnect starts the X flow with a PKCE challenge. The verifier
// and the owning user ride in the shared store under the state key so
// any instance can serve the callback.
func (a *API) handleXConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req xConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if req.UserID == "" {
		respondError(ctx, w, apperror.Validation("userId", "userId is required"))
		return
	}
	user, err := a.store.GetUser(ctx, req.UserID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if user.GitHub == nil {
		respondError(ctx, w, apperror.NotConnected(req.UserID, "github"))
		return
	}

	state := xid.New().String()
	verifier := oauth2.GenerateVerifier()
	if err := a.store.PutAuthState(ctx, store.AuthState{
		State:        state,
		CodeVerifier: verifier,
		UserID:       req.UserID,
		CreatedAt:    a.now(),
	}); err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"redirectUrl": social.AuthCodeURL(a.xOAuth, state, verifier),
	})
}

// handleXCallback completes the X flow: prove possession of the
// verifier, then persist the token quadruple.
func (a *API) handleXCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		respondError(ctx, w, apperror.Validation("state", "missing callback parameters"))
		return
	}
	auth, err := a.store.TakeAuthState(ctx, state)
	if err != nil {
		respondError(ctx, w, apperror.Validation("state", "invalid or expired auth state"))
		return
	}
	token, err := social.Exchange(ctx, a.xOAuth, code, auth.CodeVerifier)
	if err != nil {
		respondError(ctx, w, apperror.Upstream("x", err))
		return
	}
	if err := a.store.SetSocialCredential(ctx, auth.UserID, store.SocialCredential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    "bearer",
		ExpiresAt:    token.Expiry.UnixMilli(),
		UpdatedAt:    a.now().UnixMilli(),
	}); err != nil {
		respondError(ctx, w, err)
		return
	}
	http.Redirect(w, r, a.frontendURL+"/dashboard?connected=x", http.StatusFound)
}
