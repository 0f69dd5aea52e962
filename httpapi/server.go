/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package httpapi is the inbound JSON surface: account sign-in, OAuth
// connection flows, schedules, feedback, and the waitlist.
package httpapi

import (
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/natx223/commitlog/feedback"
	"github.com/natx223/commitlog/github"
	"github.com/natx223/commitlog/store"
)

// API carries the handler dependencies.
type API struct {
	store    store.Store
	gh       *github.Client
	feedback *feedback.Processor

	githubOAuth *oauth2.Config
	xOAuth      *oauth2.Config

	// frontendURL is where browser-facing flows land after a callback.
	frontendURL string

	now func() time.Time
}

// Config wires an API.
type Config struct {
	Store       store.Store
	GitHub      *github.Client
	Feedback    *feedback.Processor
	GitHubOAuth *oauth2.Config
	XOAuth      *oauth2.Config
	FrontendURL string
}

// New builds the API.
func New(cfg Config) *API {
	return &API{
		store:       cfg.Store,
		gh:          cfg.GitHub,
		feedback:    cfg.Feedback,
		githubOAuth: cfg.GitHubOAuth,
		xOAuth:      cfg.XOAuth,
		frontendURL: cfg.FrontendURL,
		now:         time.Now,
	}
}

// Router assembles the route tree.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signin", a.handleSignin)
		r.Post("/auth/github", a.handleGitHubConnect)
		r.Get("/auth/callback/github", a.handleGitHubCallback)
		r.Post("/auth/x", a.handleXConnect)
		r.Get("/auth/callback/x", a.handleXCallback)

		r.Post("/createSchedule", a.handleCreateSchedule)
		r.Delete("/schedule", a.handleDeleteSchedule)

		r.Get("/user", a.handleGetUser)
		r.Post("/feedback", a.handleFeedback)

		r.Post("/waitlist", a.handleWaitlistJoin)
		r.Get("/waitlist/count", a.handleWaitlistCount)
	})
	return r
}

// requestLogger logs one line per request with status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		clog.FromContext(r.Context()).With(
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		).Info("Request handled")
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": a.now().UTC().Format(time.RFC3339),
	})
}
