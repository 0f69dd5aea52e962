/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main serves the CommitLog JSON API: account sign-in, OAuth
// connection flows, schedules, the dashboard view, feedback, and the
// waitlist.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/chainguard-dev/clog"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/natx223/commitlog/feedback"
	"github.com/natx223/commitlog/github"
	"github.com/natx223/commitlog/httpapi"
	"github.com/natx223/commitlog/judge"
	"github.com/natx223/commitlog/social"
	"github.com/natx223/commitlog/store/sqlite"
)

type config struct {
	Port        int    `env:"PORT,default=8080"`
	MetricsPort int    `env:"METRICS_PORT,default=2112"`
	StorePath   string `env:"STORE_PATH,default=commitlog.db"`
	FrontendURL string `env:"FRONTEND_URL,default=http://localhost:3000"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID,required"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET,required"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL,required"`

	XClientID     string `env:"X_CLIENT_ID,required"`
	XClientSecret string `env:"X_CLIENT_SECRET,required"`
	XCallbackURL  string `env:"X_CALLBACK_URL,required"`

	// AnthropicAPIKey enables the evaluation judge on the feedback side
	// channel. Leave unset to record feedback without evaluations.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	_ = godotenv.Load()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	db, err := sqlite.New(cfg.StorePath)
	if err != nil {
		clog.FatalContextf(ctx, "opening store: %v", err)
	}
	defer db.Close()

	var j judge.Interface
	if cfg.AnthropicAPIKey != "" {
		j = judge.NewClaude(anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)))
	} else {
		clog.InfoContext(ctx, "No Anthropic key configured, feedback evaluations disabled")
	}

	api := httpapi.New(httpapi.Config{
		Store:    db,
		GitHub:   github.NewClient(),
		Feedback: feedback.NewProcessor(db, j),
		GitHubOAuth: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubCallbackURL,
			Endpoint:     githuboauth.Endpoint,
			Scopes:       []string{"read:user", "user:email", "repo"},
		},
		XOAuth:      social.NewOAuthConfig(cfg.XClientID, cfg.XClientSecret, cfg.XCallbackURL),
		FrontendURL: cfg.FrontendURL,
	})

	go serveMetrics(ctx, cfg.MetricsPort)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	clog.InfoContextf(ctx, "Starting backend on port %d", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}

func serveMetrics(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		clog.ErrorContextf(ctx, "metrics server failed: %v", err)
	}
}
