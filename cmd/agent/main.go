/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs the posting worker: an hour-aligned batch loop over
// the daily and weekly schedules, plus a manual trigger endpoint.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"google.golang.org/genai"

	"github.com/natx223/commitlog/agent"
	"github.com/natx223/commitlog/agents/runner"
	"github.com/natx223/commitlog/agents/trace"
	"github.com/natx223/commitlog/github"
	"github.com/natx223/commitlog/scheduler"
	"github.com/natx223/commitlog/social"
	"github.com/natx223/commitlog/store/sqlite"
)

type config struct {
	Port        int    `env:"PORT,default=8081"`
	MetricsPort int    `env:"METRICS_PORT,default=2112"`
	StorePath   string `env:"STORE_PATH,default=commitlog.db"`

	GeminiAPIKey string `env:"GEMINI_API_KEY,required"`
	Model        string `env:"MODEL,default=gemini-2.5-flash"`

	XClientID     string `env:"X_CLIENT_ID,required"`
	XClientSecret string `env:"X_CLIENT_SECRET,required"`
	XCallbackURL  string `env:"X_CALLBACK_URL,required"`

	RunTimeout time.Duration `env:"RUN_TIMEOUT,default=5m"`

	// Defaults for the manual trigger endpoint.
	DefaultUserID string `env:"DEFAULT_USER_ID"`
	DefaultRepo   string `env:"DEFAULT_REPO"`
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

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		clog.FatalContextf(ctx, "creating Gemini client: %v", err)
	}

	gh := github.NewClient()
	resolver := social.NewResolver(db, social.NewOAuthConfig(cfg.XClientID, cfg.XClientSecret, cfg.XCallbackURL))
	posts := social.NewClient()

	ag := agent.New(client, db, db, gh, resolver, posts,
		runner.WithModel[agent.Request, agent.Outcome](cfg.Model))

	// Completed runs land in the trace store and the log.
	ctx = trace.WithTracer(ctx, trace.ByCallback(
		agent.StoreTraces(ctx, db),
		func(tr *trace.Trace[agent.Outcome]) {
			clog.FromContext(ctx).With(
				"trace_id", tr.ID,
				"tool_calls", len(tr.ToolCalls),
				"duration_ms", tr.Duration().Milliseconds(),
			).Info("Agent run completed")
		},
	))

	sched := scheduler.New(db, db, gh, ag, scheduler.WithRunTimeout(cfg.RunTimeout))
	go runBatches(ctx, sched)
	go serveMetrics(ctx, cfg.MetricsPort)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	r.Get("/agent/dailyPost", dailyPostHandler(ag, gh, db, cfg))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	clog.InfoContextf(ctx, "Starting agent worker on port %d", cfg.Port)
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

// runBatches wakes at the top of every UTC hour and runs both cadences.
// Weekly runs only fire for schedules matching the current weekday, so
// running both every hour is safe.
func runBatches(ctx context.Context, sched *scheduler.Scheduler) {
	log := clog.FromContext(ctx)
	for {
		now := time.Now().UTC()
		next := now.Truncate(time.Hour).Add(time.Hour)
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		at := time.Now().UTC()
		if err := sched.RunDaily(ctx, at); err != nil {
			log.With("error", err).Error("Daily batch failed")
		}
		if err := sched.RunWeekly(ctx, at); err != nil {
			log.With("error", err).Error("Weekly batch failed")
		}
	}
}

// dailyPostHandler triggers one posting run outside the schedule.
// Query parameters override the configured defaults.
func dailyPostHandler(ag *agent.Agent, gh *github.Client, db *sqlite.DB, cfg config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		userID := r.URL.Query().Get("userId")
		if userID == "" {
			userID = cfg.DefaultUserID
		}
		repo := r.URL.Query().Get("repo")
		if repo == "" {
			repo = cfg.DefaultRepo
		}
		days := 1
		if d := r.URL.Query().Get("days"); d != "" {
			if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
				days = parsed
			}
		}
		if userID == "" || repo == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "userId and repo are required"})
			return
		}

		user, err := db.GetUser(ctx, userID)
		if err != nil || user.GitHub == nil {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "user not found or github not connected"})
			return
		}
		profile, err := gh.AuthenticatedUser(ctx, user.GitHub.AccessToken)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "failed to resolve github login"})
			return
		}

		runCtx, cancel := context.WithTimeout(ctx, scheduler.DefaultRunTimeout)
		defer cancel()
		outcome, err := ag.Run(runCtx, agent.Request{
			UserID:     userID,
			Username:   profile.Login,
			Repo:       repo,
			WindowDays: days,
		})
		if err != nil {
			clog.FromContext(ctx).With("error", err).Error("Manual run failed")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "failed to run agent workflow"})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"posted":  outcome.Posted,
			"message": outcome.Text,
			"link":    outcome.Link,
		})
	}
}
