// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// commhub: communication history aggregation service.
//
// Entry point for the aggregation service. It:
//  1. Loads configuration from config.yaml
//  2. Connects to Redis (sessions)
//  3. Builds the Dialpad client and the aggregation pipeline
//  4. Serves the aggregation, timeline, email history, and auth routes
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/delendaest/commhub/internal/api"
	"github.com/delendaest/commhub/internal/auth"
	"github.com/delendaest/commhub/internal/config"
	"github.com/delendaest/commhub/internal/dialpad"
	"github.com/delendaest/commhub/internal/pipeline"
	"github.com/delendaest/commhub/internal/remote"
	"github.com/delendaest/commhub/internal/session"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting commhub aggregation service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"mailboxes", len(cfg.Graph.Mailboxes),
		"fanout_limit", cfg.FanOutLimit,
		"lookback_days", cfg.LookbackDays,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	sessions := session.NewStore(rdb, cfg.SessionTTL)
	if err := sessions.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Outbound retry policy (shared convention) ---
	retry := remote.Policy{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   500 * time.Millisecond,
	}

	// --- Dialpad client + aggregation pipeline ---
	dp := dialpad.NewClient(dialpad.Config{
		BaseURL:           cfg.Dialpad.BaseURL,
		BearerToken:       cfg.Dialpad.BearerToken,
		Timeout:           cfg.OutboundTimeout,
		Retry:             retry,
		RequestsPerSecond: cfg.Dialpad.RequestsPerSecond,
		UserCap:           cfg.PageItemCap,
		PollAttempts:      cfg.PollMaxAttempts,
		PollBase:          cfg.PollBaseDelay,
		CacheSize:         cfg.CacheSize,
		CacheTTL:          cfg.CacheTTL,
	})

	pipe := pipeline.New(pipeline.Config{
		Dialpad:     dp,
		FanOutLimit: cfg.FanOutLimit,
		DefaultDays: cfg.LookbackDays,
	})

	// --- Auth + HTTP server ---
	authn := auth.New(cfg.Graph, sessions)

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewServer(api.Deps{
			Pipeline:     pipe,
			Dialpad:      dp,
			Authn:        authn,
			Sessions:     sessions,
			Graph:        cfg.Graph,
			GraphRetry:   retry,
			GraphTimeout: cfg.OutboundTimeout,
			PageCap:      cfg.PageItemCap,
		}).Handler(),
		ReadTimeout: 10 * time.Second,
		// Aggregation responses wait on slow report exports.
		WriteTimeout: 5 * time.Minute,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}

		rdb.Close()
	}()

	slog.Info("aggregation service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("aggregation service stopped")
}
