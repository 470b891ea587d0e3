// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/davetashner/pitcrew/internal/config"
	pitcrewlog "github.com/davetashner/pitcrew/internal/log"
	"github.com/davetashner/pitcrew/internal/queue"
	"github.com/davetashner/pitcrew/internal/server"
)

// drainTimeout bounds how long an exiting server waits for in-flight
// webhook deliveries.
const drainTimeout = 10 * time.Second

// serveCmd runs the webhook receiver.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook receiver",
	Long: `Start the HTTP server that receives GitHub webhooks and enqueues scan
jobs. Configuration comes from the environment: PORT, LOG_LEVEL, REDIS_URL,
and GITHUB_WEBHOOK_SECRET.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ForServe(); err != nil {
		return err
	}
	pitcrewlog.SetupLevel(cfg.LogLevel)

	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer q.Close()

	// Fail at startup on an unreachable broker, not on the first webhook.
	pingCtx, pingCancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer pingCancel()
	if err := q.Ping(pingCtx); err != nil {
		return fmt.Errorf("redis not reachable: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.New(cfg.WebhookSecret, q).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("webhook server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "drain", drainTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("draining connections: %w", err)
	}
	return nil
}
