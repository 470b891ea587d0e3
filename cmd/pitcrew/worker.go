// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "github.com/davetashner/pitcrew/internal/adapters"
	"github.com/davetashner/pitcrew/internal/config"
	"github.com/davetashner/pitcrew/internal/githubapp"
	"github.com/davetashner/pitcrew/internal/gitcli"
	pitcrewlog "github.com/davetashner/pitcrew/internal/log"
	"github.com/davetashner/pitcrew/internal/orch"
	"github.com/davetashner/pitcrew/internal/queue"
	"github.com/davetashner/pitcrew/internal/store"
	"github.com/davetashner/pitcrew/internal/triage"
)

var workerConcurrency int

// workerCmd runs the scan worker pool.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run scan workers",
	Long: `Start a pool of workers that pull scan jobs off the Redis queue and run
them: clone, analyze, and report back to GitHub. Requires git and the
analyzer binaries on PATH, plus GITHUB_APP_ID and a private key in the
environment. A SIGINT or SIGTERM lets in-flight jobs finish their cleanup
before the process exits.`,
	Args: cobra.NoArgs,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 2, "number of jobs scanned in parallel")
}

func runWorker(cmd *cobra.Command, _ []string) error {
	if workerConcurrency < 1 {
		return exitError(ExitInvalidArgs, "concurrency must be at least 1, got %d", workerConcurrency)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ForWorker(); err != nil {
		return err
	}
	pitcrewlog.SetupLevel(cfg.LogLevel)

	if err := gitcli.Available(); err != nil {
		return err
	}

	auth, err := githubapp.New(cfg.AppID, cfg.PrivateKey)
	if err != nil {
		return err
	}
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer q.Close()
	st, err := store.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer st.Close()

	var triageProvider triage.Provider
	if cfg.TriageEnabled() {
		p, err := triage.NewAnthropicProvider(triage.WithAPIKey(cfg.AnthropicAPIKey))
		if err != nil {
			slog.Warn("triage disabled", "error", err)
		} else {
			triageProvider = p
		}
	}

	o := orch.New(auth, st, triageProvider)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker started", "concurrency", workerConcurrency, "triage", triageProvider != nil)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workerConcurrency; i++ {
		g.Go(func() error {
			return workerLoop(ctx, q, o)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("worker stopped")
	return nil
}

// workerLoop drains the queue until the context dies. Dequeue failures
// other than an idle queue back off briefly so a Redis outage does not
// spin the loop.
func workerLoop(ctx context.Context, q *queue.Queue, o *orch.Orchestrator) error {
	for {
		job, err := q.Dequeue(ctx)
		if errors.Is(err, queue.ErrNoJob) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("dequeue failed", "error", err)
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		o.Run(ctx, job)
		if ctx.Err() != nil {
			return nil
		}
	}
}
