// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package orch runs queued scan jobs end to end: workspace setup, clone,
// changed-file discovery, analysis, and publishing. Transient git failures
// are retried with backoff from a fresh workspace; everything else fails
// the job on the first attempt.
package orch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/githubapp"
	"github.com/davetashner/pitcrew/internal/manifest"
	"github.com/davetashner/pitcrew/internal/metrics"
	"github.com/davetashner/pitcrew/internal/queue"
	"github.com/davetashner/pitcrew/internal/redact"
	"github.com/davetashner/pitcrew/internal/report"
	"github.com/davetashner/pitcrew/internal/scanner"
	"github.com/davetashner/pitcrew/internal/store"
	"github.com/davetashner/pitcrew/internal/triage"
	"github.com/davetashner/pitcrew/internal/workspace"
)

// Status is the terminal state of one job.
type Status string

const (
	// StatusSuccess means the scan ran and its results were published.
	StatusSuccess Status = "success"
	// StatusFailed means the job stopped before results could be published.
	StatusFailed Status = "failed"
	// StatusSkipped means a PR job found no Solidity changes to scan.
	StatusSkipped Status = "skipped"
)

// Result summarizes one finished job.
type Result struct {
	Status         Status
	NewIssuesFound int
	Mode           queue.Mode
	Reason         string
}

// tokenSource mints installation tokens. githubapp.Authenticator satisfies it.
type tokenSource interface {
	InstallationToken(ctx context.Context, installationID int64) (string, error)
}

// baselineStore persists fingerprints and scan records. store.Store satisfies it.
type baselineStore interface {
	ReadBaseline(ctx context.Context, owner, repo string) (map[string]struct{}, error)
	WriteBaseline(ctx context.Context, owner, repo string, fingerprints []string) error
	WriteScanRecord(ctx context.Context, owner, repo string, rec store.ScanRecord) error
}

// reporter publishes results to GitHub. report.Reporter satisfies it.
type reporter interface {
	PostReport(ctx context.Context, prNumber int, findings []finding.Finding, summary string) error
	PostErrorReport(ctx context.Context, prNumber int, scanErr error) error
	StartCheck(ctx context.Context, headSHA string) (int64, error)
	CompleteCheck(ctx context.Context, checkID int64, headSHA string, findings []finding.Finding, cfg manifest.ScanConfig) error
	CompleteCheckSkipped(ctx context.Context, checkID int64, headSHA, reason string) error
	CompleteCheckError(ctx context.Context, checkID int64, headSHA string, scanErr error) error
}

type scanFunc func(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) ([]finding.Finding, []scanner.ToolResult)

// Orchestrator executes jobs pulled off the queue. The zero value is not
// usable; construct with New. Tests build one directly and swap the
// unexported seams.
type Orchestrator struct {
	tokens tokenSource
	store  baselineStore
	triage triage.Provider // nil disables AI summaries

	newReporter  func(token, owner, repo string) reporter
	newWorkspace func() (string, error)
	scan         scanFunc
	retryDelays  []time.Duration
}

// New wires an Orchestrator against the production dependencies.
// triageProvider may be nil when no API key is configured.
func New(auth *githubapp.Authenticator, st *store.Store, triageProvider triage.Provider) *Orchestrator {
	return &Orchestrator{
		tokens: auth,
		store:  st,
		triage: triageProvider,
		newReporter: func(token, owner, repo string) reporter {
			return report.New(token, owner, repo)
		},
		newWorkspace: workspace.New,
		scan:         scanner.Scan,
		retryDelays:  []time.Duration{10 * time.Second, 20 * time.Second},
	}
}

// Run executes one job to a terminal state and records it. It never returns
// an error; failures are folded into the Result so the worker loop can keep
// draining the queue.
func (o *Orchestrator) Run(ctx context.Context, job queue.Job) Result {
	start := time.Now()
	slog.Info("job started",
		"id", job.ID, "repo", job.FullName(), "mode", job.Mode, "pr", job.PRNumber)

	res := o.process(ctx, job)

	metrics.Jobs.WithLabelValues(string(job.Mode), string(res.Status)).Inc()
	metrics.ScanDuration.WithLabelValues(string(job.Mode)).Observe(time.Since(start).Seconds())
	o.saveRecord(job, res)

	slog.Info("job finished",
		"id", job.ID, "repo", job.FullName(), "status", res.Status,
		"new_issues", res.NewIssuesFound, "duration", time.Since(start).Round(time.Millisecond))
	return res
}

// process drives the retry loop. Only transient git failures re-run, each
// time from a clean workspace, after 10s and then 20s. The check run is
// created once up front so reviewers see "in progress" while we work.
func (o *Orchestrator) process(ctx context.Context, job queue.Job) Result {
	var rep reporter
	var checkID int64
	if job.Mode == queue.ModePR {
		rep, checkID = o.startCheck(ctx, job)
	}

	var lastErr error
	for attempt := 0; attempt <= len(o.retryDelays); attempt++ {
		if attempt > 0 {
			delay := o.retryDelays[attempt-1]
			slog.Warn("retrying after transient git failure",
				"repo", job.FullName(), "attempt", attempt+1, "delay", delay,
				"error", redact.String(lastErr.Error()))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return o.failed(ctx, job, rep, checkID, ctx.Err())
			}
		}

		r := &jobRun{o: o, job: job, rep: rep, checkID: checkID}
		res, err := r.run(ctx)
		if r.rep != nil {
			rep = r.rep
		}
		if err == nil {
			return res
		}
		lastErr = err
		if !workspace.IsTransient(err) {
			break
		}
	}
	return o.failed(ctx, job, rep, checkID, lastErr)
}

// startCheck creates the in-progress check run before the first attempt.
// Best effort: a failure here must not keep the scan from running.
func (o *Orchestrator) startCheck(ctx context.Context, job queue.Job) (reporter, int64) {
	token, err := o.tokens.InstallationToken(ctx, job.InstallationID)
	if err != nil {
		slog.Warn("check run not created",
			"repo", job.FullName(), "error", redact.String(err.Error()))
		return nil, 0
	}
	rep := o.newReporter(token, job.Owner, job.Repo)
	checkID, err := rep.StartCheck(ctx, job.HeadSHA)
	if err != nil {
		slog.Warn("check run not created",
			"repo", job.FullName(), "error", redact.String(err.Error()))
		return rep, 0
	}
	return rep, checkID
}

// failed reports a terminal failure. In PR mode the error surfaces on the
// PR itself, comment plus action_required check, unless the context is
// already dead, in which case the worker is shutting down and outbound
// calls would only hang.
func (o *Orchestrator) failed(ctx context.Context, job queue.Job, rep reporter, checkID int64, cause error) Result {
	reason := redact.String(cause.Error())
	if errors.Is(cause, context.Canceled) || ctx.Err() != nil {
		reason = "cancelled"
	}
	slog.Error("job failed", "id", job.ID, "repo", job.FullName(), "reason", reason)

	if job.Mode == queue.ModePR && rep != nil && ctx.Err() == nil {
		if err := rep.PostErrorReport(ctx, job.PRNumber, cause); err != nil {
			slog.Warn("error report not posted", "repo", job.FullName(), "error", err)
		}
		if err := rep.CompleteCheckError(ctx, checkID, job.HeadSHA, cause); err != nil {
			slog.Warn("check run not completed", "repo", job.FullName(), "error", err)
		}
	}
	return Result{Status: StatusFailed, Mode: job.Mode, Reason: reason}
}

// saveRecord persists the scan record under its own short deadline, since
// the job context may already be cancelled. Records are informational, so
// a write failure only logs.
func (o *Orchestrator) saveRecord(job queue.Job, res Result) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec := store.ScanRecord{
		Status:         string(res.Status),
		NewIssuesFound: res.NewIssuesFound,
		Mode:           string(res.Mode),
	}
	if err := o.store.WriteScanRecord(ctx, job.Owner, job.Repo, rec); err != nil {
		slog.Warn("scan record not saved", "repo", job.FullName(), "error", err)
	}
}
