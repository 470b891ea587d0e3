// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package orch

import (
	"context"
	"log/slog"

	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
	"github.com/davetashner/pitcrew/internal/metrics"
	"github.com/davetashner/pitcrew/internal/queue"
	"github.com/davetashner/pitcrew/internal/scanner"
	"github.com/davetashner/pitcrew/internal/workspace"
)

// jobRun is one attempt at one job. A retry builds a fresh jobRun so no
// state leaks between attempts; only the reporter is carried forward for
// failure reporting.
type jobRun struct {
	o       *Orchestrator
	job     queue.Job
	rep     reporter
	checkID int64
}

func (r *jobRun) run(ctx context.Context) (Result, error) {
	// 1. Fresh workspace. Removal is deferred so cancellation and panics
	// still clean up.
	dir, err := r.o.newWorkspace()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := workspace.Remove(dir); err != nil {
			slog.Warn("workspace cleanup failed", "dir", dir, "error", err)
		}
	}()

	// 2. Mint an installation token, clone, and pin the work tree to the
	// head under review. Baseline scans take the default branch tip as
	// cloned, shallow, since they never diff.
	token, err := r.o.tokens.InstallationToken(ctx, r.job.InstallationID)
	if err != nil {
		return Result{}, err
	}
	if r.job.Mode == queue.ModePR {
		r.rep = r.o.newReporter(token, r.job.Owner, r.job.Repo)
	}

	shallow := r.job.Mode == queue.ModeBaseline
	if err := workspace.Clone(ctx, dir, r.job.CloneURL, token, shallow); err != nil {
		return Result{}, err
	}
	root := workspace.RepoRoot(dir)

	if r.job.Mode == queue.ModePR {
		if err := workspace.Checkout(ctx, root, r.job.HeadSHA); err != nil {
			return Result{}, err
		}
	}

	// 3. Repo scan settings. A missing or malformed manifest falls back
	// to defaults, never an error.
	cfg := manifest.Load(root)

	// 4. Scope the scan. PR jobs cover changed Solidity files only and
	// short-circuit when there are none; baseline jobs cover the tree.
	var files []string
	if r.job.Mode == queue.ModePR {
		if err := workspace.FetchBaseRef(ctx, root, r.job.BaseRef); err != nil {
			return Result{}, err
		}
		files, err = workspace.ChangedSolidityFiles(ctx, root, r.job.BaseRef, "HEAD", cfg)
		if err != nil {
			return Result{}, err
		}
		if len(files) == 0 {
			r.completeSkipped(ctx)
			return Result{Status: StatusSkipped, Mode: r.job.Mode, Reason: "no Solidity changes"}, nil
		}
	}

	// 5. Run the analyzers. A panic anywhere in the scanning framework is
	// a defect, not a tool failure; it fails the job without retry.
	findings, err := r.scanStep(ctx, root, files, cfg)
	if err != nil {
		return Result{}, err
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	// 6. Publish.
	if r.job.Mode == queue.ModeBaseline {
		return r.publishBaseline(ctx, findings)
	}
	return r.publishPR(ctx, findings, cfg)
}

func (r *jobRun) scanStep(ctx context.Context, root string, files []string, cfg manifest.ScanConfig) (findings []finding.Finding, err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("scanner panic", "repo", r.job.FullName(), "panic", p)
			err = &scanner.FatalError{Panic: p}
		}
	}()
	findings, _ = r.o.scan(ctx, root, files, cfg)
	return findings, nil
}

// publishPR posts the differential report. Only findings whose fingerprint
// is absent from the stored baseline count as new; pre-existing debt stays
// out of the PR conversation.
func (r *jobRun) publishPR(ctx context.Context, findings []finding.Finding, cfg manifest.ScanConfig) (Result, error) {
	baseline := r.readBaseline(ctx)

	newFindings := make([]finding.Finding, 0, len(findings))
	for _, f := range findings {
		if _, known := baseline[f.Fingerprint()]; !known {
			newFindings = append(newFindings, f)
		}
	}

	summary := r.summarize(ctx, newFindings)
	if err := r.rep.PostReport(ctx, r.job.PRNumber, newFindings, summary); err != nil {
		slog.Warn("report comment not posted", "repo", r.job.FullName(), "error", err)
	}
	if err := r.rep.CompleteCheck(ctx, r.checkID, r.job.HeadSHA, newFindings, cfg); err != nil {
		slog.Warn("check run not completed", "repo", r.job.FullName(), "error", err)
	}

	for _, f := range newFindings {
		metrics.Findings.WithLabelValues(f.Tool, f.Severity.String()).Inc()
	}
	return Result{Status: StatusSuccess, NewIssuesFound: len(newFindings), Mode: r.job.Mode}, nil
}

// publishBaseline replaces the stored fingerprint set. Unlike reporting,
// a write failure here fails the job: a stale baseline would flag old debt
// as new on every PR that follows.
func (r *jobRun) publishBaseline(ctx context.Context, findings []finding.Finding) (Result, error) {
	fingerprints := make([]string, 0, len(findings))
	for _, f := range findings {
		fingerprints = append(fingerprints, f.Fingerprint())
	}
	if err := r.o.store.WriteBaseline(ctx, r.job.Owner, r.job.Repo, fingerprints); err != nil {
		return Result{}, err
	}
	slog.Info("baseline updated", "repo", r.job.FullName(), "fingerprints", len(fingerprints))
	return Result{Status: StatusSuccess, Mode: r.job.Mode}, nil
}

// readBaseline degrades to an empty set on store failure. Reporting every
// finding as new is noisy but safe; dropping findings would not be.
func (r *jobRun) readBaseline(ctx context.Context) map[string]struct{} {
	baseline, err := r.o.store.ReadBaseline(ctx, r.job.Owner, r.job.Repo)
	if err != nil {
		slog.Warn("baseline read failed, treating as empty",
			"repo", r.job.FullName(), "error", err)
		return map[string]struct{}{}
	}
	return baseline
}

// summarize asks the triage provider for a short assessment of the new
// findings. The summary is cosmetic, so any failure degrades to omission.
func (r *jobRun) summarize(ctx context.Context, newFindings []finding.Finding) string {
	if r.o.triage == nil || len(newFindings) == 0 {
		return ""
	}
	summary, err := r.o.triage.Summarize(ctx, newFindings)
	if err != nil {
		slog.Debug("triage summary unavailable", "repo", r.job.FullName(), "error", err)
		return ""
	}
	return summary
}

func (r *jobRun) completeSkipped(ctx context.Context) {
	if r.rep == nil {
		return
	}
	reason := "No Solidity changes in this pull request."
	if err := r.rep.CompleteCheckSkipped(ctx, r.checkID, r.job.HeadSHA, reason); err != nil {
		slog.Warn("check run not completed", "repo", r.job.FullName(), "error", err)
	}
}
