// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package report publishes scan results back to GitHub as PR comments and
// check runs. Every operation here is best-effort: a reporting failure is
// a ReporterError for the caller to log, never a reason to fail the scan.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/manifest"
)

// CheckName is the check run pitcrew owns on a PR head.
const CheckName = "Audit Pit-Crew Security Scan"

// Annotation limits imposed by the Checks API.
const (
	maxAnnotations       = 50
	maxAnnotationMessage = 65535
)

// githubAPI abstracts the GitHub endpoints the reporter uses, for testing.
type githubAPI interface {
	ListComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error)
	CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
	EditComment(ctx context.Context, owner, repo string, commentID int64, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
	CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, *github.Response, error)
	UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, *github.Response, error)
}

// realGitHubAPI wraps the go-github client to implement githubAPI.
type realGitHubAPI struct {
	client *github.Client
}

func (r *realGitHubAPI) ListComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	return r.client.Issues.ListComments(ctx, owner, repo, number, opts)
}

func (r *realGitHubAPI) CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	return r.client.Issues.CreateComment(ctx, owner, repo, number, comment)
}

func (r *realGitHubAPI) EditComment(ctx context.Context, owner, repo string, commentID int64, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	return r.client.Issues.EditComment(ctx, owner, repo, commentID, comment)
}

func (r *realGitHubAPI) CreateCheckRun(ctx context.Context, owner, repo string, opts github.CreateCheckRunOptions) (*github.CheckRun, *github.Response, error) {
	return r.client.Checks.CreateCheckRun(ctx, owner, repo, opts)
}

func (r *realGitHubAPI) UpdateCheckRun(ctx context.Context, owner, repo string, checkRunID int64, opts github.UpdateCheckRunOptions) (*github.CheckRun, *github.Response, error) {
	return r.client.Checks.UpdateCheckRun(ctx, owner, repo, checkRunID, opts)
}

// Reporter posts comments and check runs for one repository.
type Reporter struct {
	owner string
	repo  string
	api   githubAPI
}

// New creates a Reporter authenticated with an installation token.
func New(token, owner, repo string) *Reporter {
	client := github.NewClient(nil).WithAuthToken(token)
	return &Reporter{owner: owner, repo: repo, api: &realGitHubAPI{client: client}}
}

// PostReport creates or updates the scan comment on a PR. Findings should
// already be filtered to new issues; an empty list posts the clean message.
// summary, when non-empty, is prepended as a triage note.
func (r *Reporter) PostReport(ctx context.Context, prNumber int, findings []finding.Finding, summary string) error {
	body := commentBody(findings, summary)
	return r.upsertComment(ctx, prNumber, body)
}

// PostErrorReport posts a short operational-failure comment. The error
// text is redacted before it leaves the process.
func (r *Reporter) PostErrorReport(ctx context.Context, prNumber int, scanErr error) error {
	return r.upsertComment(ctx, prNumber, errorBody(scanErr))
}

// upsertComment updates the existing tagged comment or creates one.
func (r *Reporter) upsertComment(ctx context.Context, prNumber int, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}

	existing, err := r.findTaggedComment(ctx, prNumber)
	if err != nil {
		return err
	}
	if existing != 0 {
		if _, _, err := r.api.EditComment(ctx, r.owner, r.repo, existing, comment); err != nil {
			return &ReporterError{Op: "updating comment", Err: err}
		}
		return nil
	}
	if _, _, err := r.api.CreateComment(ctx, r.owner, r.repo, prNumber, comment); err != nil {
		return &ReporterError{Op: "creating comment", Err: err}
	}
	return nil
}

// findTaggedComment returns the ID of pitcrew's existing comment on the
// PR, or 0 when there is none.
func (r *Reporter) findTaggedComment(ctx context.Context, prNumber int) (int64, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	comments, _, err := r.api.ListComments(ctx, r.owner, r.repo, prNumber, opts)
	if err != nil {
		return 0, &ReporterError{Op: "listing comments", Err: err}
	}
	for _, c := range comments {
		if strings.Contains(c.GetBody(), runTag) {
			return c.GetID(), nil
		}
	}
	return 0, nil
}

// StartCheck creates the in_progress check run on the PR head and returns
// its ID for later completion.
func (r *Reporter) StartCheck(ctx context.Context, headSHA string) (int64, error) {
	run, _, err := r.api.CreateCheckRun(ctx, r.owner, r.repo, github.CreateCheckRunOptions{
		Name:    CheckName,
		HeadSHA: headSHA,
		Status:  github.Ptr("in_progress"),
	})
	if err != nil {
		return 0, &ReporterError{Op: "creating check run", Err: err}
	}
	return run.GetID(), nil
}

// CompleteCheck finishes the check run with a conclusion derived from the
// new findings: failure iff any is at or above cfg.BlockOnSeverity, else
// success. A zero checkID creates a completed run directly, covering the
// case where StartCheck failed earlier.
func (r *Reporter) CompleteCheck(ctx context.Context, checkID int64, headSHA string, findings []finding.Finding, cfg manifest.ScanConfig) error {
	conclusion := "success"
	for _, f := range findings {
		if f.Severity.AtLeast(cfg.BlockOnSeverity) {
			conclusion = "failure"
			break
		}
	}

	title := "No new findings"
	if len(findings) > 0 {
		title = fmt.Sprintf("%d new finding(s)", len(findings))
	}

	output := &github.CheckRunOutput{
		Title:       github.Ptr(title),
		Summary:     github.Ptr(checkSummary(findings)),
		Text:        github.Ptr(checkText(findings)),
		Annotations: annotations(findings),
	}
	return r.completeCheck(ctx, checkID, headSHA, conclusion, output)
}

// CompleteCheckSkipped finishes the check as success with a short reason,
// used when a PR has no Solidity changes to scan.
func (r *Reporter) CompleteCheckSkipped(ctx context.Context, checkID int64, headSHA, reason string) error {
	output := &github.CheckRunOutput{
		Title:   github.Ptr("Scan skipped"),
		Summary: github.Ptr(reason),
	}
	return r.completeCheck(ctx, checkID, headSHA, "success", output)
}

// CompleteCheckError finishes the check as action_required after a fatal
// scan error.
func (r *Reporter) CompleteCheckError(ctx context.Context, checkID int64, headSHA string, scanErr error) error {
	output := &github.CheckRunOutput{
		Title:   github.Ptr("Scan failed"),
		Summary: github.Ptr(truncate(errorBody(scanErr), maxAnnotationMessage)),
	}
	return r.completeCheck(ctx, checkID, headSHA, "action_required", output)
}

func (r *Reporter) completeCheck(ctx context.Context, checkID int64, headSHA, conclusion string, output *github.CheckRunOutput) error {
	if checkID == 0 {
		_, _, err := r.api.CreateCheckRun(ctx, r.owner, r.repo, github.CreateCheckRunOptions{
			Name:       CheckName,
			HeadSHA:    headSHA,
			Status:     github.Ptr("completed"),
			Conclusion: github.Ptr(conclusion),
			Output:     output,
		})
		if err != nil {
			return &ReporterError{Op: "creating completed check run", Err: err}
		}
		return nil
	}

	_, _, err := r.api.UpdateCheckRun(ctx, r.owner, r.repo, checkID, github.UpdateCheckRunOptions{
		Name:       CheckName,
		Status:     github.Ptr("completed"),
		Conclusion: github.Ptr(conclusion),
		Output:     output,
	})
	if err != nil {
		return &ReporterError{Op: "completing check run", Err: err}
	}
	return nil
}

// annotations converts findings to check-run annotations: at most 50,
// level failure for Critical and High, skipping findings that cannot be
// pinned to a file and line.
func annotations(findings []finding.Finding) []*github.CheckRunAnnotation {
	var out []*github.CheckRunAnnotation
	for _, f := range sortForReport(findings) {
		if len(out) == maxAnnotations {
			break
		}
		if f.File == "" || f.File == "Unknown" || f.Line == 0 {
			continue
		}

		level := "warning"
		if f.Severity.AtLeast(finding.High) {
			level = "failure"
		}

		message := f.Description
		if message == "" {
			message = f.Title
		}

		out = append(out, &github.CheckRunAnnotation{
			Path:            github.Ptr(f.File),
			StartLine:       github.Ptr(f.Line),
			EndLine:         github.Ptr(f.Line),
			AnnotationLevel: github.Ptr(level),
			Title:           github.Ptr(fmt.Sprintf("[%s] %s", f.Tool, f.Type)),
			Message:         github.Ptr(truncate(message, maxAnnotationMessage)),
		})
	}
	return out
}
