// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/davetashner/pitcrew/internal/metrics"
	"github.com/davetashner/pitcrew/internal/queue"
	"github.com/davetashner/pitcrew/internal/redact"
)

// zeroSHA is the "after" value GitHub sends when a branch is deleted.
const zeroSHA = "0000000000000000000000000000000000000000"

// prActions are the pull_request actions that trigger a scan.
var prActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

type repositoryInfo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	CloneURL      string `json:"clone_url"`
	DefaultBranch string `json:"default_branch"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type installationInfo struct {
	ID int64 `json:"id"`
}

type pullRequestEvent struct {
	Action      string `json:"action"`
	PullRequest struct {
		Number int `json:"number"`
		Head   struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
	} `json:"pull_request"`
	Repository   repositoryInfo   `json:"repository"`
	Installation installationInfo `json:"installation"`
}

type pushEvent struct {
	Ref          string           `json:"ref"`
	After        string           `json:"after"`
	Repository   repositoryInfo   `json:"repository"`
	Installation installationInfo `json:"installation"`
}

// handleWebhook is the single intake for GitHub deliveries. The raw body
// is read before anything else because the signature covers its exact
// bytes.
func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading body"})
		return
	}

	event := c.GetHeader("X-GitHub-Event")

	if !verifySignature(body, c.GetHeader("X-Hub-Signature-256"), s.secret) {
		metrics.WebhookEvents.WithLabelValues(event, "rejected").Inc()
		slog.Warn("webhook signature rejected",
			"event", event, "delivery", c.GetHeader("X-GitHub-Delivery"))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	switch event {
	case "ping":
		metrics.WebhookEvents.WithLabelValues(event, "ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "pong"})
	case "pull_request":
		s.handlePullRequest(c, body)
	case "push":
		s.handlePush(c, body)
	default:
		metrics.WebhookEvents.WithLabelValues(event, "ignored").Inc()
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handlePullRequest(c *gin.Context, body []byte) {
	var ev pullRequestEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		metrics.WebhookEvents.WithLabelValues("pull_request", "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	if !prActions[ev.Action] {
		metrics.WebhookEvents.WithLabelValues("pull_request", "ignored").Inc()
		c.Status(http.StatusNoContent)
		return
	}

	job := queue.Job{
		ID:             uuid.NewString(),
		Owner:          ev.Repository.Owner.Login,
		Repo:           ev.Repository.Name,
		CloneURL:       ev.Repository.CloneURL,
		InstallationID: ev.Installation.ID,
		Mode:           queue.ModePR,
		PRNumber:       ev.PullRequest.Number,
		HeadRef:        ev.PullRequest.Head.Ref,
		HeadSHA:        ev.PullRequest.Head.SHA,
		BaseRef:        ev.PullRequest.Base.Ref,
		DefaultBranch:  ev.Repository.DefaultBranch,
	}
	s.enqueue(c, "pull_request", job)
}

func (s *Server) handlePush(c *gin.Context, body []byte) {
	var ev pushEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		metrics.WebhookEvents.WithLabelValues("push", "invalid").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		return
	}

	branch := strings.TrimPrefix(ev.Ref, "refs/heads/")
	if branch != ev.Repository.DefaultBranch || ev.After == zeroSHA {
		metrics.WebhookEvents.WithLabelValues("push", "ignored").Inc()
		c.Status(http.StatusNoContent)
		return
	}

	job := queue.Job{
		ID:             uuid.NewString(),
		Owner:          ev.Repository.Owner.Login,
		Repo:           ev.Repository.Name,
		CloneURL:       ev.Repository.CloneURL,
		InstallationID: ev.Installation.ID,
		Mode:           queue.ModeBaseline,
		HeadRef:        branch,
		HeadSHA:        ev.After,
		DefaultBranch:  ev.Repository.DefaultBranch,
	}
	s.enqueue(c, "push", job)
}

func (s *Server) enqueue(c *gin.Context, event string, job queue.Job) {
	if err := s.queue.Enqueue(c.Request.Context(), job); err != nil {
		metrics.WebhookEvents.WithLabelValues(event, "error").Inc()
		slog.Error("enqueue failed",
			"repo", job.FullName(), "mode", job.Mode,
			"error", redact.String(err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	metrics.WebhookEvents.WithLabelValues(event, "queued").Inc()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "job_id": job.ID})
}

// verifySignature checks an X-Hub-Signature-256 header against the raw
// body. The comparison is constant time.
func verifySignature(body []byte, header string, secret []byte) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	want, err := hex.DecodeString(header[len(prefix):])
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}
