// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package queue moves scan jobs from the webhook intake to the workers
// through a Redis list. Delivery is at-most-once per dequeue; anything
// stronger is the broker's problem, not ours.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// jobsKey is the Redis list holding pending jobs.
const jobsKey = "pitcrew:jobs"

// dequeueBlock is how long one Dequeue call waits for work. Short, so a
// worker notices shutdown quickly.
const dequeueBlock = 2 * time.Second

// ErrNoJob reports an idle queue; the worker loop just polls again.
var ErrNoJob = errors.New("no job available")

// Mode selects the scan flavor a job runs.
type Mode string

const (
	// ModePR scans a pull request head and reports new findings only.
	ModePR Mode = "pr"
	// ModeBaseline scans the default branch and stores the fingerprints.
	ModeBaseline Mode = "baseline"
)

// Job carries everything a worker needs to run one scan.
type Job struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Repo           string    `json:"repo"`
	CloneURL       string    `json:"clone_url"`
	InstallationID int64     `json:"installation_id"`
	Mode           Mode      `json:"mode"`
	PRNumber       int       `json:"pr_number"`
	HeadRef        string    `json:"head_ref"`
	HeadSHA        string    `json:"head_sha"`
	BaseRef        string    `json:"base_ref"`
	DefaultBranch  string    `json:"default_branch"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// FullName returns "owner/repo" for logs.
func (j Job) FullName() string { return j.Owner + "/" + j.Repo }

// Queue is a Redis-backed job queue.
type Queue struct {
	rdb   *redis.Client
	block time.Duration
}

// New connects to Redis at redisURL.
func New(redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Queue{rdb: redis.NewClient(opts), block: dequeueBlock}, nil
}

// Close releases the underlying client.
func (q *Queue) Close() error { return q.rdb.Close() }

// Ping verifies the connection, for startup health checks.
func (q *Queue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

// Enqueue pushes job onto the queue, stamping ID and EnqueuedAt when the
// caller left them empty.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	if err := q.rdb.LPush(ctx, jobsKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueueing job: %w", err)
	}

	slog.Info("enqueued scan job",
		"id", job.ID, "repo", job.FullName(), "mode", job.Mode, "pr", job.PRNumber)
	return nil
}

// Dequeue pops the oldest job, blocking briefly. An idle queue returns
// ErrNoJob.
func (q *Queue) Dequeue(ctx context.Context) (Job, error) {
	res, err := q.rdb.BRPop(ctx, q.block, jobsKey).Result()
	if err == redis.Nil {
		return Job{}, ErrNoJob
	}
	if err != nil {
		return Job{}, fmt.Errorf("dequeueing job: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return Job{}, fmt.Errorf("decoding job: %w", err)
	}
	return job, nil
}

// Len reports the number of pending jobs.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, jobsKey).Result()
}
