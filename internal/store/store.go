// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package store persists scan baselines and result records in Redis.
//
// A baseline is the set of finding fingerprints known on the default
// branch, keyed "{owner}:{repo}". PR scans subtract it from their own
// fingerprints to report only new issues.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanResultTTL bounds how long terminal job records are kept.
const scanResultTTL = 7 * 24 * time.Hour

// Store wraps the Redis client used for baselines and scan records.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis at redisURL (redis://host:port/db).
func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Store{rdb: redis.NewClient(opts)}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.rdb.Close() }

// Ping verifies the connection, for startup health checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return &StoreError{Op: "ping", Err: err}
	}
	return nil
}

func baselineKey(owner, repo string) string { return owner + ":" + repo }

// ReadBaseline returns the baseline fingerprint set for owner/repo. A
// missing key is an empty baseline, not an error.
func (s *Store) ReadBaseline(ctx context.Context, owner, repo string) (map[string]struct{}, error) {
	val, err := s.rdb.Get(ctx, baselineKey(owner, repo)).Result()
	if err == redis.Nil {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "reading baseline", Err: err}
	}

	var fingerprints []string
	if err := json.Unmarshal([]byte(val), &fingerprints); err != nil {
		return nil, &StoreError{Op: "decoding baseline", Err: err}
	}

	set := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		set[fp] = struct{}{}
	}
	return set, nil
}

// WriteBaseline replaces the stored baseline for owner/repo entirely.
func (s *Store) WriteBaseline(ctx context.Context, owner, repo string, fingerprints []string) error {
	if fingerprints == nil {
		fingerprints = []string{}
	}
	val, err := json.Marshal(fingerprints)
	if err != nil {
		return &StoreError{Op: "encoding baseline", Err: err}
	}
	if err := s.rdb.Set(ctx, baselineKey(owner, repo), val, 0).Err(); err != nil {
		return &StoreError{Op: "writing baseline", Err: err}
	}
	return nil
}

// ScanRecord summarizes one finished job for operators.
type ScanRecord struct {
	Status         string    `json:"status"`
	NewIssuesFound int       `json:"new_issues_found"`
	Mode           string    `json:"mode"`
	SavedAt        time.Time `json:"saved_at"`
}

// WriteScanRecord stores the terminal state of a job under
// scan_result:{owner}:{repo} with a seven-day TTL. Callers treat failures
// as log-only; losing a record must not fail a job.
func (s *Store) WriteScanRecord(ctx context.Context, owner, repo string, rec ScanRecord) error {
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return &StoreError{Op: "encoding scan record", Err: err}
	}
	key := "scan_result:" + owner + ":" + repo
	if err := s.rdb.Set(ctx, key, val, scanResultTTL).Err(); err != nil {
		return &StoreError{Op: "writing scan record", Err: err}
	}
	return nil
}
