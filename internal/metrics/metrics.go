// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package metrics defines the Prometheus instrumentation for pitcrew.
// Metrics register on the default registry at import time and are served
// by the gateway's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pitcrew"

var (
	// WebhookEvents counts webhook deliveries by event type and outcome
	// (queued, ignored, rejected, invalid, error).
	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook deliveries by event type and outcome",
		},
		[]string{"event", "outcome"},
	)

	// Jobs counts finished scan jobs by mode (pr, baseline) and terminal
	// status (success, failed, skipped).
	Jobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished scan jobs by mode and terminal status",
		},
		[]string{"mode", "status"},
	)

	// ScanDuration measures end-to-end job duration, including retries.
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "End-to-end scan job duration including retries",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		},
		[]string{"mode"},
	)

	// Findings counts new findings reported to PRs by tool and severity.
	Findings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "New findings reported by tool and severity",
		},
		[]string{"tool", "severity"},
	)
)
