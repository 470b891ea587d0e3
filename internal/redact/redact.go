// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package redact provides utilities to strip sensitive values from strings
// before they appear in output, logs, or error messages.
package redact

import (
	"os"
	"strings"
	"sync"
)

// sensitiveEnvVars lists environment variable names whose values must never
// appear in output. Add new entries here as the service gains integrations.
var sensitiveEnvVars = []string{
	"GITHUB_WEBHOOK_SECRET",
	"GITHUB_PRIVATE_KEY",
	"GITHUB_TOKEN",
	"GH_TOKEN",
	"ANTHROPIC_API_KEY",
	"REDIS_URL",
}

var (
	mu            sync.RWMutex
	cachedSecrets []string
	loaded        bool
)

func loadSecretsLocked() {
	for _, envVar := range sensitiveEnvVars {
		val := os.Getenv(envVar)
		if val != "" && len(val) >= 4 {
			cachedSecrets = append(cachedSecrets, val)
		}
	}
	loaded = true
}

// RegisterSecret adds a runtime secret, such as a freshly minted installation
// token, to the redaction set. Short values are ignored to avoid replacing
// common substrings.
func RegisterSecret(s string) {
	if len(s) < 4 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if !loaded {
		loadSecretsLocked()
	}
	for _, existing := range cachedSecrets {
		if existing == s {
			return
		}
	}
	cachedSecrets = append(cachedSecrets, s)
}

// resetCache resets the cached secrets. Used by tests that change env vars
// between calls.
func resetCache() {
	mu.Lock()
	defer mu.Unlock()
	cachedSecrets = nil
	loaded = false
}

// ResetForTest resets the cached secrets so tests in other packages can
// verify redaction behavior after setting env vars with t.Setenv.
func ResetForTest() { resetCache() }

// String replaces any occurrence of a known sensitive value with
// "[REDACTED]". Returns the original string if no secrets are found.
// Environment secrets are cached on first call for performance.
func String(s string) string {
	mu.RLock()
	if !loaded {
		mu.RUnlock()
		mu.Lock()
		if !loaded {
			loadSecretsLocked()
		}
		mu.Unlock()
		mu.RLock()
	}
	defer mu.RUnlock()
	for _, secret := range cachedSecrets {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return s
}
