// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package config loads service configuration from the environment.
// Repo-level scan settings live in internal/manifest; this package only
// covers what the serve and worker processes need to start.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/davetashner/pitcrew/internal/redact"
)

// Defaults for optional settings.
const (
	DefaultRedisURL = "redis://localhost:6379/0"
	DefaultPort     = 8080
	DefaultLogLevel = "info"
)

var validate = validator.New()

// envNames maps struct fields back to the environment variables they came
// from, so validation errors name something the operator can fix.
var envNames = map[string]string{
	"Port":     "PORT",
	"LogLevel": "LOG_LEVEL",
	"RedisURL": "REDIS_URL",
}

// Config holds the settings shared by serve and worker. Role-specific
// requirements are checked separately by ForServe and ForWorker so one
// process does not demand the other's credentials.
type Config struct {
	Port     int    `validate:"min=1,max=65535"`
	LogLevel string `validate:"oneof=debug info warn error"`
	RedisURL string `validate:"required,url"`

	// WebhookSecret verifies inbound webhook signatures.
	WebhookSecret string

	// AppID and PrivateKey authenticate as a GitHub App.
	AppID      string
	PrivateKey []byte

	// AnthropicAPIKey enables triage summaries when set.
	AnthropicAPIKey string
}

// Load reads the environment into a Config, applying defaults and
// collecting every problem instead of stopping at the first.
func Load() (*Config, error) {
	var errs []string

	cfg := &Config{
		Port:            DefaultPort,
		LogLevel:        DefaultLogLevel,
		RedisURL:        DefaultRedisURL,
		WebhookSecret:   os.Getenv("GITHUB_WEBHOOK_SECRET"),
		AppID:           os.Getenv("GITHUB_APP_ID"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("PORT: not a number: %q", v))
		} else {
			cfg.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}

	// A key passed by value wins over a path. Keys read from disk are not
	// covered by the env-based redaction list, so register them here.
	if v := os.Getenv("GITHUB_PRIVATE_KEY"); v != "" {
		cfg.PrivateKey = []byte(v)
	} else if path := os.Getenv("GITHUB_PRIVATE_KEY_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Sprintf("GITHUB_PRIVATE_KEY_PATH: %v", err))
		} else {
			cfg.PrivateKey = data
			redact.RegisterSecret(strings.TrimSpace(string(data)))
		}
	}

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, describeFieldError(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return cfg, nil
}

func describeFieldError(fe validator.FieldError) string {
	name := envNames[fe.StructField()]
	if name == "" {
		name = fe.StructField()
	}
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s], got %q", name, fe.Param(), fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s: out of range (%s %s), got %v", name, fe.Tag(), fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s: not a valid URL: %q", name, fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s validation", name, fe.Tag())
	}
}

// ForServe verifies the settings the webhook gateway needs.
func (c *Config) ForServe() error {
	if c.WebhookSecret == "" {
		return errors.New("GITHUB_WEBHOOK_SECRET is required for serve")
	}
	return nil
}

// ForWorker verifies the settings the scan worker needs.
func (c *Config) ForWorker() error {
	var errs []string
	if c.AppID == "" {
		errs = append(errs, "GITHUB_APP_ID is required for worker")
	}
	if len(c.PrivateKey) == 0 {
		errs = append(errs, "GITHUB_PRIVATE_KEY or GITHUB_PRIVATE_KEY_PATH is required for worker")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// TriageEnabled reports whether AI triage summaries should run.
func (c *Config) TriageEnabled() bool { return c.AnthropicAPIKey != "" }
