package main

import (
	"strings"
	"testing"
)

func TestServeRequiresWebhookSecret(t *testing.T) {
	t.Setenv("GITHUB_WEBHOOK_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REDIS_URL", "")

	err := runServe(serveCmd, nil)
	if err == nil {
		t.Fatal("expected error without webhook secret")
	}
	if !strings.Contains(err.Error(), "GITHUB_WEBHOOK_SECRET") {
		t.Errorf("error should name GITHUB_WEBHOOK_SECRET, got %q", err.Error())
	}
}

func TestServeRejectsBadPort(t *testing.T) {
	t.Setenv("GITHUB_WEBHOOK_SECRET", "s3cr3t-value")
	t.Setenv("PORT", "not-a-port")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REDIS_URL", "")

	err := runServe(serveCmd, nil)
	if err == nil {
		t.Fatal("expected error for non-numeric PORT")
	}
	if !strings.Contains(err.Error(), "PORT") {
		t.Errorf("error should name PORT, got %q", err.Error())
	}
}
