// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package triage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/davetashner/pitcrew/internal/finding"
)

const (
	// defaultModel is the model used when no override is provided.
	defaultModel = "claude-sonnet-4-5-20250929"

	// maxSummaryTokens caps the response; a triage note is one short
	// paragraph, not a report.
	maxSummaryTokens = 512

	// defaultMaxRetries is the number of automatic retries on transient
	// errors. The SDK handles exponential backoff.
	defaultMaxRetries = 2

	// summarizeTimeout is the hard budget per summary. A slow model must
	// not hold up a scan job.
	summarizeTimeout = 30 * time.Second

	// maxPromptFindings bounds how many findings are listed in the prompt.
	maxPromptFindings = 30
)

const systemPrompt = "You are a smart-contract security reviewer. Given " +
	"static-analysis findings for a Solidity pull request, write a short " +
	"plain-prose triage note (at most four sentences): what stands out, " +
	"which findings likely matter most, and what to look at first. Do not " +
	"repeat the finding list back. No markdown headers."

// AnthropicProvider implements Provider using the official Anthropic SDK.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

var _ Provider = (*AnthropicProvider)(nil)

// AnthropicOption configures an AnthropicProvider.
type AnthropicOption func(*anthropicConfig)

type anthropicConfig struct {
	apiKey     string
	model      string
	maxRetries int
}

// WithAPIKey sets the API key. If not provided, the provider reads
// ANTHROPIC_API_KEY from the environment.
func WithAPIKey(key string) AnthropicOption {
	return func(c *anthropicConfig) { c.apiKey = key }
}

// WithModel overrides the default model.
func WithModel(model string) AnthropicOption {
	return func(c *anthropicConfig) { c.model = model }
}

// NewAnthropicProvider creates the Anthropic-backed triage provider.
// It returns an error if no API key is available.
func NewAnthropicProvider(opts ...AnthropicOption) (*AnthropicProvider, error) {
	cfg := anthropicConfig{
		model:      defaultModel,
		maxRetries: defaultMaxRetries,
	}
	for _, o := range opts {
		o(&cfg)
	}

	apiKey := cfg.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("triage: ANTHROPIC_API_KEY not set and no API key provided")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.maxRetries),
	)
	return &AnthropicProvider{client: client, model: cfg.model}, nil
}

// Summarize sends the findings to the Messages API and returns the triage
// note. Zero findings need no note.
func (p *AnthropicProvider) Summarize(ctx context.Context, findings []finding.Finding) (string, error) {
	if len(findings) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, summarizeTimeout)
	defer cancel()

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxSummaryTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(findings))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("triage: summarize failed: %w", err)
	}

	var content string
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += variant.Text
		}
	}
	return strings.TrimSpace(content), nil
}

// Model returns the configured model.
func (p *AnthropicProvider) Model() string { return p.model }

// buildPrompt renders findings as one compact line each, capped so a huge
// scan cannot blow the context window.
func buildPrompt(findings []finding.Finding) string {
	var b strings.Builder
	b.WriteString("New findings in this pull request:\n")

	listed := findings
	if len(listed) > maxPromptFindings {
		listed = listed[:maxPromptFindings]
	}
	for _, f := range listed {
		fmt.Fprintf(&b, "- [%s] %s: %s (%s:%d) %s\n",
			f.Severity, f.Tool, f.Type, f.File, f.Line, f.Title)
	}
	if len(findings) > maxPromptFindings {
		fmt.Fprintf(&b, "...and %d more.\n", len(findings)-maxPromptFindings)
	}
	return b.String()
}
