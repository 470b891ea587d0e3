package triage

import (
	"context"
	"sync"

	"github.com/davetashner/pitcrew/internal/finding"
)

// MockSummary defines a canned result for the mock provider.
type MockSummary struct {
	Text string
	Err  error
}

// MockProvider is a test double that returns pre-configured summaries in
// sequence, repeating the last one once exhausted. It records every call.
type MockProvider struct {
	mu        sync.Mutex
	summaries []MockSummary
	calls     [][]finding.Finding
	idx       int
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider creates a mock that returns the given summaries in order.
// With no summaries configured, Summarize returns "".
func NewMockProvider(summaries ...MockSummary) *MockProvider {
	return &MockProvider{summaries: summaries}
}

// Summarize returns the next canned summary and records the findings.
// It respects context cancellation.
func (m *MockProvider) Summarize(ctx context.Context, findings []finding.Finding) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, findings)

	if len(m.summaries) == 0 {
		return "", nil
	}

	s := m.summaries[m.idx]
	if m.idx < len(m.summaries)-1 {
		m.idx++
	}
	return s.Text, s.Err
}

// Calls returns a copy of the finding lists this mock has seen.
func (m *MockProvider) Calls() [][]finding.Finding {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]finding.Finding, len(m.calls))
	copy(out, m.calls)
	return out
}
