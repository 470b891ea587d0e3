// Package state manages the local baseline file for CLI scans.
//
// `pitcrew scan --baseline` records the fingerprint of every finding in the
// working tree. Later scans load that record and report only findings whose
// fingerprints are new, mirroring what the service does with Redis for pull
// requests.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/testable"
)

// baselineFile is the filename written at the repo root.
const baselineFile = ".audit-pit-crew-baseline.json"

// schemaVersion is the current baseline file schema version.
const schemaVersion = "1"

// FS is the file system implementation used by this package.
// Override in tests with a testable.MockFileSystem.
var FS testable.FileSystem = testable.DefaultFS

// GitOpener is the repository opener used to stamp the baseline with HEAD.
// Override in tests with a testable.MockGitOpener.
var GitOpener testable.GitOpener = testable.DefaultGitOpener

// Baseline is the persisted fingerprint set from a previous full scan.
type Baseline struct {
	Version      string    `json:"version"`
	SavedAt      time.Time `json:"saved_at"`
	GitHead      string    `json:"git_head,omitempty"`
	Fingerprints []string  `json:"fingerprints"`
}

// Path returns the baseline file path for a repo.
func Path(repoPath string) string {
	return filepath.Join(repoPath, baselineFile)
}

// Load reads the baseline file from <repoPath>/.audit-pit-crew-baseline.json.
// A missing file returns (nil, nil); scans without a baseline report every
// finding as new.
func Load(repoPath string) (*Baseline, error) {
	data, err := FS.ReadFile(Path(repoPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse baseline file: %w", err)
	}
	return &b, nil
}

// Save writes the baseline file at the repo root.
func Save(repoPath string, b *Baseline) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	if err := FS.WriteFile(Path(repoPath), data, 0o644); err != nil {
		return fmt.Errorf("write baseline file: %w", err)
	}
	return nil
}

// Build creates a Baseline from the findings of a full scan. Fingerprints
// are deduplicated in first-seen order, and HEAD is captured when the path
// is a git repository.
func Build(repoPath string, findings []finding.Finding) *Baseline {
	fingerprints := make([]string, 0, len(findings))
	seen := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		fp := f.Fingerprint()
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		fingerprints = append(fingerprints, fp)
	}

	return &Baseline{
		Version:      schemaVersion,
		SavedAt:      time.Now().UTC(),
		GitHead:      resolveHead(repoPath),
		Fingerprints: fingerprints,
	}
}

// FilterNew returns only the findings whose fingerprints are not present in
// prev. If prev is nil, all findings are considered new. Order is preserved.
func FilterNew(findings []finding.Finding, prev *Baseline) []finding.Finding {
	if prev == nil || len(prev.Fingerprints) == 0 {
		result := make([]finding.Finding, len(findings))
		copy(result, findings)
		return result
	}

	seen := make(map[string]struct{}, len(prev.Fingerprints))
	for _, fp := range prev.Fingerprints {
		seen[fp] = struct{}{}
	}

	var result []finding.Finding
	for _, f := range findings {
		if _, exists := seen[f.Fingerprint()]; !exists {
			result = append(result, f)
		}
	}
	return result
}

func resolveHead(repoPath string) string {
	repo, err := GitOpener.PlainOpen(repoPath)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
