// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/davetashner/pitcrew/internal/finding"
)

// document mirrors the manifest file shape. Pointer fields distinguish
// "absent, use default" from an explicit value.
type document struct {
	Scan *section `yaml:"scan"`
}

type section struct {
	ContractsPath   *string  `yaml:"contracts_path"`
	IgnorePaths     []string `yaml:"ignore_paths"`
	MinSeverity     *string  `yaml:"min_severity"`
	BlockOnSeverity *string  `yaml:"block_on_severity"`
	EnabledTools    []string `yaml:"enabled_tools"`
}

// Load reads audit-pit-crew.yml from the given repository root and returns
// the effective ScanConfig. Load never fails: a missing file is normal, and
// a rejected document logs an error and yields Default().
func Load(repoRoot string) ScanConfig {
	p := filepath.Join(repoRoot, FileName)
	data, err := os.ReadFile(p) //nolint:gosec // path is under a scan workspace
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("no scan manifest, using defaults", "path", FileName)
		} else {
			slog.Error("reading scan manifest failed, using defaults", "path", FileName, "error", err)
		}
		return Default()
	}

	cfg, err := parse(data)
	if err != nil {
		slog.Error("invalid scan manifest, using defaults", "path", FileName, "error", err)
		return Default()
	}
	return cfg
}

// parse decodes and validates a manifest document. Unknown fields anywhere
// in the document reject it, as does an invalid severity or contracts path.
func parse(data []byte) (ScanConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file, nothing to override.
			return Default(), nil
		}
		return ScanConfig{}, fmt.Errorf("parsing manifest: %w", err)
	}

	cfg := Default()
	if doc.Scan == nil {
		return cfg, nil
	}

	var errs []string

	if doc.Scan.ContractsPath != nil {
		cp := path.Clean(strings.TrimSpace(*doc.Scan.ContractsPath))
		switch {
		case cp == "" || cp == ".":
			cfg.ContractsPath = "."
		case path.IsAbs(cp) || cp == ".." || strings.HasPrefix(cp, "../"):
			errs = append(errs, fmt.Sprintf("contracts_path: must stay inside the repository, got %q", *doc.Scan.ContractsPath))
		default:
			cfg.ContractsPath = cp
		}
	}

	if doc.Scan.IgnorePaths != nil {
		cfg.IgnorePaths = doc.Scan.IgnorePaths
	}

	if doc.Scan.MinSeverity != nil {
		sev, err := finding.ParseSeverityStrict(*doc.Scan.MinSeverity)
		if err != nil {
			errs = append(errs, fmt.Sprintf("min_severity: %v", err))
		} else {
			cfg.MinSeverity = sev
		}
	}

	if doc.Scan.BlockOnSeverity != nil {
		sev, err := finding.ParseSeverityStrict(*doc.Scan.BlockOnSeverity)
		if err != nil {
			errs = append(errs, fmt.Sprintf("block_on_severity: %v", err))
		} else {
			cfg.BlockOnSeverity = sev
		}
	}

	if doc.Scan.EnabledTools != nil {
		tools := make([]string, 0, len(doc.Scan.EnabledTools))
		for _, tool := range doc.Scan.EnabledTools {
			tools = append(tools, strings.ToLower(strings.TrimSpace(tool)))
		}
		cfg.EnabledTools = tools
	}

	if len(errs) > 0 {
		return ScanConfig{}, errors.New("invalid manifest:\n  " + strings.Join(errs, "\n  "))
	}
	return cfg, nil
}
