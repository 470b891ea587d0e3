// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	_ "github.com/davetashner/pitcrew/internal/adapters"
	"github.com/davetashner/pitcrew/internal/finding"
	"github.com/davetashner/pitcrew/internal/gitcli"
	"github.com/davetashner/pitcrew/internal/manifest"
	"github.com/davetashner/pitcrew/internal/report"
	"github.com/davetashner/pitcrew/internal/scanner"
	"github.com/davetashner/pitcrew/internal/state"
	"github.com/davetashner/pitcrew/internal/workspace"
)

// Scan-specific flag values.
var (
	scanPath     string
	scanBaseline bool
	scanBase     string
	scanHead     string
	scanJSON     bool
)

// scanCmd audits a local working tree without touching GitHub.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a local working tree",
	Long: `Run the analyzers against a local repository without GitHub reporting.

By default the whole tree under the manifest's contracts_path is scanned,
and findings already recorded in .audit-pit-crew-baseline.json are filtered
out. Use --baseline to (re)write that file from a full scan, or --base to
restrict scanning to Solidity files changed since a git ref, the way a pull
request scan would.`,
	Args: cobra.NoArgs,
	RunE: runLocalScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanPath, "path", ".", "repository to scan")
	scanCmd.Flags().BoolVar(&scanBaseline, "baseline", false, "write the local baseline file instead of reporting")
	scanCmd.Flags().StringVar(&scanBase, "base", "", "scan only Solidity files changed since this git ref")
	scanCmd.Flags().StringVar(&scanHead, "head", "HEAD", "head ref for --base diffs")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "machine-readable output")
}

func runLocalScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// 1. Resolve and validate the scan root.
	root, err := filepath.Abs(scanPath)
	if err != nil {
		return exitError(ExitInvalidArgs, "resolving path %q: %v", scanPath, err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return exitError(ExitInvalidArgs, "not a directory: %s", root)
	}

	// 2. Repo manifest. Missing or malformed falls back to defaults.
	cfg := manifest.Load(root)

	// 3. Scope. --base narrows the scan to changed files, like a PR scan.
	var files []string
	if scanBase != "" {
		if err := gitcli.Available(); err != nil {
			return err
		}
		files, err = workspace.ChangedSolidityFiles(ctx, root, scanBase, scanHead, cfg)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No Solidity changes to scan.")
			return nil
		}
	}

	// 4. Run the analyzers.
	findings, results := scanner.Scan(ctx, root, files, cfg)

	// 5. --baseline records the full fingerprint set and stops there.
	if scanBaseline {
		b := state.Build(root, findings)
		if err := state.Save(root, b); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Baseline written: %d fingerprint(s) in %s\n",
			len(b.Fingerprints), state.Path(root))
		return nil
	}

	// 6. Filter against the local baseline, when one exists.
	prev, err := state.Load(root)
	if err != nil {
		return err
	}
	newFindings := state.FilterNew(findings, prev)
	sortFindings(newFindings)

	// 7. Report and gate.
	if scanJSON {
		if err := printJSON(cmd, newFindings, results); err != nil {
			return err
		}
	} else {
		printTable(cmd, newFindings, results, prev != nil)
	}

	if blocking := countBlocking(newFindings, cfg.BlockOnSeverity); blocking > 0 {
		return exitError(ExitBlocking, "%d finding(s) at or above %s", blocking, cfg.BlockOnSeverity)
	}
	return nil
}

// sortFindings orders by severity descending, then file, then line, the
// same order reports use.
func sortFindings(findings []finding.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity > findings[j].Severity
		}
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})
}

func countBlocking(findings []finding.Finding, threshold finding.Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity.AtLeast(threshold) {
			n++
		}
	}
	return n
}

func printTable(cmd *cobra.Command, findings []finding.Finding, results []scanner.ToolResult, filtered bool) {
	w := cmd.OutOrStdout()
	green := color.New(color.FgGreen)

	for _, res := range results {
		status := "ok"
		if res.Err != nil {
			status = "failed"
		}
		fmt.Fprintf(w, "%s: %s, %d finding(s) in %s\n",
			res.Tool, report.ColorToolStatus(status), res.Findings, res.Duration.Round(10*time.Millisecond))
	}
	if len(results) > 0 {
		fmt.Fprintln(w)
	}

	if len(findings) == 0 {
		if filtered {
			fmt.Fprintln(w, green.Sprint("No new issues beyond the recorded baseline."))
		} else {
			fmt.Fprintln(w, green.Sprint("No issues found."))
		}
		return
	}

	title := "Findings"
	if filtered {
		title = "New findings"
	}
	fmt.Fprintf(w, "%s\n", report.SectionTitle(title))

	tbl := report.NewTable(
		report.Column{Header: "SEVERITY", Color: report.ColorSeverity},
		report.Column{Header: "TOOL"},
		report.Column{Header: "LOCATION"},
		report.Column{Header: "TITLE", MaxWidth: 72},
	)
	for _, f := range findings {
		tbl.AddRow(f.Severity.String(), f.Tool, location(f), f.Title)
	}
	_ = tbl.Render(w)
}

func location(f finding.Finding) string {
	if f.File == "" {
		return "-"
	}
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return f.File
}

// jsonReport is the --json output shape.
type jsonReport struct {
	Findings []jsonFinding `json:"findings"`
	Tools    []jsonTool    `json:"tools"`
}

type jsonFinding struct {
	Tool        string `json:"tool"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Confidence  string `json:"confidence,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	File        string `json:"file,omitempty"`
	Line        int    `json:"line,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

type jsonTool struct {
	Tool       string `json:"tool"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	Findings   int    `json:"findings"`
	DurationMS int64  `json:"duration_ms"`
}

func printJSON(cmd *cobra.Command, findings []finding.Finding, results []scanner.ToolResult) error {
	out := jsonReport{
		Findings: make([]jsonFinding, 0, len(findings)),
		Tools:    make([]jsonTool, 0, len(results)),
	}
	for _, f := range findings {
		out.Findings = append(out.Findings, jsonFinding{
			Tool:        f.Tool,
			Type:        f.Type,
			Severity:    f.Severity.String(),
			Confidence:  f.Confidence,
			Title:       f.Title,
			Description: f.Description,
			File:        f.File,
			Line:        f.Line,
			Fingerprint: f.Fingerprint(),
		})
	}
	for _, res := range results {
		jt := jsonTool{
			Tool:       res.Tool,
			OK:         res.Err == nil,
			Findings:   res.Findings,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			jt.Error = res.Err.Error()
		}
		out.Tools = append(out.Tools, jt)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
