// Package manifest handles audit-pit-crew.yml scan configuration files.
//
// The manifest is authored by the repository under scan, so it is parsed
// strictly (unknown fields reject the whole document) but loading never
// fails: any problem falls back to defaults with an error log. A broken
// manifest must not take down a scan.
package manifest

import "github.com/davetashner/pitcrew/internal/finding"

// FileName is the expected manifest file name in a repository root.
const FileName = "audit-pit-crew.yml"

// ScanConfig represents the scan: section of an audit-pit-crew.yml file,
// with defaults applied for absent fields.
type ScanConfig struct {
	// ContractsPath restricts scanning to files under this repo-relative
	// directory. "." means the whole repository.
	ContractsPath string

	// IgnorePaths are glob patterns excluded from scanning. Each pattern
	// is tested against both the repo-relative path and the path relative
	// to ContractsPath.
	IgnorePaths []string

	// MinSeverity filters findings below this level out of reports.
	MinSeverity finding.Severity

	// BlockOnSeverity marks the check run as failed when any new finding
	// is at or above this level.
	BlockOnSeverity finding.Severity

	// EnabledTools lists the scanner adapters to run, in order.
	EnabledTools []string
}

// Default returns the configuration used when no manifest exists or the
// manifest is rejected.
func Default() ScanConfig {
	return ScanConfig{
		ContractsPath:   ".",
		IgnorePaths:     []string{"node_modules/**", "test/**"},
		MinSeverity:     finding.Low,
		BlockOnSeverity: finding.High,
		EnabledTools:    []string{"slither", "mythril"},
	}
}
