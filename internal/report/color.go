// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

package report

import (
	"github.com/fatih/color"
)

// Shared color printers for CLI output.
var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorGreen  = color.New(color.FgGreen)
	colorBold   = color.New(color.Bold)
)

// ColorSeverity colors severity labels. Critical and High are the levels
// that can block a pull request, so both render red.
func ColorSeverity(val string) string {
	switch val {
	case "Critical", "High":
		return colorRed.Sprint(val)
	case "Medium":
		return colorYellow.Sprint(val)
	default:
		return val
	}
}

// ColorToolStatus colors per-tool outcome labels in the scan summary.
func ColorToolStatus(val string) string {
	switch val {
	case "ok":
		return colorGreen.Sprint(val)
	case "failed", "timeout":
		return colorRed.Sprint(val)
	default:
		return val
	}
}

// SectionTitle renders a bold section title.
func SectionTitle(title string) string {
	return colorBold.Sprint(title)
}
