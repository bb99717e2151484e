// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	// ColorPrimary is purple - used for titles and table headers.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - used for subtitles and secondary text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - used for loaded modules and passed checks.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - used for failed modules and findings.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - used for cycles and skipped entries.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - used for module names and paths.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// ModuleStyle is for module names.
	ModuleStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary).
				Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	tableBorderStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)
)
