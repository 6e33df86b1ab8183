// Package ui styles the CLI's terminal output with [lipgloss] and provides a [bubbletea] progress view
// for long conversions.
//
// Colors are dropped automatically when the output is not a terminal, so piped output and tests see plain text.
package ui
