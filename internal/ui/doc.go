// Package ui styles terminal output for the feat CLI with lipgloss.
//
// [Styles] is the shared [Palette]; [SessionTable] renders the session listing.
// Colors are dropped automatically when output is not a terminal.
package ui
