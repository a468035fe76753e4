package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor decides whether output is colored.
//
//   - NO_COLOR set (any value): never
//   - CLICOLOR=0: never
//   - CLICOLOR_FORCE set to a non-zero value: always
//   - otherwise only when stdout is a terminal
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && force != "0" {
		return true
	}
	return IsTerminal()
}

// Init configures the global lipgloss renderer for the current terminal.
func Init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	if os.Getenv("CLICOLOR_FORCE") != "" && !IsTerminal() {
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}
