// Package ui styles thingsync CLI output.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive colors, light and dark terminal variants.
var (
	colorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

var (
	passStyle    = lipgloss.NewStyle().Foreground(colorPass)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle    = lipgloss.NewStyle().Foreground(colorFail)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle  = lipgloss.NewStyle().Foreground(colorAccent)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
)

// Line icons.
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconSkip = "-"
	IconInfo = "ℹ"
)

// TreeLast prefixes detail lines under a summary line.
const TreeLast = "└─ "

// Heading renders an uppercase section heading, e.g. "DATABASE".
func Heading(s string) string {
	return headingStyle.Render(strings.ToUpper(s))
}

// PassLine renders "✓ msg".
func PassLine(msg string) string {
	return passStyle.Render(IconPass) + " " + msg
}

// WarnLine renders "⚠ msg".
func WarnLine(msg string) string {
	return warnStyle.Render(IconWarn) + " " + msg
}

// FailLine renders "✗ msg".
func FailLine(msg string) string {
	return failStyle.Render(IconFail) + " " + msg
}

// SkipLine renders "- msg" muted.
func SkipLine(msg string) string {
	return mutedStyle.Render(IconSkip + " " + msg)
}

// InfoLine renders "ℹ msg".
func InfoLine(msg string) string {
	return accentStyle.Render(IconInfo) + " " + msg
}

// Detail renders an indented tree line under the previous line.
func Detail(msg string) string {
	return mutedStyle.Render("  " + TreeLast + msg)
}
