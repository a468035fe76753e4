package note

import (
	"strings"
	"unicode"

	"github.com/thingsync/thingsync/internal/things/dates"
	"github.com/thingsync/thingsync/internal/things/schema"
	"github.com/thingsync/thingsync/internal/vault"
)

const (
	// maxTitleRunes bounds the title part of a filename.
	maxTitleRunes = 50
	untitled      = "Untitled"
	extension     = ".md"
)

// Filename returns the deterministic document name for task:
// [YYYYMMDD_]<title>_<id prefix>.md
func Filename(task *schema.Task) string {
	var parts []string
	if stamp := dates.Stamp(task.CreatedValue()); stamp != "" {
		parts = append(parts, stamp)
	}
	parts = append(parts, SanitizeTitle(task.Title), task.ShortID())
	return strings.Join(parts, "_") + extension
}

// Path returns the vault path of the document for task.
func Path(task *schema.Task, folder string) string {
	return vault.Join(folder, Filename(task))
}

// SanitizeTitle keeps letters, digits and whitespace, turns whitespace runs
// into single underscores and truncates the result.
func SanitizeTitle(title string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range title {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteRune('_')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}

	out := []rune(b.String())
	if len(out) > maxTitleRunes {
		out = out[:maxTitleRunes]
	}
	s := strings.Trim(string(out), "_")
	if s == "" {
		return untitled
	}
	return s
}

// hasBogusToken reports whether p contains "undefined" or "null" anywhere.
func hasBogusToken(p string) bool {
	return strings.Contains(p, "undefined") || strings.Contains(p, "null")
}
