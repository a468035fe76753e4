package resolve

import (
	"io/fs"
	"strings"
	"time"
)

// MatchKind classifies how many data directories a listing produced.
type MatchKind int

const (
	// MatchNone means no data directory was found.
	MatchNone MatchKind = iota
	// MatchOne means exactly one data directory was found.
	MatchOne
	// MatchMany means several data directories compete.
	MatchMany
)

// String returns a human-readable representation of the kind.
func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "none"
	case MatchOne:
		return "one"
	case MatchMany:
		return "many"
	default:
		return "unknown"
	}
}

// Matches is the result of listing a directory for data directories.
type Matches struct {
	Kind MatchKind
	// Dirs holds the full paths of the matches in listing order.
	Dirs []string
}

// Candidate is a database file that passed validation.
type Candidate struct {
	Path    string
	ModTime time.Time
}

// MatchDataDirs returns the entries that are directories named with
// DataDirPrefix, joined onto parent with join.
func MatchDataDirs(parent string, entries []fs.DirEntry, join func(elem ...string) string) Matches {
	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if !strings.HasPrefix(entry.Name(), DataDirPrefix) {
			continue
		}
		dirs = append(dirs, join(parent, entry.Name()))
	}

	switch len(dirs) {
	case 0:
		return Matches{Kind: MatchNone}
	case 1:
		return Matches{Kind: MatchOne, Dirs: dirs}
	default:
		return Matches{Kind: MatchMany, Dirs: dirs}
	}
}

// PickMostRecent returns the candidate with the latest modification time.
// Ties keep the earliest candidate. ok is false for an empty slice.
func PickMostRecent(candidates []Candidate) (best Candidate, ok bool) {
	for i, c := range candidates {
		if i == 0 || c.ModTime.After(best.ModTime) {
			best = c
		}
	}
	return best, len(candidates) > 0
}
