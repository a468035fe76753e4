// Package resolve locates the Things 3 SQLite database on disk.
//
// Resolution precedence (first success wins):
//  1. The configured path, with a leading ~ expanded to the home directory
//  2. The newest valid ThingsData-* database under the search directory
//  3. The newest valid ThingsData-* database under the Things group container
//
// A candidate is valid when it exists, is a regular file, ends in .sqlite, is
// readable by this process and starts with the SQLite magic header. Invalid
// candidates are skipped, never fatal on their own.
package resolve

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thingsync/thingsync/internal/logging"
)

const (
	// Magic is the 16-byte header of every SQLite 3 database file.
	Magic = "SQLite format 3\x00"

	// Extension is the required database file extension.
	Extension = ".sqlite"

	// DataDirPrefix prefixes the per-account data directories.
	DataDirPrefix = "ThingsData-"

	// DatabaseRelPath is the database location inside a data directory.
	DatabaseRelPath = "Things Database.thingsdatabase/main.sqlite"

	// GroupContainerID is the Things group container directory name.
	GroupContainerID = "JLMPQHK86H.com.culturedcode.ThingsMac"

	groupContainerSuffix = ".com.culturedcode.ThingsMac"
)

// Source records which resolution step produced the path.
type Source int

const (
	// SourceConfigured is the explicitly configured path.
	SourceConfigured Source = iota
	// SourceSearchDir is a data directory under the configured search directory.
	SourceSearchDir
	// SourceContainer is a data directory under the group container.
	SourceContainer
)

// String returns a human-readable representation of the source.
func (s Source) String() string {
	switch s {
	case SourceConfigured:
		return "configured path"
	case SourceSearchDir:
		return "search directory"
	case SourceContainer:
		return "group container"
	default:
		return "unknown"
	}
}

// Result is a database path proven valid at resolution time.
type Result struct {
	Path    string
	ModTime time.Time
	Source  Source
}

// Options configures a Resolver.
type Options struct {
	// Probe is the filesystem access (default OSProbe).
	Probe Probe
	// HomeDir replaces the current user's home directory (default os.UserHomeDir).
	HomeDir string
	// ContainerDir replaces ~/Library/Group Containers.
	ContainerDir string
	// Logger receives debug output about rejected candidates.
	Logger *slog.Logger
}

// Resolver finds the Things database.
type Resolver struct {
	probe        Probe
	home         string
	containerDir string
	logger       *slog.Logger
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	r := &Resolver{
		probe:        opts.Probe,
		home:         opts.HomeDir,
		containerDir: opts.ContainerDir,
		logger:       opts.Logger,
	}
	if r.probe == nil {
		r.probe = OSProbe{}
	}
	if r.home == "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.home = home
		}
	}
	if r.containerDir == "" && r.home != "" {
		r.containerDir = filepath.Join(r.home, "Library", "Group Containers")
	}
	if r.logger == nil {
		r.logger = logging.Discard()
	}
	return r
}

// attempt tracks what a single Resolve call examined.
type attempt struct {
	examined []string
	last     Rejection
}

// Resolve returns the database path to use for this run.
//
// configured and searchDir may be empty. Returns an error wrapping ErrNotFound
// when no step yields a valid file.
func (r *Resolver) Resolve(configured, searchDir string) (*Result, error) {
	a := &attempt{}

	if configured != "" {
		path := ExpandHome(configured, r.home)
		if c, ok := r.check(a, path); ok {
			return &Result{Path: c.Path, ModTime: c.ModTime, Source: SourceConfigured}, nil
		}
		r.logger.Warn("configured database path rejected", "path", path, "reason", a.last.String())
	}

	if searchDir != "" {
		dir := ExpandHome(searchDir, r.home)
		if c, ok := r.searchDataDirs(a, dir); ok {
			return &Result{Path: c.Path, ModTime: c.ModTime, Source: SourceSearchDir}, nil
		}
		r.logger.Debug("search directory yielded no database", "dir", dir)
	}

	if group, ok := r.groupContainer(); ok {
		if c, ok := r.searchDataDirs(a, group); ok {
			return &Result{Path: c.Path, ModTime: c.ModTime, Source: SourceContainer}, nil
		}
		r.logger.Debug("group container yielded no database", "dir", group)
	}

	if len(a.examined) == 1 && a.last == RejectUnreadable {
		return nil, fmt.Errorf("%w: %w: %s", ErrNotFound, ErrUnreadable, a.examined[0])
	}
	if len(a.examined) == 0 {
		return nil, fmt.Errorf("%w: no candidates examined", ErrNotFound)
	}
	return nil, fmt.Errorf("%w: %d candidate(s) rejected", ErrNotFound, len(a.examined))
}

// Validate runs the four-point check on a single path.
func (r *Resolver) Validate(path string) (Candidate, Rejection) {
	info, err := r.probe.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Candidate{}, RejectUnreadable
		}
		return Candidate{}, RejectMissing
	}
	if !info.Mode().IsRegular() {
		return Candidate{}, RejectNotFile
	}
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return Candidate{}, RejectExtension
	}
	if err := r.probe.Readable(path); err != nil {
		return Candidate{}, RejectUnreadable
	}

	header, err := r.probe.ReadHeader(path, len(Magic))
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Candidate{}, RejectUnreadable
		}
		return Candidate{}, RejectHeader
	}
	if !bytes.Equal(header, []byte(Magic)) {
		return Candidate{}, RejectHeader
	}

	return Candidate{Path: path, ModTime: info.ModTime()}, Accepted
}

// check validates path and records the outcome on a.
func (r *Resolver) check(a *attempt, path string) (Candidate, bool) {
	c, rej := r.Validate(path)
	a.examined = append(a.examined, path)
	a.last = rej
	if rej != Accepted {
		r.logger.Debug("rejected database candidate", "path", path, "reason", rej.String())
		return Candidate{}, false
	}
	return c, true
}

// searchDataDirs applies the zero/one/many rule to the data directories in dir.
func (r *Resolver) searchDataDirs(a *attempt, dir string) (Candidate, bool) {
	info, err := r.probe.Stat(dir)
	if err != nil || !info.IsDir() {
		return Candidate{}, false
	}

	entries, err := r.probe.ReadDir(dir)
	if err != nil {
		r.logger.Debug("failed to list directory", "dir", dir, "error", err)
		return Candidate{}, false
	}

	matches := MatchDataDirs(dir, entries, filepath.Join)
	switch matches.Kind {
	case MatchNone:
		return Candidate{}, false

	case MatchOne:
		return r.check(a, filepath.Join(matches.Dirs[0], DatabaseRelPath))

	default:
		var valid []Candidate
		for _, d := range matches.Dirs {
			if c, ok := r.check(a, filepath.Join(d, DatabaseRelPath)); ok {
				valid = append(valid, c)
			}
		}
		return PickMostRecent(valid)
	}
}

// groupContainer returns the Things group container directory, if present.
func (r *Resolver) groupContainer() (string, bool) {
	if r.containerDir == "" {
		return "", false
	}

	exact := filepath.Join(r.containerDir, GroupContainerID)
	if info, err := r.probe.Stat(exact); err == nil && info.IsDir() {
		return exact, true
	}

	entries, err := r.probe.ReadDir(r.containerDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.HasSuffix(entry.Name(), groupContainerSuffix) {
			return filepath.Join(r.containerDir, entry.Name()), true
		}
	}
	return "", false
}

// ExpandHome replaces a leading "~" or "~/" with home. Other paths, including
// "~user/...", are returned unchanged.
func ExpandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(home, path[2:])
	}
	return path
}
