package resolve

import (
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Probe is the filesystem access the resolver needs.
// OSProbe is the production implementation; tests substitute their own.
type Probe interface {
	// Stat returns file info for path, following symlinks.
	Stat(path string) (fs.FileInfo, error)

	// ReadDir lists the immediate children of a directory.
	ReadDir(path string) ([]fs.DirEntry, error)

	// ReadHeader returns the first n bytes of a file.
	// Files shorter than n bytes produce an error.
	ReadHeader(path string, n int) ([]byte, error)

	// Readable returns nil if the current process may read path.
	Readable(path string) error
}

// OSProbe implements Probe against the local filesystem.
type OSProbe struct{}

var _ Probe = OSProbe{}

// Stat implements Probe.Stat.
func (OSProbe) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadDir implements Probe.ReadDir.
func (OSProbe) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// ReadHeader implements Probe.ReadHeader.
func (OSProbe) ReadHeader(path string, n int) ([]byte, error) {
	// #nosec G304 - path comes from resolver candidates
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	return buf, nil
}

// Readable implements Probe.Readable.
func (OSProbe) Readable(path string) error {
	return checkReadable(path)
}
