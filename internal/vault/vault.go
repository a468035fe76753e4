// Package vault is the filesystem the importer writes into.
//
// Paths handed to an FS are slash-separated and relative to the vault root.
// Components depend only on the FS interface; the concrete Vault is backed by
// an afero filesystem so tests can swap in a memory-backed one.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FS is the set of file operations the importer needs from a vault.
type FS interface {
	// Exists reports whether a file or folder exists at p.
	Exists(p string) (bool, error)
	// Read returns the content of the file at p.
	Read(p string) ([]byte, error)
	// Write creates or replaces the file at p. The parent folder must exist.
	Write(p string, data []byte) error
	// CreateFolder creates the folder at p and any missing parents.
	CreateFolder(p string) error
	// ListChildren returns the sorted names of the entries directly under p.
	ListChildren(p string) ([]string, error)
}

// ErrNoVault is returned by Open when the root is missing or not a directory.
var ErrNoVault = errors.New("vault root is not a directory")

// Vault is an FS rooted at a directory.
type Vault struct {
	fs   afero.Fs
	root string
}

var _ FS = (*Vault)(nil)

// Open returns a Vault rooted at the existing directory root.
func Open(root string) (*Vault, error) {
	osFs := afero.NewOsFs()
	ok, err := afero.DirExists(osFs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat vault root: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoVault, root)
	}
	return &Vault{fs: afero.NewBasePathFs(osFs, root), root: root}, nil
}

// New wraps an arbitrary afero filesystem.
func New(fs afero.Fs) *Vault {
	return &Vault{fs: fs}
}

// NewMemory returns an empty in-memory vault.
func NewMemory() *Vault {
	return New(afero.NewMemMapFs())
}

// Root returns the directory the vault was opened on, or "" for in-memory vaults.
func (v *Vault) Root() string {
	return v.root
}

// Exists implements FS.
func (v *Vault) Exists(p string) (bool, error) {
	return afero.Exists(v.fs, v.abs(p))
}

// Read implements FS.
func (v *Vault) Read(p string) ([]byte, error) {
	return afero.ReadFile(v.fs, v.abs(p))
}

// Write implements FS.
func (v *Vault) Write(p string, data []byte) error {
	return afero.WriteFile(v.fs, v.abs(p), data, 0o644)
}

// CreateFolder implements FS.
func (v *Vault) CreateFolder(p string) error {
	return v.fs.MkdirAll(v.abs(p), 0o755)
}

// ListChildren implements FS.
func (v *Vault) ListChildren(p string) ([]string, error) {
	infos, err := afero.ReadDir(v.fs, v.abs(p))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

// abs maps a vault path to the path inside the afero filesystem.
func (v *Vault) abs(p string) string {
	return string(os.PathSeparator) + Clean(p)
}

// Clean normalizes a vault path: slash-separated, no leading or trailing
// slash, "" for the root.
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Join joins vault path elements, ignoring empty ones.
func Join(elem ...string) string {
	return Clean(path.Join(elem...))
}
