package cache

import (
	"fmt"
	"path"

	"github.com/thingsync/thingsync/internal/vault"
)

// DefaultPath is where the cache document lives inside a vault.
const DefaultPath = ".thingsync/import-cache.json"

// VaultStore keeps the cache document in a vault.
type VaultStore struct {
	fs   vault.FS
	path string
}

var _ Store = (*VaultStore)(nil)

// NewVaultStore returns a store for the document at docPath, or DefaultPath
// when docPath is empty.
func NewVaultStore(fs vault.FS, docPath string) *VaultStore {
	if docPath == "" {
		docPath = DefaultPath
	}
	return &VaultStore{fs: fs, path: vault.Clean(docPath)}
}

// Path returns the vault path of the cache document.
func (s *VaultStore) Path() string {
	return s.path
}

// ReadDoc implements Store.
func (s *VaultStore) ReadDoc() ([]byte, error) {
	return s.fs.Read(s.path)
}

// WriteDoc implements Store.
func (s *VaultStore) WriteDoc(data []byte) error {
	if dir := path.Dir(s.path); dir != "." {
		if err := s.fs.CreateFolder(dir); err != nil {
			return fmt.Errorf("failed to create cache folder: %w", err)
		}
	}
	return s.fs.Write(s.path, data)
}
