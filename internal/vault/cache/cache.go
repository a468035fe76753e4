// Package cache records which Things tasks have already been imported.
//
// The cache is a single JSON document mapping task id to the time it was
// imported and the vault path it was written to. It is loaded once per run,
// updated in memory while records are processed and saved as a whole.
// A task id present in the cache is never selected again until the cache
// is cleared or the entry is pruned.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"github.com/thingsync/thingsync/internal/logging"
)

// Entry is the record kept for one imported task.
type Entry struct {
	ImportedAt time.Time `json:"importedAt"`
	// Path is the vault path of the written document. Empty for entries
	// created by a rebuild.
	Path string `json:"path"`
}

// Store persists the serialized cache document.
type Store interface {
	// ReadDoc returns the stored document. A missing document is reported
	// with an error wrapping fs.ErrNotExist.
	ReadDoc() ([]byte, error)
	// WriteDoc replaces the stored document.
	WriteDoc(data []byte) error
}

// Cache is the in-memory import ledger. It is not safe for concurrent use;
// a run owns its cache exclusively.
type Cache struct {
	store   Store
	logger  *slog.Logger
	entries map[string]Entry
}

// New creates an empty cache backed by store. Call Load to read the
// persisted state.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cache{
		store:   store,
		logger:  logger,
		entries: make(map[string]Entry),
	}
}

// Load replaces the in-memory state with the persisted document.
//
// A missing or unparsable document leaves the cache empty. Load never
// fails; an empty cache can only cause a re-import, never data loss.
func (c *Cache) Load() {
	c.entries = make(map[string]Entry)

	data, err := c.store.ReadDoc()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("no import cache yet")
		} else {
			c.logger.Warn("failed to read import cache, starting empty", "error", err)
		}
		return
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("import cache is corrupt, starting empty", "error", err)
		return
	}

	for id, entry := range entries {
		if id == "" {
			continue
		}
		c.entries[id] = entry
	}
	c.logger.Debug("loaded import cache", "entries", len(c.entries))
}

// Has reports whether id has been imported.
func (c *Cache) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// Get returns the entry for id.
func (c *Cache) Get(id string) (Entry, bool) {
	entry, ok := c.entries[id]
	return entry, ok
}

// Add inserts or replaces the entry for id. The change is in memory only
// until Save.
func (c *Cache) Add(id string, entry Entry) {
	c.entries[id] = entry
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// GetAll returns a copy of all entries.
func (c *Cache) GetAll() map[string]Entry {
	out := make(map[string]Entry, len(c.entries))
	for id, entry := range c.entries {
		out[id] = entry
	}
	return out
}

// IDs returns the cached ids in sorted order.
func (c *Cache) IDs() []string {
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save overwrites the persisted document with the full in-memory state.
func (c *Cache) Save() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal import cache: %w", err)
	}
	if err := c.store.WriteDoc(data); err != nil {
		return fmt.Errorf("failed to write import cache: %w", err)
	}
	return nil
}

// Clear empties the cache and saves immediately.
func (c *Cache) Clear() error {
	c.entries = make(map[string]Entry)
	return c.Save()
}

// Prune drops entries imported before cutoff so those tasks become eligible
// again. It returns the number of removed entries. The change is in memory
// only until Save.
func (c *Cache) Prune(cutoff time.Time) int {
	removed := 0
	for id, entry := range c.entries {
		if entry.ImportedAt.Before(cutoff) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}
