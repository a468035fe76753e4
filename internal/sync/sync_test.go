package sync

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thingsync/thingsync/internal/things/db"
	"github.com/thingsync/thingsync/internal/things/resolve"
	"github.com/thingsync/thingsync/internal/things/thingstest"
	"github.com/thingsync/thingsync/internal/vault"
	"github.com/thingsync/thingsync/internal/vault/cache"
	"github.com/thingsync/thingsync/internal/vault/note"
)

const testFolder = "Things"

// setupFixture creates a Things database with n completed to-dos.
func setupFixture(t *testing.T, n int) *thingstest.Fixture {
	t.Helper()
	f := thingstest.New(t)
	for i := 0; i < n; i++ {
		id := "TASK" + string(rune('A'+i)) + "0000000"
		f.AddRow(thingstest.Row{
			ID:       id,
			Title:    "Task " + string(rune('A'+i)),
			Status:   3,
			Creation: 1_700_000_000 + float64(i),
			Stop:     1_700_100_000 + float64(i),
		})
	}
	return f
}

// newTestSyncer builds a Syncer reading dbPath and writing into v.
func newTestSyncer(t *testing.T, dbPath string, v vault.FS, mutate func(*Options)) Syncer {
	t.Helper()
	opts := Options{
		DatabasePath: dbPath,
		Note:         note.Settings{Folder: testFolder, Headers: note.DefaultHeaders()},
	}
	if mutate != nil {
		mutate(&opts)
	}
	home := t.TempDir()
	return New(Deps{
		Resolver: resolve.New(resolve.Options{HomeDir: home, ContainerDir: filepath.Join(home, "none")}),
		Vault:    v,
		Options:  opts,
	})
}

// countDocuments returns the number of .md files in the test folder.
func countDocuments(t *testing.T, v *vault.Vault) int {
	t.Helper()
	ok, err := v.Exists(testFolder)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		return 0
	}
	names, err := v.ListChildren(testFolder)
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	n := 0
	for _, name := range names {
		if strings.HasSuffix(name, ".md") {
			n++
		}
	}
	return n
}

// loadCache reads the persisted cache from v.
func loadCache(t *testing.T, v vault.FS) *cache.Cache {
	t.Helper()
	c := cache.New(cache.NewVaultStore(v, ""), nil)
	c.Load()
	return c
}

func TestImportIsIdempotent(t *testing.T) {
	f := setupFixture(t, 3)
	v := vault.NewMemory()
	s := newTestSyncer(t, f.Path, v, nil)

	result, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Found != 3 || result.Written != 3 || result.Failed != 0 {
		t.Errorf("result = %+v, want 3 found, 3 written", result)
	}
	if got := countDocuments(t, v); got != 3 {
		t.Errorf("documents = %d, want 3", got)
	}
	if got := loadCache(t, v).Len(); got != 3 {
		t.Errorf("cache entries = %d, want 3", got)
	}

	again, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}
	if again.Found != 0 || again.Written != 0 {
		t.Errorf("second result = %+v, want nothing new", again)
	}
	if got := countDocuments(t, v); got != 3 {
		t.Errorf("documents after rerun = %d, want 3", got)
	}
	if got := loadCache(t, v).Len(); got != 3 {
		t.Errorf("cache entries after rerun = %d, want 3", got)
	}
}

func TestImportProcessesInCompletionOrder(t *testing.T) {
	f := thingstest.New(t)
	f.AddRow(thingstest.Row{ID: "late0000", Title: "Late", Stop: 1_700_000_300})
	f.AddRow(thingstest.Row{ID: "early000", Title: "Early", Stop: 1_700_000_100})
	v := vault.NewMemory()

	result, err := newTestSyncer(t, f.Path, v, nil).Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	want := []string{"Things/Early_early000.md", "Things/Late_late0000.md"}
	if len(result.Paths) != 2 || result.Paths[0] != want[0] || result.Paths[1] != want[1] {
		t.Errorf("Paths = %v, want %v", result.Paths, want)
	}
}

func TestImportFilterAllDimensions(t *testing.T) {
	f := thingstest.New(t)
	f.AddArea("mkt", "Marketing")
	f.AddArea("ops", "Operations")
	f.AddProject("web", "Website", "mkt")
	f.AddProject("app", "App", "mkt")

	f.AddRow(thingstest.Row{ID: "match000", Title: "Launch page", Project: "web", Area: "mkt"})
	f.Tag("match000", "work", "urgent")

	f.AddRow(thingstest.Row{ID: "wrongprj", Title: "App copy", Project: "app"})
	f.Tag("wrongprj", "work")

	f.AddRow(thingstest.Row{ID: "wrongtag", Title: "Page review", Project: "web"})
	f.Tag("wrongtag", "personal")

	f.AddRow(thingstest.Row{ID: "wrongara", Title: "Ops page", Area: "ops"})
	f.Tag("wrongara", "work")

	v := vault.NewMemory()
	s := newTestSyncer(t, f.Path, v, func(o *Options) {
		o.Filter = db.Filter{Tags: []string{"work"}, Projects: []string{"Website"}, Areas: []string{"Marketing"}}
	})

	result, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Written != 1 {
		t.Fatalf("Written = %d, want 1", result.Written)
	}
	if !loadCache(t, v).Has("match000") {
		t.Error("matching task must be cached")
	}

	data, err := v.Read(result.Paths[0])
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !strings.Contains(string(data), "- urgent") || !strings.Contains(string(data), "- work") {
		t.Errorf("document must keep all task tags:\n%s", data)
	}
}

func TestRebuildCacheWritesNoDocuments(t *testing.T) {
	f := setupFixture(t, 4)
	v := vault.NewMemory()
	s := newTestSyncer(t, f.Path, v, nil)

	result, err := s.RebuildCache(context.Background())
	if err != nil {
		t.Fatalf("RebuildCache failed: %v", err)
	}
	if result.Cached != 4 || result.Written != 0 {
		t.Errorf("result = %+v, want 4 cached, 0 written", result)
	}
	if got := countDocuments(t, v); got != 0 {
		t.Errorf("documents = %d, want 0", got)
	}

	c := loadCache(t, v)
	if c.Len() != 4 {
		t.Fatalf("cache entries = %d, want 4", c.Len())
	}
	for id, entry := range c.GetAll() {
		if entry.Path != "" {
			t.Errorf("entry %s has path %q, want empty", id, entry.Path)
		}
	}

	after, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if after.Written != 0 {
		t.Errorf("Import after rebuild wrote %d documents", after.Written)
	}
}

func TestClearThenImportRewritesSameFiles(t *testing.T) {
	f := setupFixture(t, 3)
	v := vault.NewMemory()
	s := newTestSyncer(t, f.Path, v, nil)

	first, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if err := loadCache(t, v).Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	second, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}
	if second.Written != 3 {
		t.Errorf("Written = %d, want 3", second.Written)
	}
	if got := countDocuments(t, v); got != 3 {
		t.Errorf("documents = %d, want 3 (overwritten, not duplicated)", got)
	}
	for i := range first.Paths {
		if first.Paths[i] != second.Paths[i] {
			t.Errorf("path %d changed: %q -> %q", i, first.Paths[i], second.Paths[i])
		}
	}
}

func TestImportDryRun(t *testing.T) {
	f := setupFixture(t, 2)
	v := vault.NewMemory()
	s := newTestSyncer(t, f.Path, v, func(o *Options) { o.DryRun = true })

	result, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !result.DryRun || result.Written != 2 || len(result.Paths) != 2 {
		t.Errorf("result = %+v", result)
	}
	if got := countDocuments(t, v); got != 0 {
		t.Errorf("documents = %d, want 0", got)
	}
	if ok, _ := v.Exists(cache.DefaultPath); ok {
		t.Error("dry run must not write the cache")
	}
}

// failingVault fails writes to one path.
type failingVault struct {
	*vault.Vault
	failPath string
}

func (f *failingVault) Write(p string, data []byte) error {
	if p == f.failPath {
		return errors.New("permission denied")
	}
	return f.Vault.Write(p, data)
}

func TestImportContinuesAfterRecordFailure(t *testing.T) {
	f := setupFixture(t, 3)
	v := &failingVault{Vault: vault.NewMemory(), failPath: "Things/20231114_Task_B_TASKB000.md"}
	s := newTestSyncer(t, f.Path, v, nil)

	result, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Written != 2 || result.Failed != 1 || len(result.Errors) != 1 {
		t.Errorf("result = %+v, want 2 written, 1 failed", result)
	}

	c := loadCache(t, v)
	if c.Has("TASKB0000000") {
		t.Error("failed task must not be cached")
	}
	if c.Len() != 2 {
		t.Errorf("cache entries = %d, want 2", c.Len())
	}
}

func TestImportAbortsOnChecklistQueryFailure(t *testing.T) {
	f := setupFixture(t, 2)
	f.Exec(`ALTER TABLE TMChecklistItem RENAME COLUMN task TO owner`)
	v := vault.NewMemory()
	s := newTestSyncer(t, f.Path, v, nil)

	result, err := s.Import(context.Background())
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("err = %v, want ErrQuery", err)
	}
	if result == nil || result.Written != 0 || result.Failed != 0 {
		t.Errorf("result = %+v, want nothing written or counted as failed", result)
	}
	if got := countDocuments(t, v); got != 0 {
		t.Errorf("documents = %d, want 0", got)
	}
}

// cancelingVault cancels the batch on the first document write.
type cancelingVault struct {
	*vault.Vault
	cancel context.CancelFunc
}

func (c *cancelingVault) Write(p string, data []byte) error {
	if strings.HasSuffix(p, ".md") {
		c.cancel()
	}
	return c.Vault.Write(p, data)
}

func TestImportStopsBetweenRecordsOnCancel(t *testing.T) {
	f := setupFixture(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v := &cancelingVault{Vault: vault.NewMemory(), cancel: cancel}
	s := newTestSyncer(t, f.Path, v, nil)

	result, err := s.Import(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if result == nil || !result.Canceled || result.Written != 1 {
		t.Fatalf("result = %+v, want canceled after 1 write", result)
	}
	if got := loadCache(t, v).Len(); got != 1 {
		t.Errorf("cache entries = %d, want 1", got)
	}
}

func TestImportResolveFailure(t *testing.T) {
	v := vault.NewMemory()
	s := newTestSyncer(t, filepath.Join(t.TempDir(), "missing.sqlite"), v, nil)

	_, err := s.Import(context.Background())
	if !errors.Is(err, ErrResolve) {
		t.Fatalf("err = %v, want ErrResolve", err)
	}
	if !errors.Is(err, resolve.ErrNotFound) {
		t.Errorf("err = %v, want to wrap resolve.ErrNotFound", err)
	}
	if ok, _ := v.Exists(cache.DefaultPath); ok {
		t.Error("nothing may be written when resolution fails")
	}
}

func TestImportOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.sqlite")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := conn.Exec(`CREATE TABLE unrelated (id TEXT)`); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	conn.Close()

	v := vault.NewMemory()
	_, err = newTestSyncer(t, path, v, nil).Import(context.Background())
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
	if !errors.Is(err, db.ErrSchema) {
		t.Errorf("err = %v, want to wrap db.ErrSchema", err)
	}
	if ok, _ := v.Exists(cache.DefaultPath); ok {
		t.Error("nothing may be written when open fails")
	}
}

func TestImportExpandsHome(t *testing.T) {
	home := t.TempDir()
	f := thingstest.NewAt(t, filepath.Join(home, "things", "main.sqlite"))
	f.AddRow(thingstest.Row{ID: "a0000000", Title: "A"})

	v := vault.NewMemory()
	s := New(Deps{
		Resolver: resolve.New(resolve.Options{HomeDir: home, ContainerDir: filepath.Join(home, "none")}),
		Vault:    v,
		Options: Options{
			DatabasePath: "~/things/main.sqlite",
			Note:         note.Settings{Folder: testFolder, Headers: note.DefaultHeaders()},
		},
	})

	result, err := s.Import(context.Background())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.DatabasePath != f.Path {
		t.Errorf("DatabasePath = %q, want %q", result.DatabasePath, f.Path)
	}
}

func TestLocate(t *testing.T) {
	f := setupFixture(t, 2)
	s := newTestSyncer(t, f.Path, vault.NewMemory(), nil)

	loc, err := s.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if loc.Path != f.Path || loc.Source != resolve.SourceConfigured || loc.Tasks != 2 {
		t.Errorf("Location = %+v", loc)
	}
}
