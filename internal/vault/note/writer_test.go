package note

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thingsync/thingsync/internal/things/schema"
	"github.com/thingsync/thingsync/internal/vault"
	"github.com/thingsync/thingsync/internal/vault/cache"
)

// flakyFS wraps a memory vault and injects failures.
type flakyFS struct {
	*vault.Vault
	// createFails makes the next CreateFolder calls return an error; when
	// createsAnyway is set the folder is still created, as if another writer
	// won the race.
	createFails   int
	createsAnyway bool
	writeFails    bool
}

func (f *flakyFS) CreateFolder(p string) error {
	if f.createFails > 0 {
		f.createFails--
		if f.createsAnyway {
			_ = f.Vault.CreateFolder(p)
		}
		return errors.New("mkdir failed")
	}
	return f.Vault.CreateFolder(p)
}

func (f *flakyFS) Write(p string, data []byte) error {
	if f.writeFails {
		return errors.New("write failed")
	}
	return f.Vault.Write(p, data)
}

type brokenStore struct{}

func (brokenStore) ReadDoc() ([]byte, error) { return nil, errors.New("nope") }
func (brokenStore) WriteDoc([]byte) error    { return errors.New("read-only vault") }

func newTestWriter(t *testing.T, fs vault.FS, folder string) (*Writer, *cache.Cache) {
	t.Helper()
	c := cache.New(cache.NewVaultStore(fs, ""), nil)
	settings := Settings{Folder: folder, Headers: DefaultHeaders()}
	w := NewWriter(fs, c, settings, nil)
	w.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return w, c
}

func TestWriteCreatesDocumentAndCacheEntry(t *testing.T) {
	v := vault.NewMemory()
	w, c := newTestWriter(t, v, "Things/Logbook")
	task := &schema.Task{ID: "ABCDEFGH1234", Title: "Pay rent", Notes: "by friday"}

	p, err := w.Write(context.Background(), task, nil)
	require.NoError(t, err)
	assert.Equal(t, "Things/Logbook/Pay_rent_ABCDEFGH.md", p)

	data, err := v.Read(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Details\nby friday\n")

	entry, ok := c.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, p, entry.Path)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), entry.ImportedAt)

	reloaded := cache.New(cache.NewVaultStore(v, ""), nil)
	reloaded.Load()
	assert.True(t, reloaded.Has(task.ID), "cache must be saved after each document")
}

func TestWriteOverwritesExistingDocument(t *testing.T) {
	v := vault.NewMemory()
	w, _ := newTestWriter(t, v, "")
	task := &schema.Task{ID: "ABCDEFGH1234", Title: "Pay rent"}

	require.NoError(t, v.Write("Pay_rent_ABCDEFGH.md", []byte("stale")))

	p, err := w.Write(context.Background(), task, nil)
	require.NoError(t, err)

	data, err := v.Read(p)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", string(data))

	names, err := v.ListChildren("")
	require.NoError(t, err)
	assert.Equal(t, []string{".thingsync", "Pay_rent_ABCDEFGH.md"}, names)
}

func TestWriteToleratesFolderRace(t *testing.T) {
	fs := &flakyFS{Vault: vault.NewMemory(), createFails: 1, createsAnyway: true}
	w, _ := newTestWriter(t, fs, "Things")

	_, err := w.Write(context.Background(), &schema.Task{ID: "a", Title: "A"}, nil)
	require.NoError(t, err)
}

func TestWriteFailures(t *testing.T) {
	tests := []struct {
		name   string
		fs     *flakyFS
		folder string
		task   *schema.Task
		step   Step
		target error
	}{
		{
			name: "missing id",
			fs:   &flakyFS{Vault: vault.NewMemory()},
			task: &schema.Task{Title: "A"},
			step: StepValidate,
		},
		{
			name:   "folder cannot be created",
			fs:     &flakyFS{Vault: vault.NewMemory(), createFails: 1},
			folder: "Things",
			task:   &schema.Task{ID: "a", Title: "A"},
			step:   StepFolder,
		},
		{
			name:   "null title",
			fs:     &flakyFS{Vault: vault.NewMemory()},
			task:   &schema.Task{ID: "a", Title: "null"},
			step:   StepPath,
			target: ErrInvalidPath,
		},
		{
			name:   "null inside a word",
			fs:     &flakyFS{Vault: vault.NewMemory()},
			task:   &schema.Task{ID: "a", Title: "Annulled contract"},
			step:   StepPath,
			target: ErrInvalidPath,
		},
		{
			name:   "undefined prefix",
			fs:     &flakyFS{Vault: vault.NewMemory()},
			task:   &schema.Task{ID: "a", Title: "undefinedness"},
			step:   StepPath,
			target: ErrInvalidPath,
		},
		{
			name:   "undefined folder",
			fs:     &flakyFS{Vault: vault.NewMemory()},
			folder: "undefined",
			task:   &schema.Task{ID: "a", Title: "A"},
			step:   StepPath,
			target: ErrInvalidPath,
		},
		{
			name: "write fails",
			fs:   &flakyFS{Vault: vault.NewMemory(), writeFails: true},
			task: &schema.Task{ID: "a", Title: "A"},
			step: StepWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, c := newTestWriter(t, tt.fs, tt.folder)

			_, err := w.Write(context.Background(), tt.task, nil)
			require.Error(t, err)

			var werr *WriteError
			require.True(t, errors.As(err, &werr), "want *WriteError, got %T", err)
			assert.Equal(t, tt.step, werr.Step)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.Equal(t, 0, c.Len(), "failed writes must not be cached")
		})
	}
}

func TestWriteCacheSaveFailure(t *testing.T) {
	v := vault.NewMemory()
	c := cache.New(brokenStore{}, nil)
	w := NewWriter(v, c, Settings{Headers: DefaultHeaders()}, nil)

	p, err := w.Write(context.Background(), &schema.Task{ID: "a", Title: "A"}, nil)
	require.Error(t, err)

	var werr *WriteError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, StepCache, werr.Step)
	assert.Equal(t, "A_a.md", p)
	assert.True(t, c.Has("a"), "entry stays in memory for the end-of-batch save")
}

func TestWriteHonorsCancellation(t *testing.T) {
	w, c := newTestWriter(t, vault.NewMemory(), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Write(ctx, &schema.Task{ID: "a", Title: "A"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Len())
}

func TestWriteErrorMessage(t *testing.T) {
	err := &WriteError{TaskID: "a", Step: StepWrite, Path: "x.md", Err: errors.New("boom")}
	assert.Equal(t, "task a: write x.md: boom", err.Error())

	err = &WriteError{TaskID: "a", Step: StepValidate, Err: errors.New("id is required")}
	assert.Equal(t, "task a: validate: id is required", err.Error())
}
