package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thingsync/thingsync/internal/logging"
	"github.com/thingsync/thingsync/internal/things/db"
	"github.com/thingsync/thingsync/internal/things/resolve"
	"github.com/thingsync/thingsync/internal/vault"
	"github.com/thingsync/thingsync/internal/vault/cache"
	"github.com/thingsync/thingsync/internal/vault/note"
)

// Options are the resolved settings of a batch.
type Options struct {
	// DatabasePath is the configured database file; may start with ~.
	DatabasePath string
	// SearchDir holds ThingsData-* directories.
	SearchDir string
	Filter    db.Filter
	Note      note.Settings
	// CachePath is the vault path of the cache document (default cache.DefaultPath).
	CachePath string
	// DryRun renders and counts documents without touching the vault.
	DryRun bool
}

// Deps are the collaborators of a Syncer.
type Deps struct {
	Resolver Resolver
	Vault    vault.FS
	Logger   *slog.Logger
	Options  Options
}

// Result summarizes a batch.
type Result struct {
	// DatabasePath is the resolved database file.
	DatabasePath string
	// Found is the number of eligible tasks not in the cache at query time.
	Found int
	// Written counts documents written (or that would be written in a dry run).
	Written int
	// Cached counts cache entries added.
	Cached int
	// Skipped counts tasks already in the cache when their turn came.
	Skipped int
	// Failed counts tasks that could not be written.
	Failed int
	// Errors describes each failure.
	Errors []string
	// Paths lists the vault paths written, in processing order.
	Paths []string
	// DryRun is set when nothing was written.
	DryRun bool
	// Canceled is set when the context stopped the batch early.
	Canceled bool
}

// Location describes the database a batch would read.
type Location struct {
	Path    string
	Source  resolve.Source
	ModTime time.Time
	Tasks   int
}

// syncer implements the Syncer interface.
type syncer struct {
	resolver Resolver
	vault    vault.FS
	logger   *slog.Logger
	opts     Options
	now      func() time.Time
}

// New creates a new Syncer instance.
//
// If deps.Resolver is nil, a resolver with default locations is used. If
// deps.Logger is nil, logs are discarded.
func New(deps Deps) Syncer {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = resolve.New(resolve.Options{Logger: logger})
	}
	return &syncer{
		resolver: resolver,
		vault:    deps.Vault,
		logger:   logger,
		opts:     deps.Options,
		now:      time.Now,
	}
}

// open resolves and opens the database for one batch.
func (s *syncer) open(ctx context.Context) (*db.DB, *resolve.Result, error) {
	res, err := s.resolver.Resolve(s.opts.DatabasePath, s.opts.SearchDir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrResolve, err)
	}
	s.logger.Debug("resolved database", "path", res.Path, "source", res.Source.String())

	handle, err := db.Open(ctx, res.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	return handle, res, nil
}

// loadCache reads the import cache from the vault.
func (s *syncer) loadCache() *cache.Cache {
	c := cache.New(cache.NewVaultStore(s.vault, s.opts.CachePath), s.logger)
	c.Load()
	return c
}

// Import implements Syncer.Import.
func (s *syncer) Import(ctx context.Context) (*Result, error) {
	handle, res, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	c := s.loadCache()

	tasks, err := handle.GetTasks(ctx, s.opts.Filter, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	result := &Result{DatabasePath: res.Path, Found: len(tasks), DryRun: s.opts.DryRun}
	s.logger.Info("starting import",
		"database", res.Path, "tasks", len(tasks), "filter", s.opts.Filter.String(), "dry_run", s.opts.DryRun)

	writer := note.NewWriter(s.vault, c, s.opts.Note, s.logger)
	planned := make(map[string]bool)
	var queryErr error

	for _, task := range tasks {
		if ctx.Err() != nil {
			result.Canceled = true
			break
		}

		if c.Has(task.ID) || planned[task.ID] {
			result.Skipped++
			continue
		}

		checklist, err := handle.GetChecklistItems(ctx, task.ID)
		if err != nil {
			if ctx.Err() != nil {
				result.Canceled = true
				break
			}
			queryErr = fmt.Errorf("%w: %w", ErrQuery, err)
			break
		}

		if s.opts.DryRun {
			if _, err := note.Render(task, checklist, s.opts.Note); err != nil {
				s.fail(result, task.ID, err)
				continue
			}
			planned[task.ID] = true
			result.Written++
			result.Paths = append(result.Paths, note.Path(task, s.opts.Note.Folder))
			continue
		}

		path, err := writer.Write(ctx, task, checklist)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			result.Canceled = true
			break
		}
		if err != nil {
			var werr *note.WriteError
			if errors.As(err, &werr) && werr.Step == note.StepCache {
				// Written; the entry is retried by the final save below.
				s.logger.Warn("failed to save import cache after write", "task", task.ID, "error", err)
			} else {
				s.fail(result, task.ID, err)
				continue
			}
		}
		result.Written++
		result.Cached++
		result.Paths = append(result.Paths, path)
	}

	if !s.opts.DryRun {
		if err := c.Save(); err != nil {
			return result, fmt.Errorf("failed to save import cache: %w", err)
		}
	}

	if queryErr != nil {
		s.logger.Error("import aborted", "written", result.Written, "error", queryErr)
		return result, queryErr
	}

	s.logger.Info("import complete",
		"found", result.Found, "written", result.Written, "skipped", result.Skipped, "failed", result.Failed)

	if result.Canceled {
		return result, ctx.Err()
	}
	return result, nil
}

// RebuildCache implements Syncer.RebuildCache.
func (s *syncer) RebuildCache(ctx context.Context) (*Result, error) {
	handle, res, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	c := s.loadCache()

	tasks, err := handle.GetTasks(ctx, s.opts.Filter, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	result := &Result{DatabasePath: res.Path, Found: len(tasks), DryRun: s.opts.DryRun}
	s.logger.Info("rebuilding import cache", "database", res.Path, "tasks", len(tasks))

	for _, task := range tasks {
		if ctx.Err() != nil {
			result.Canceled = true
			break
		}
		if c.Has(task.ID) {
			result.Skipped++
			continue
		}
		c.Add(task.ID, cache.Entry{ImportedAt: s.now().UTC()})
		result.Cached++
	}

	if !s.opts.DryRun {
		if err := c.Save(); err != nil {
			return result, fmt.Errorf("failed to save import cache: %w", err)
		}
	}

	s.logger.Info("rebuild complete", "cached", result.Cached, "skipped", result.Skipped)

	if result.Canceled {
		return result, ctx.Err()
	}
	return result, nil
}

// Locate implements Syncer.Locate.
func (s *syncer) Locate(ctx context.Context) (*Location, error) {
	handle, res, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	n, err := handle.CountTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	return &Location{Path: res.Path, Source: res.Source, ModTime: res.ModTime, Tasks: n}, nil
}

// fail records a per-task failure and keeps the batch going.
func (s *syncer) fail(result *Result, taskID string, err error) {
	s.logger.Warn("failed to import task", "task", taskID, "error", err)
	result.Failed++
	result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", taskID, err))
}
