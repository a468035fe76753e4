// Package sync runs import batches from the Things database into a vault.
//
// Overview
//
// A batch resolves the database path, opens it read-only, loads the import
// cache, selects the eligible tasks not yet in the cache and hands each one
// to the document writer. The cache is the only record of what was imported;
// Things itself is never modified.
//
// Architecture
//
//	Things main.sqlite (read-only)
//	     │  resolve.Resolver  → one validated path
//	     │  db.DB.GetTasks    → eligible tasks minus cached ids
//	     ▼
//	  Syncer ─────────────► note.Writer ──► <vault>/<folder>/*.md
//	     │                       │
//	     └──── cache.Cache ◄─────┘  <vault>/.thingsync/import-cache.json
//
// Usage
//
//	syncer := sync.New(sync.Deps{
//	    Resolver: resolve.New(resolve.Options{Logger: logger}),
//	    Vault:    v,
//	    Logger:   logger,
//	    Options: sync.Options{
//	        SearchDir: cfg.Database.SearchDir,
//	        Filter:    cfg.Filter(),
//	        Note:      cfg.NoteSettings(),
//	    },
//	})
//
//	result, err := syncer.Import(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("wrote %d of %d\n", result.Written, result.Found)
//
// Rebuild marks every eligible task as imported without writing documents:
//
//	result, err := syncer.RebuildCache(ctx)
//
// Error Handling
//
// Resolution and open failures abort the batch before anything is written
// (ErrResolve, ErrOpen). A failed query aborts it as well (ErrQuery).
// A failure for a single task is logged, counted in Result.Failed and the
// batch moves on; the task gets no cache entry and is retried next run.
//
// Concurrency
//
// Tasks are processed one at a time so each write sees the cache state left
// by the previous one. Cancelling the context stops the batch between tasks;
// the cache is still saved. Two batches must not run against the same vault
// at once.
package sync
