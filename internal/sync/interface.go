package sync

import (
	"context"
	"errors"

	"github.com/thingsync/thingsync/internal/things/resolve"
)

// Fatal batch preconditions. Errors returned by Syncer wrap one of these
// together with the underlying cause.
var (
	// ErrResolve means no valid database file was found.
	ErrResolve = errors.New("cannot resolve Things database")

	// ErrOpen means the database file was found but could not be opened.
	ErrOpen = errors.New("cannot open Things database")

	// ErrQuery means the task query failed.
	ErrQuery = errors.New("cannot query Things database")
)

// Resolver finds the database file. *resolve.Resolver implements it.
type Resolver interface {
	Resolve(configured, searchDir string) (*resolve.Result, error)
}

// Syncer runs import batches.
//
// Both batch entry points are linear: resolve, open, load cache, query,
// process each task, save cache, close. Per-task failures never abort a batch.
type Syncer interface {
	// Import writes one document per eligible task not yet in the cache and
	// records each written task in the cache.
	//
	// The returned Result is non-nil whenever the batch got past the query,
	// even if err is set (for example on cancellation or a final cache save
	// failure).
	//
	// Example:
	//   result, err := syncer.Import(ctx)
	Import(ctx context.Context) (*Result, error)

	// RebuildCache adds a cache entry with an empty path for every eligible
	// task not yet in the cache, without writing documents. The cache is
	// saved once at the end.
	//
	// Example:
	//   result, err := syncer.RebuildCache(ctx)
	RebuildCache(ctx context.Context) (*Result, error)

	// Locate resolves and opens the database and reports where it is and
	// how many to-dos it holds.
	Locate(ctx context.Context) (*Location, error)
}
