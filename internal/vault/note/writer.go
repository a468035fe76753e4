package note

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thingsync/thingsync/internal/logging"
	"github.com/thingsync/thingsync/internal/things/schema"
	"github.com/thingsync/thingsync/internal/vault"
	"github.com/thingsync/thingsync/internal/vault/cache"
)

// ErrInvalidPath is returned when a derived path contains an "undefined" or
// "null" token, which points at bad upstream data.
var ErrInvalidPath = errors.New("derived path contains undefined or null")

// Step names the stage of a write that failed.
type Step int

const (
	StepValidate Step = iota
	StepRender
	StepFolder
	StepPath
	StepWrite
	StepCache
)

// String returns a human-readable representation of the step.
func (s Step) String() string {
	switch s {
	case StepValidate:
		return "validate"
	case StepRender:
		return "render"
	case StepFolder:
		return "create folder"
	case StepPath:
		return "check path"
	case StepWrite:
		return "write"
	case StepCache:
		return "save cache"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// WriteError reports a failed write of one document.
type WriteError struct {
	TaskID string
	Step   Step
	Path   string
	Err    error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("task %s: %s: %v", e.TaskID, e.Step, e.Err)
	}
	return fmt.Sprintf("task %s: %s %s: %v", e.TaskID, e.Step, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer writes task documents into a vault and records them in the cache.
type Writer struct {
	fs       vault.FS
	cache    *cache.Cache
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewWriter creates a Writer. If logger is nil, logs are discarded.
func NewWriter(fs vault.FS, c *cache.Cache, settings Settings, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Writer{
		fs:       fs,
		cache:    c,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Write renders task and writes it into the configured folder, replacing a
// document already at that path. Only after the write succeeds is the task
// added to the cache and the cache saved. It returns the vault path.
//
// Any failure aborts this task only and is reported as a *WriteError. When
// the document was written but the cache could not be saved, the returned
// path is set and the error has Step StepCache; the entry stays in memory.
func (w *Writer) Write(ctx context.Context, task *schema.Task, checklist []schema.ChecklistItem) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := task.Validate(); err != nil {
		return "", &WriteError{TaskID: task.ID, Step: StepValidate, Err: err}
	}

	content, err := Render(task, checklist, w.settings)
	if err != nil {
		return "", &WriteError{TaskID: task.ID, Step: StepRender, Err: err}
	}

	if err := w.ensureFolder(); err != nil {
		return "", &WriteError{TaskID: task.ID, Step: StepFolder, Path: vault.Clean(w.settings.Folder), Err: err}
	}

	notePath := Path(task, w.settings.Folder)
	if hasBogusToken(notePath) {
		w.logger.Warn("skipping task with suspicious path", "task", task.ID, "path", notePath)
		return "", &WriteError{TaskID: task.ID, Step: StepPath, Path: notePath, Err: ErrInvalidPath}
	}

	existed, err := w.fs.Exists(notePath)
	if err != nil {
		return "", &WriteError{TaskID: task.ID, Step: StepWrite, Path: notePath, Err: err}
	}
	if err := w.fs.Write(notePath, content); err != nil {
		return "", &WriteError{TaskID: task.ID, Step: StepWrite, Path: notePath, Err: err}
	}
	if existed {
		w.logger.Info("overwrote document", "task", task.ID, "path", notePath)
	} else {
		w.logger.Info("created document", "task", task.ID, "path", notePath)
	}

	w.cache.Add(task.ID, cache.Entry{ImportedAt: w.now().UTC(), Path: notePath})
	if err := w.cache.Save(); err != nil {
		return notePath, &WriteError{TaskID: task.ID, Step: StepCache, Path: notePath, Err: err}
	}

	return notePath, nil
}

// ensureFolder creates the destination folder when missing. A failed create
// is tolerated when the folder exists afterwards.
func (w *Writer) ensureFolder() error {
	folder := vault.Clean(w.settings.Folder)
	if folder == "" {
		return nil
	}

	ok, err := w.fs.Exists(folder)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	if createErr := w.fs.CreateFolder(folder); createErr != nil {
		if ok, err := w.fs.Exists(folder); err == nil && ok {
			w.logger.Debug("folder appeared while creating it", "folder", folder)
			return nil
		}
		return createErr
	}
	return nil
}
