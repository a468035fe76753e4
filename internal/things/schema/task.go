// Package schema provides data structures for records read from the Things database.
package schema

import (
	"fmt"
	"strings"

	"github.com/thingsync/thingsync/internal/things/dates"
)

// Status is the raw TMTask.status code.
type Status int

// Known status codes. Other values are carried through unchanged.
const (
	StatusOpen      Status = 0
	StatusCanceled  Status = 2
	StatusCompleted Status = 3
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusCanceled:
		return "canceled"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Task is one row of TMTask with its joined tag, project and area names.
// Tasks are read-only; nothing in this module writes them back.
type Task struct {
	// ===== Identification =====
	ID string

	// ===== Content =====
	Title  string
	Notes  string
	Status Status

	// ===== Classification =====
	Tags    []string
	Project string
	// Area is the task's own area.
	Area string
	// ProjectArea is the area of the task's project. It is kept apart from
	// Area because the source treats the two as alternative lookups.
	ProjectArea string

	// ===== Raw dates (see package dates) =====
	Creation float64
	Start    float64
	Stop     float64
	Deadline float64
}

// Validate checks that the task can be turned into a document.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("id is required")
	}
	return nil
}

// EffectiveArea returns the direct area, falling back to the project's area.
func (t *Task) EffectiveArea() string {
	if t.Area != "" {
		return t.Area
	}
	return t.ProjectArea
}

// CreatedValue returns the creation date, or the start date when the creation
// date is missing or undecodable.
func (t *Task) CreatedValue() float64 {
	return dates.First(t.Creation, t.Start)
}

// ShortID returns the first 8 characters of the identifier.
func (t *Task) ShortID() string {
	if len(t.ID) <= 8 {
		return t.ID
	}
	return t.ID[:8]
}

// DeepLink returns the URL that opens this task in Things.
func (t *Task) DeepLink() string {
	return "things:///show?id=" + t.ID
}
