// Package thingstest builds small Things databases for tests.
package thingstest

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Schema is the subset of the Things 3 schema the importer reads.
const Schema = `
CREATE TABLE TMArea (
	uuid TEXT PRIMARY KEY,
	title TEXT,
	"index" INTEGER
);

CREATE TABLE TMTask (
	uuid TEXT PRIMARY KEY,
	title TEXT,
	notes TEXT,
	type INTEGER NOT NULL DEFAULT 0,
	status INTEGER NOT NULL DEFAULT 0,
	trashed INTEGER NOT NULL DEFAULT 0,
	creationDate REAL,
	startDate INTEGER,
	stopDate REAL,
	deadline INTEGER,
	area TEXT,
	project TEXT,
	heading TEXT,
	"index" INTEGER
);

CREATE TABLE TMTag (
	uuid TEXT PRIMARY KEY,
	title TEXT
);

CREATE TABLE TMTaskTag (
	tasks TEXT NOT NULL,
	tags TEXT NOT NULL
);

CREATE TABLE TMChecklistItem (
	uuid TEXT PRIMARY KEY,
	title TEXT,
	status INTEGER NOT NULL DEFAULT 0,
	task TEXT,
	"index" INTEGER
);
`

// Type values of TMTask rows.
const (
	TypeTodo    = 0
	TypeProject = 1
	TypeHeading = 2
)

// Row describes one TMTask row. Zero dates are stored as NULL.
type Row struct {
	ID       string
	Title    string
	Notes    string
	Type     int
	Status   int
	Trashed  bool
	Creation float64
	Start    int64
	Stop     float64
	Deadline int64
	Area     string
	Project  string
	Heading  string
}

// Fixture is a writable Things database on disk.
type Fixture struct {
	Path string
	t    *testing.T
	db   *sql.DB
	tags map[string]string
}

// New creates an empty Things database in a temp directory.
// The connection is closed automatically when the test ends.
func New(t *testing.T) *Fixture {
	t.Helper()
	return NewAt(t, filepath.Join(t.TempDir(), "main.sqlite"))
}

// NewAt creates an empty Things database at path, creating parent
// directories as needed.
func NewAt(t *testing.T, path string) *Fixture {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture directory: %v", err)
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to create fixture database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if _, err := conn.Exec(Schema); err != nil {
		t.Fatalf("failed to create fixture schema: %v", err)
	}

	return &Fixture{Path: path, t: t, db: conn, tags: make(map[string]string)}
}

// Exec runs a statement against the fixture.
func (f *Fixture) Exec(query string, args ...any) {
	f.t.Helper()
	if _, err := f.db.Exec(query, args...); err != nil {
		f.t.Fatalf("fixture exec failed: %v\n%s", err, query)
	}
}

// AddArea inserts an area.
func (f *Fixture) AddArea(id, title string) {
	f.t.Helper()
	f.Exec(`INSERT INTO TMArea (uuid, title) VALUES (?, ?)`, id, title)
}

// AddProject inserts a project, optionally inside an area.
func (f *Fixture) AddProject(id, title, area string) {
	f.t.Helper()
	f.AddRow(Row{ID: id, Title: title, Type: TypeProject, Area: area})
}

// AddHeading inserts a heading inside a project.
func (f *Fixture) AddHeading(id, title, project string) {
	f.t.Helper()
	f.AddRow(Row{ID: id, Title: title, Type: TypeHeading, Project: project})
}

// AddRow inserts a TMTask row.
func (f *Fixture) AddRow(r Row) {
	f.t.Helper()
	trashed := 0
	if r.Trashed {
		trashed = 1
	}
	f.Exec(`INSERT INTO TMTask
		(uuid, title, notes, type, status, trashed, creationDate, startDate, stopDate, deadline, area, project, heading)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.Notes, r.Type, r.Status, trashed,
		nullFloat(r.Creation), nullInt(r.Start), nullFloat(r.Stop), nullInt(r.Deadline),
		nullString(r.Area), nullString(r.Project), nullString(r.Heading),
	)
}

// Tag attaches tag titles to a task, creating tags as needed.
func (f *Fixture) Tag(taskID string, titles ...string) {
	f.t.Helper()
	for _, title := range titles {
		tagID, ok := f.tags[title]
		if !ok {
			tagID = "tag-" + title
			f.tags[title] = tagID
			f.Exec(`INSERT INTO TMTag (uuid, title) VALUES (?, ?)`, tagID, title)
		}
		f.Exec(`INSERT INTO TMTaskTag (tasks, tags) VALUES (?, ?)`, taskID, tagID)
	}
}

// AddChecklistItem inserts a checklist entry for a task.
func (f *Fixture) AddChecklistItem(id, taskID, title string, index, status int) {
	f.t.Helper()
	f.Exec(`INSERT INTO TMChecklistItem (uuid, title, status, task, "index") VALUES (?, ?, ?, ?, ?)`,
		id, title, status, taskID, index)
}

func nullFloat(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
