package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/thingsync/thingsync/internal/things/schema"
)

// Seen reports identifiers that were already processed.
// *cache.Cache satisfies it.
type Seen interface {
	Has(id string) bool
}

// tagSeparator joins tag titles in GROUP_CONCAT; titles may contain commas.
const tagSeparator = "\x1f"

// taskColumns is shared by every task query. The project is reached either
// directly or through the task's heading; the area either directly or through
// the project.
const taskColumns = `
	SELECT
		t.uuid,
		COALESCE(t.title, ''),
		COALESCE(t.notes, ''),
		COALESCE(t.status, 0),
		t.creationDate,
		t.startDate,
		t.stopDate,
		t.deadline,
		COALESCE(p.title, ''),
		COALESCE(a.title, ''),
		COALESCE(pa.title, ''),
		COALESCE(GROUP_CONCAT(tg.title, char(31)), '')
	FROM TMTask t
	LEFT JOIN TMTask h ON h.uuid = t.heading
	LEFT JOIN TMTask p ON p.uuid = COALESCE(t.project, h.project)
	LEFT JOIN TMArea a ON a.uuid = t.area
	LEFT JOIN TMArea pa ON pa.uuid = p.area
	LEFT JOIN TMTaskTag tt ON tt.tasks = t.uuid
	LEFT JOIN TMTag tg ON tg.uuid = tt.tags
`

// buildTaskQuery returns the eligible-task query and its positional args.
// Args are appended in exactly the order their placeholders appear.
func buildTaskQuery(filter Filter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "t.type = 0", "t.trashed = 0")

	conditions = append(conditions, `NOT EXISTS (
		SELECT 1 FROM TMTaskTag xt
		JOIN TMTag xg ON xg.uuid = xt.tags
		WHERE xt.tasks = t.uuid AND xg.title = ?)`)
	args = append(args, filter.excludeTag())

	if len(filter.Tags) > 0 {
		conditions = append(conditions, `EXISTS (
		SELECT 1 FROM TMTaskTag ft
		JOIN TMTag fg ON fg.uuid = ft.tags
		WHERE ft.tasks = t.uuid AND `+inClause("fg.title", filter.Tags)+`)`)
		args = appendStrings(args, filter.Tags)
	}

	if len(filter.Projects) > 0 {
		conditions = append(conditions, inClause("p.title", filter.Projects))
		args = appendStrings(args, filter.Projects)
	}

	if len(filter.Areas) > 0 {
		conditions = append(conditions, inClause("COALESCE(a.title, pa.title)", filter.Areas))
		args = appendStrings(args, filter.Areas)
	}

	query := taskColumns + `
	WHERE ` + strings.Join(conditions, "\n\t  AND ") + `
	GROUP BY t.uuid
	ORDER BY t.stopDate ASC, t.creationDate ASC, t.uuid ASC
	`

	return query, args
}

// GetTasks returns the eligible tasks matching filter, ordered by completion
// date. Tasks for which seen.Has returns true are dropped; seen may be nil.
func (db *DB) GetTasks(ctx context.Context, filter Filter, seen Seen) ([]*schema.Task, error) {
	query, args := buildTaskQuery(filter)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}

	if seen == nil {
		return tasks, nil
	}

	fresh := tasks[:0]
	for _, task := range tasks {
		if !seen.Has(task.ID) {
			fresh = append(fresh, task)
		}
	}
	return fresh, nil
}

// scanTasks is a helper function to scan multiple tasks from query results.
func scanTasks(rows *sql.Rows) ([]*schema.Task, error) {
	var tasks []*schema.Task

	for rows.Next() {
		var task schema.Task
		var status int
		var creation, start, stop, deadline sql.NullFloat64
		var tags string

		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Notes,
			&status,
			&creation,
			&start,
			&stop,
			&deadline,
			&task.Project,
			&task.Area,
			&task.ProjectArea,
			&tags,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		task.Status = schema.Status(status)
		task.Creation = nullFloat(creation)
		task.Start = nullFloat(start)
		task.Stop = nullFloat(stop)
		task.Deadline = nullFloat(deadline)
		task.Tags = splitTags(tags)

		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// splitTags parses the GROUP_CONCAT column into a sorted, duplicate-free list.
func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	seen := make(map[string]bool)
	var tags []string
	for _, tag := range strings.Split(s, tagSeparator) {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// nullFloat converts a nullable SQL number to 0 when absent.
func nullFloat(n sql.NullFloat64) float64 {
	if !n.Valid {
		return 0
	}
	return n.Float64
}
