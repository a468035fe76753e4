package db

import (
	"context"
	"fmt"

	"github.com/thingsync/thingsync/internal/things/schema"
)

// GetChecklistItems returns the checklist of a task ordered by its index.
func (db *DB) GetChecklistItems(ctx context.Context, taskID string) ([]schema.ChecklistItem, error) {
	query := `
	SELECT uuid, task, COALESCE(title, ''), COALESCE("index", 0), COALESCE(status, 0)
	FROM TMChecklistItem
	WHERE task = ?
	ORDER BY "index" ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checklist for %s: %w", taskID, err)
	}
	defer rows.Close()

	var items []schema.ChecklistItem
	for rows.Next() {
		var item schema.ChecklistItem
		if err := rows.Scan(&item.ID, &item.TaskID, &item.Title, &item.Index, &item.Status); err != nil {
			return nil, fmt.Errorf("failed to scan checklist item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checklist items: %w", err)
	}

	return items, nil
}
