package schema

// ChecklistDone is the TMChecklistItem.status value meaning "checked".
const ChecklistDone = 3

// ChecklistItem is one ordered sub-item of a task.
type ChecklistItem struct {
	ID     string
	TaskID string
	Title  string
	Index  int
	Status int
}

// Checked reports whether the item is done. Unknown status codes are unchecked.
func (c ChecklistItem) Checked() bool {
	return c.Status == ChecklistDone
}
