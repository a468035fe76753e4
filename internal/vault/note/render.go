// Package note turns Things tasks into Markdown documents in a vault.
package note

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thingsync/thingsync/internal/things/dates"
	"github.com/thingsync/thingsync/internal/things/schema"
)

// Headers are the section heading lines of a document. An empty header
// suppresses its heading line but not the section content.
type Headers struct {
	Document  string
	Task      string
	Details   string
	Checklist string
}

// DefaultHeaders returns the stock section headings.
func DefaultHeaders() Headers {
	return Headers{
		Document:  "",
		Task:      "## Task",
		Details:   "## Details",
		Checklist: "## Checklist",
	}
}

// Settings control how documents are named, tagged and laid out.
type Settings struct {
	// Folder is the vault folder documents are written to; "" is the root.
	Folder string
	// IncludeProject adds the project title as a tag.
	IncludeProject bool
	// IncludeArea adds the area title as a tag, falling back to the
	// project's area.
	IncludeArea bool
	// CustomTags are added to every document.
	CustomTags []string
	Headers    Headers
}

// frontmatter holds the fixed metadata keys in output order.
type frontmatter struct {
	ID         string   `yaml:"id"`
	ThingsLink string   `yaml:"things-link"`
	Created    string   `yaml:"created"`
	Start      string   `yaml:"start"`
	Completed  string   `yaml:"completed"`
	Deadline   string   `yaml:"deadline"`
	Tags       []string `yaml:"tags"`
}

// Tags returns the document tags: the task's own tags, then the project and
// area when enabled, then the custom tags. Entries are trimmed, empties
// dropped and duplicates removed keeping the first occurrence.
func Tags(task *schema.Task, settings Settings) []string {
	var raw []string
	raw = append(raw, task.Tags...)
	if settings.IncludeProject {
		raw = append(raw, task.Project)
	}
	if settings.IncludeArea {
		raw = append(raw, task.EffectiveArea())
	}
	raw = append(raw, settings.CustomTags...)

	seen := make(map[string]bool, len(raw))
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// Render produces the Markdown document for task.
func Render(task *schema.Task, checklist []schema.ChecklistItem, settings Settings) ([]byte, error) {
	meta := frontmatter{
		ID:         task.ID,
		ThingsLink: task.DeepLink(),
		Created:    dates.ToISO(task.CreatedValue()),
		Start:      dates.ToISO(task.Start),
		Completed:  dates.ToISO(task.Stop),
		Deadline:   dates.ToISO(task.Deadline),
		Tags:       Tags(task, settings),
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode frontmatter: %w", err)
	}
	buf.WriteString("---\n")

	h := settings.Headers
	if h.Document != "" {
		buf.WriteString("\n" + h.Document + "\n")
	}

	section(&buf, h.Task, task.Title)

	if notes := strings.TrimSpace(task.Notes); notes != "" {
		section(&buf, h.Details, notes)
	}

	if len(checklist) > 0 {
		var lines []string
		for _, item := range checklist {
			box := "[ ]"
			if item.Checked() {
				box = "[x]"
			}
			lines = append(lines, fmt.Sprintf("- %s %s", box, item.Title))
		}
		section(&buf, h.Checklist, strings.Join(lines, "\n"))
	}

	return buf.Bytes(), nil
}

// section appends a blank line, the heading (if any) and the body.
func section(buf *bytes.Buffer, heading, body string) {
	buf.WriteString("\n")
	if heading != "" {
		buf.WriteString(heading + "\n")
	}
	buf.WriteString(body + "\n")
}
