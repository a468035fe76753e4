package db

import (
	"fmt"
	"strings"
)

// DefaultImportedTag is the Things tag that marks a task as already imported.
// Tasks carrying it are never selected.
const DefaultImportedTag = "imported"

// Filter restricts which tasks GetTasks returns.
//
// Each non-empty dimension must match (AND); within a dimension any listed
// value matches (OR). Empty dimensions do not constrain the result.
type Filter struct {
	// Tags matches tasks carrying at least one of these tag titles.
	Tags []string
	// Projects matches tasks whose project title is listed.
	Projects []string
	// Areas matches tasks whose area, or whose project's area, is listed.
	Areas []string
	// ExcludeTag overrides DefaultImportedTag.
	ExcludeTag string
}

// NewFilter builds a Filter from raw setting values; see NormalizeList.
func NewFilter(tags, projects, areas any) Filter {
	return Filter{
		Tags:     NormalizeList(tags),
		Projects: NormalizeList(projects),
		Areas:    NormalizeList(areas),
	}
}

// IsEmpty reports whether no dimension constrains the result.
func (f Filter) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Projects) == 0 && len(f.Areas) == 0
}

// String returns a compact description for logs.
func (f Filter) String() string {
	if f.IsEmpty() {
		return "none"
	}
	var parts []string
	if len(f.Tags) > 0 {
		parts = append(parts, "tags="+strings.Join(f.Tags, ","))
	}
	if len(f.Projects) > 0 {
		parts = append(parts, "projects="+strings.Join(f.Projects, ","))
	}
	if len(f.Areas) > 0 {
		parts = append(parts, "areas="+strings.Join(f.Areas, ","))
	}
	return strings.Join(parts, " ")
}

func (f Filter) excludeTag() string {
	if f.ExcludeTag != "" {
		return f.ExcludeTag
	}
	return DefaultImportedTag
}

// NormalizeList turns a setting value into a clean list.
//
// Strings are split on commas; lists of strings are split element-wise.
// Entries are trimmed and empty entries dropped. Any other value, including
// nil, numbers and maps, yields an empty list.
func NormalizeList(v any) []string {
	var raw []string
	switch val := v.(type) {
	case string:
		raw = strings.Split(val, ",")
	case []string:
		for _, s := range val {
			raw = append(raw, strings.Split(s, ",")...)
		}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				raw = append(raw, strings.Split(s, ",")...)
			}
		}
	default:
		return []string{}
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// placeholders returns "?, ?, ?" for n values.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// appendStrings appends each string to args.
func appendStrings(args []interface{}, values []string) []interface{} {
	for _, v := range values {
		args = append(args, v)
	}
	return args
}

// inClause renders "expr IN (?, ...)" for values.
func inClause(expr string, values []string) string {
	return fmt.Sprintf("%s IN (%s)", expr, placeholders(len(values)))
}
