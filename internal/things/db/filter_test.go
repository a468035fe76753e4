package db

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, []string{}},
		{"empty string", "", []string{}},
		{"single", "urgent", []string{"urgent"}},
		{"comma separated", " a, b ,,c ", []string{"a", "b", "c"}},
		{"string slice", []string{"a", " b,c "}, []string{"a", "b", "c"}},
		{"any slice", []any{"a", 3, "b"}, []string{"a", "b"}},
		{"number", 42, []string{}},
		{"map", map[string]string{"a": "b"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeList(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeList(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildTaskQueryArgOrder(t *testing.T) {
	filter := Filter{
		Tags:       []string{"t1", "t2"},
		Projects:   []string{"p1"},
		Areas:      []string{"a1", "a2"},
		ExcludeTag: "done",
	}

	query, args := buildTaskQuery(filter)

	want := []interface{}{"done", "t1", "t2", "p1", "a1", "a2"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}
	if got := strings.Count(query, "?"); got != len(want) {
		t.Errorf("placeholders = %d, want %d", got, len(want))
	}
	if !strings.Contains(query, "ORDER BY t.stopDate") {
		t.Error("query must order by completion date")
	}
}

func TestBuildTaskQueryEmptyFilter(t *testing.T) {
	query, args := buildTaskQuery(Filter{})
	if !reflect.DeepEqual(args, []interface{}{DefaultImportedTag}) {
		t.Errorf("args = %v, want [%s]", args, DefaultImportedTag)
	}
	if strings.Contains(query, "p.title IN") || strings.Contains(query, "fg.title IN") {
		t.Error("empty filter must not add IN clauses")
	}
}

func TestFilterString(t *testing.T) {
	if got := (Filter{}).String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
	f := NewFilter("a,b", nil, []any{"Work"})
	if got := f.String(); got != "tags=a,b areas=Work" {
		t.Errorf("String() = %q", got)
	}
}
