package core

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// FormatOptions control the textual summary produced by Format.
type FormatOptions struct {
	// Backrefs enables the backref section when non-nil; the value is how
	// many levels of linking entities are expanded before they print as
	// bare ids.
	Backrefs *int
	// Depth is the starting indent level.
	Depth int
}

// WithBackrefs enables the backref section expanded to the given depth.
func WithBackrefs(depth int) func(*FormatOptions) {
	return func(o *FormatOptions) { o.Backrefs = &depth }
}

// Format returns an indented summary of this entity: type, id and all
// non-identity fields, recursing into linked entities. Instances already
// printed collapse to "...", so cyclic graphs terminate.
func (e *Entity) Format(optFns ...func(*FormatOptions)) string {
	opts := FormatOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	var b strings.Builder
	e.format(&b, opts.Backrefs, opts.Depth, make(map[*Entity]struct{}))
	return b.String()
}

// Pretty writes Format's output to w.
func (e *Entity) Pretty(w io.Writer, optFns ...func(*FormatOptions)) error {
	_, err := io.WriteString(w, e.Format(optFns...))
	return err
}

func (e *Entity) format(b *strings.Builder, backrefs *int, depth int, visited map[*Entity]struct{}) {
	fmt.Fprintf(b, "%s:%d at %p; ", e.displayType(), e.ID(), e)

	if _, ok := visited[e]; ok {
		b.WriteString("...\n")
		return
	}
	visited[e] = struct{}{}

	if len(e.fields) <= 2 {
		b.WriteString("{}\n")
		return
	}

	b.WriteString("{\n")
	depth++
	for _, k := range e.Fields() {
		if k == "id" || k == "type" {
			continue
		}
		v := e.fields[k]
		if linked, ok := v.(*Entity); ok {
			fmt.Fprintf(b, "%s%s = ", tabs(depth), k)
			linked.format(b, backrefs, depth, visited)
		} else {
			fmt.Fprintf(b, "%s%s = %s\n", tabs(depth), k, formatValue(v))
		}
	}

	if backrefs != nil {
		for _, key := range e.BackrefKeys() {
			fmt.Fprintf(b, "%s$FROM$%s.%s: ", tabs(depth), key.Type, key.Field)
			owners := e.backrefs[key]
			if *backrefs > 0 {
				b.WriteString("[\n")
				depth++
				next := *backrefs - 1
				for _, x := range owners {
					fmt.Fprintf(b, "%s- ", tabs(depth))
					x.format(b, &next, depth, visited)
				}
				depth--
				b.WriteString(tabs(depth) + "]\n")
			} else {
				ids := make([]int64, 0, len(owners))
				for _, x := range owners {
					ids = append(ids, x.ID())
				}
				sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
				parts := make([]string, len(ids))
				for i, id := range ids {
					parts[i] = fmt.Sprintf("%d", id)
				}
				b.WriteString(strings.Join(parts, ", ") + "\n")
			}
		}
	}

	depth--
	b.WriteString(tabs(depth) + "}\n")
}

func tabs(depth int) string { return strings.Repeat("\t", depth) }

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return fmt.Sprintf("%q", t)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("%v", v)
}
