package sdrf

import "strings"

// GroupPolicy decides which rows describe the same sample and what the sample
// is called.
type GroupPolicy struct {
	// IdentityColumns together form the grouping key. Columns missing from the
	// table are left out of the key; if none are present every row is its own
	// sample.
	IdentityColumns []string

	// NameColumns are tried in order for a sample's display name.
	NameColumns []string
}

// DefaultGroupPolicy treats each distinct (source name, assay name, label)
// combination as one sample. Label-free runs usually carry one row per data
// file, so this is one sample per assay; multiplexed runs carry one row per
// channel, and the label keeps the channels apart.
var DefaultGroupPolicy = GroupPolicy{
	IdentityColumns: []string{SourceNameColumn, AssayNameColumn, LabelColumn},
	NameColumns:     []string{SourceNameColumn, AssayNameColumn},
}

// Group is the set of rows that make up one sample.
type Group struct {
	Key  []string
	Rows []Row
}

// Group partitions rows into samples. Groups are ordered by the first
// appearance of their key, and rows within a group keep their input order.
func (p GroupPolicy) Group(t *Table, rows []Row) []Group {
	idx := make([]int, 0, len(p.IdentityColumns))
	for _, name := range p.IdentityColumns {
		if found := t.Indices(name); len(found) > 0 {
			idx = append(idx, found[0])
		}
	}

	out := make([]Group, 0)

	if len(idx) == 0 {
		for _, row := range rows {
			out = append(out, Group{Rows: []Row{row}})
		}
		return out
	}

	seen := make(map[string]int)
	for _, row := range rows {
		key := make([]string, 0, len(idx))
		for _, i := range idx {
			key = append(key, strings.TrimSpace(row.Values[i]))
		}

		joined := strings.Join(key, "\x00")
		if pos, exists := seen[joined]; exists {
			out[pos].Rows = append(out[pos].Rows, row)
			continue
		}

		seen[joined] = len(out)
		out = append(out, Group{Key: key, Rows: []Row{row}})
	}

	return out
}

// Name returns the display name of a group from the first non-empty name
// column of its first row.
func (p GroupPolicy) Name(t *Table, g Group) (string, bool) {
	if len(g.Rows) == 0 {
		return "", false
	}

	for _, col := range p.NameColumns {
		if v, ok := t.Lookup(g.Rows[0], col); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}

	return "", false
}
