package sdrf

// Row holds the cells of one SDRF line, aligned with Table.Columns. Line is the
// 1-based line number in the source file (the header is line 1).
type Row struct {
	Line   int
	Values []string
}

// Table is an SDRF file held in memory. Column order is the header order and
// duplicate headers are kept as separate columns.
type Table struct {
	Columns []Column
	Rows    []Row
}

// Indices returns the positions of every column whose normalized name is
// name, in header order.
func (t *Table) Indices(name string) []int {
	name = NormalizeName(name)

	out := make([]int, 0, 1)
	for _, c := range t.Columns {
		if c.Name == name {
			out = append(out, c.Index)
		}
	}

	return out
}

// Has reports whether the table has at least one column named name.
func (t *Table) Has(name string) bool {
	return len(t.Indices(name)) > 0
}

// Lookup returns the value of the first column named name in row r.
func (t *Table) Lookup(r Row, name string) (string, bool) {
	idx := t.Indices(name)
	if len(idx) == 0 || idx[0] >= len(r.Values) {
		return "", false
	}

	return r.Values[idx[0]], true
}

// Values returns every value of the columns named name in row r, in header
// order. Multi-valued columns such as comment[modification parameters] yield
// more than one entry.
func (t *Table) Values(r Row, name string) []string {
	idx := t.Indices(name)

	out := make([]string, 0, len(idx))
	for _, i := range idx {
		if i < len(r.Values) {
			out = append(out, r.Values[i])
		}
	}

	return out
}
