package sdrf

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoAssays = "source name\tcharacteristics[organism]\tassay name\tcomment[data file]\n" +
	"PXD1-Sample-1\tHomo sapiens\trun 1\trun1.raw\n" +
	"PXD1-Sample-2\tHomo sapiens\trun 2\trun1.raw\n" +
	"PXD1-Sample-3\tMus musculus\trun 3\trun2.raw\n"

func mustRead(t *testing.T, s string) *Table {
	t.Helper()
	tab, err := ReadTable(strings.NewReader(s), '\t')
	require.NoError(t, err)
	return tab
}

func TestParseColumn(t *testing.T) {
	tests := []struct {
		raw       string
		name      string
		kind      Kind
		qualifier string
	}{
		{"source name", "source name", Innate, ""},
		{"Characteristics[Organism]", "characteristics[organism]", Characteristic, "organism"},
		{"characteristic[disease ]", "characteristics[disease]", Characteristic, "disease"},
		{" comment[ data file ] ", "comment[data file]", Comment, "data file"},
		{"factor value[time]", "factor value[time]", Factor, "time"},
		{"technology type", "technology type", Innate, ""},
		{"unknown[thing]", "unknown[thing]", Innate, ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			c := ParseColumn(tt.raw)
			assert.Equal(t, tt.name, c.Name)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.qualifier, c.Qualifier)
			assert.Equal(t, strings.TrimSpace(tt.raw), c.Raw)
		})
	}
}

func TestReadTableKeepsDuplicateHeaders(t *testing.T) {
	tab := mustRead(t, "source name\tcomment[modification parameters]\tcomment[modification parameters]\tcomment[data file]\n"+
		"s1\tNT=Oxidation;TA=M\tNT=Carbamidomethyl;TA=C\ta.raw\n")

	require.Len(t, tab.Columns, 4)
	require.Len(t, tab.Rows, 1)
	assert.Equal(t, 2, tab.Rows[0].Line)
	assert.Equal(t, []int{1, 2}, tab.Indices("comment[modification parameters]"))
	assert.Equal(t,
		[]string{"NT=Oxidation;TA=M", "NT=Carbamidomethyl;TA=C"},
		tab.Values(tab.Rows[0], "Comment[Modification Parameters]"))
}

func TestReadTableStripsByteOrderMark(t *testing.T) {
	tab := mustRead(t, "\ufeffsource name\tcomment[data file]\ns1\ta.raw\n")
	assert.Equal(t, "source name", tab.Columns[0].Name)
}

func TestReadTableMalformed(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader(""), '\t')
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("reports every short row", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader("a\tb\tc\n1\t2\t3\n1\t2\n1\n"), '\t')
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformed)
		assert.Contains(t, err.Error(), "line 3 has 2 columns")
		assert.Contains(t, err.Error(), "line 4 has 1 columns")

		var rowErr *RowError
		require.True(t, errors.As(err, &rowErr))
		assert.Equal(t, 3, rowErr.Line)
	})
}

func TestNormalizeFileName(t *testing.T) {
	tests := map[string]string{
		"run1.raw":                  "run1",
		"run1.RAW":                  "run1",
		`C:\data\run1.raw`:          "run1",
		"/data/run1.mzML.gz":        "run1",
		"file:///tmp/run1.mzML":     "run1",
		"run1":                      "run1",
		"sample.1.raw":              "sample.1",
		"":                          "",
		"  spaced name.raw  ":       "spaced name",
		"gs://bucket/dir/run2.wiff": "run2",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizeFileName(in), in)
	}
}

func TestSelectRows(t *testing.T) {
	tab := mustRead(t, twoAssays)

	t.Run("exact", func(t *testing.T) {
		rows, err := SelectRows(tab, "run1.raw")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, 2, rows[0].Line)
		assert.Equal(t, 3, rows[1].Line)
	})

	t.Run("basename", func(t *testing.T) {
		rows, err := SelectRows(tab, `D:\acquisitions\run2.mzML`)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "PXD1-Sample-3", rows[0].Values[0])
	})

	t.Run("dotted stem without extension", func(t *testing.T) {
		dotted := mustRead(t, "assay name\tcomment[data file]\n"+
			"run 1\t20190101_QE.HF_run1.raw\n"+
			"run 2\t20190101_QE.HF_run2.raw\n")

		rows, err := SelectRows(dotted, "20190101_QE.HF_run1")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "run 1", rows[0].Values[0])

		rows, err = SelectRows(dotted, "/data/20190101_QE.HF_run2.raw.gz")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "run 2", rows[0].Values[0])
	})

	t.Run("absent", func(t *testing.T) {
		_, err := SelectRows(tab, "run9.raw")
		assert.ErrorIs(t, err, ErrNoMatchingRows)
		assert.Contains(t, err.Error(), "run9.raw")
	})

	t.Run("empty target", func(t *testing.T) {
		_, err := SelectRows(tab, " ")
		assert.ErrorIs(t, err, ErrNoMatchingRows)
	})

	t.Run("no data file column", func(t *testing.T) {
		_, err := SelectRows(mustRead(t, "source name\ns1\n"), "run1.raw")
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestGroupByAssay(t *testing.T) {
	tab := mustRead(t, twoAssays)
	rows, err := SelectRows(tab, "run1.raw")
	require.NoError(t, err)

	groups := DefaultGroupPolicy.Group(tab, rows)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"PXD1-Sample-1", "run 1"}, groups[0].Key)
	assert.Equal(t, []string{"PXD1-Sample-2", "run 2"}, groups[1].Key)

	name, ok := DefaultGroupPolicy.Name(tab, groups[1])
	require.True(t, ok)
	assert.Equal(t, "PXD1-Sample-2", name)
}

func TestGroupMergesRepeatedKeys(t *testing.T) {
	tab := mustRead(t, "assay name\tcomment[fraction identifier]\tcomment[data file]\n"+
		"run 1\t1\tf.raw\n"+
		"run 2\t1\tf.raw\n"+
		"run 1\t2\tf.raw\n")

	groups := GroupPolicy{IdentityColumns: []string{AssayNameColumn}}.Group(tab, tab.Rows)
	require.Len(t, groups, 2)

	// First-appearance order, rows in input order
	assert.Equal(t, []string{"run 1"}, groups[0].Key)
	require.Len(t, groups[0].Rows, 2)
	assert.Equal(t, 2, groups[0].Rows[0].Line)
	assert.Equal(t, 4, groups[0].Rows[1].Line)
	assert.Equal(t, []string{"run 2"}, groups[1].Key)

	// Disjoint, and the union is every selected row
	total := 0
	for _, g := range groups {
		total += len(g.Rows)
	}
	assert.Equal(t, len(tab.Rows), total)
}

func TestGroupKeepsMultiplexChannelsApart(t *testing.T) {
	tab := mustRead(t, "source name\tassay name\tcomment[label]\tcomment[data file]\n"+
		"s1\trun 1\tTMT126\ttmt.raw\n"+
		"s2\trun 1\tTMT127\ttmt.raw\n")

	groups := DefaultGroupPolicy.Group(tab, tab.Rows)
	assert.Len(t, groups, 2)
}

func TestGroupWithoutIdentityColumns(t *testing.T) {
	tab := mustRead(t, "characteristics[organism]\tcomment[data file]\nHomo sapiens\ta.raw\nHomo sapiens\ta.raw\n")

	groups := DefaultGroupPolicy.Group(tab, tab.Rows)
	require.Len(t, groups, 2)
	assert.Nil(t, groups[0].Key)

	_, ok := DefaultGroupPolicy.Name(tab, groups[0])
	assert.False(t, ok)
}
