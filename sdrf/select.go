package sdrf

import (
	"fmt"
	"path"
	"strings"
)

var compressionSuffixes = []string{".gz", ".bz2", ".xz", ".zip", ".z"}

// NormalizeFileName reduces a data file reference to its base name without
// directory, compression suffix or extension, so that "C:\data\run1.RAW",
// "run1.raw" and "run1.mzML.gz" all become "run1".
func NormalizeFileName(s string) string {
	s = baseName(s)

	if ext := path.Ext(s); ext != "" && len(ext) < len(s) {
		s = strings.TrimSuffix(s, ext)
	}

	return s
}

// baseName drops the directory and compression suffix of a file reference but
// keeps its extension.
func baseName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `\`, "/")
	s = path.Base(s)
	if s == "." || s == "/" {
		return ""
	}

	lower := strings.ToLower(s)
	for _, suffix := range compressionSuffixes {
		if strings.HasSuffix(lower, suffix) && len(s) > len(suffix) {
			return s[:len(s)-len(suffix)]
		}
	}

	return s
}

// SameDataFile reports whether an SDRF data file cell refers to target:
// verbatim, after NormalizeFileName on both sides, or with target naming the
// cell's file without its extension. The last form keeps stems that contain
// dots, such as "20190101_QE.HF_run1", intact.
func SameDataFile(cell, target string) bool {
	cell, target = strings.TrimSpace(cell), strings.TrimSpace(target)
	if cell == target {
		return true
	}

	n := NormalizeFileName(cell)
	if n == "" {
		return false
	}

	return n == NormalizeFileName(target) || n == baseName(target)
}

// SelectRows returns, in table order, the rows whose comment[data file] value
// refers to target.
func SelectRows(t *Table, target string) ([]Row, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("%w: no data file name was given", ErrNoMatchingRows)
	}

	idx := t.Indices(DataFileColumn)
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: no %q column", ErrMalformed, DataFileColumn)
	}

	out := make([]Row, 0)
	for _, row := range t.Rows {
		for _, i := range idx {
			if SameDataFile(row.Values[i], target) {
				out = append(out, row)
				break
			}
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingRows, target)
	}

	return out, nil
}
