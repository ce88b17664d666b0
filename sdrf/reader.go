package sdrf

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ReadTable reads an SDRF file. comma is the cell delimiter; zero means tab.
// Every row whose cell count differs from the header is reported, not just
// the first one.
func ReadTable(r io.Reader, comma rune) (*Table, error) {
	if comma == 0 {
		comma = '\t'
	}

	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrMalformed)
	} else if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}

	// Spreadsheet exports sometimes start with a byte order mark
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &Table{
		Columns: make([]Column, 0, len(header)),
		Rows:    make([]Row, 0),
	}
	for i, h := range header {
		c := ParseColumn(h)
		c.Index = i
		t.Columns = append(t.Columns, c)
	}

	var errs *multierror.Error
	for {
		cols, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			errs = multierror.Append(errs, err)
			break
		}

		line, _ := cr.FieldPos(0)

		if len(cols) != len(header) {
			errs = multierror.Append(errs, &RowError{Line: line, Got: len(cols), Want: len(header)})
			continue
		}

		t.Rows = append(t.Rows, Row{Line: line, Values: cols})
	}

	if errs != nil {
		errs.ErrorFormat = listFormat
		return nil, fmt.Errorf("%w: %w", ErrMalformed, errs)
	}

	return t, nil
}

func listFormat(es []error) string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}

	return strings.Join(parts, "; ")
}
