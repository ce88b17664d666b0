package sdrf

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed means the SDRF header or a row could not be read as a table
	ErrMalformed = errors.New("SDRF: malformed table")

	// ErrNoMatchingRows means no row references the requested data file
	ErrNoMatchingRows = errors.New("SDRF: no rows for data file")
)

// RowError reports a row whose cell count differs from the header.
type RowError struct {
	Line int
	Got  int
	Want int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d has %d columns, header has %d", e.Line, e.Got, e.Want)
}

func (e *RowError) Unwrap() error {
	return ErrMalformed
}
