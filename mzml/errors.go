package mzml

import "errors"

var (
	// ErrMalformed means the input is not parseable XML or has no mzML element
	ErrMalformed = errors.New("MzML: malformed document")

	// ErrSchemaPosition means the document's element order leaves no valid
	// place for a sampleList
	ErrSchemaPosition = errors.New("MzML: no valid sampleList position")
)
