package mzsdrf

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the most likely rune delimiting the values in
// the reader, assuming a CSV-like file. Only runes in allowed are considered
// (any rune if allowed is empty); fallback is returned when none qualifies.
func DetermineDelimiter(r io.Reader, fallback rune, allowed ...rune) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	for _, candidate := range delimiters {
		if len(candidate) == 0 {
			continue
		}

		delim := rune(candidate[0])
		if len(allowed) == 0 {
			return delim
		}
		for _, a := range allowed {
			if a == delim {
				return delim
			}
		}
	}

	return fallback
}
