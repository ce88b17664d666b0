package cvmap

import "strings"

// Kind says how a column's values are written into an mzML sample.
type Kind int

const (
	// UserParam writes the raw column name and the cell value verbatim
	UserParam Kind = iota

	// CVParam writes a controlled vocabulary term with the cell as its value
	CVParam

	// Ignore drops the column
	Ignore
)

func (k Kind) String() string {
	switch k {
	case CVParam:
		return "cv"
	case Ignore:
		return "ignore"
	default:
		return "user"
	}
}

func parseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "userparam":
		return UserParam, true
	case "cv", "cvparam":
		return CVParam, true
	case "ignore":
		return Ignore, true
	}

	return UserParam, false
}

// Term is a controlled vocabulary entry.
type Term struct {
	CVRef     string
	Accession string
	Name      string
}

// Strategy is the encoding chosen for one column.
type Strategy struct {
	Kind Kind

	// Term is used for CVParam strategies, with the cell as value.
	Term Term

	// ValueTerms maps particular cell values (lower-cased) to their own terms,
	// which are then written with an empty value. TMT channel labels are the
	// typical case.
	ValueTerms map[string]Term
}

// TermFor resolves the term and value to write for one cell. The boolean is
// false when the cell should fall back to a user param.
func (s Strategy) TermFor(value string) (Term, string, bool) {
	if s.Kind != CVParam {
		return Term{}, "", false
	}

	if term, exists := s.ValueTerms[strings.ToLower(strings.TrimSpace(value))]; exists {
		return term, "", true
	}

	if s.Term.Accession == "" {
		return Term{}, "", false
	}

	return s.Term, value, true
}
