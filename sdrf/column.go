package sdrf

import "strings"

// Kind is the class of an SDRF column, taken from its name prefix.
type Kind int

const (
	Innate Kind = iota
	Characteristic
	Comment
	Factor
)

func (k Kind) String() string {
	switch k {
	case Characteristic:
		return "characteristics"
	case Comment:
		return "comment"
	case Factor:
		return "factor value"
	default:
		return "innate"
	}
}

// Well-known column names, in normalized form.
const (
	DataFileColumn   = "comment[data file]"
	SourceNameColumn = "source name"
	AssayNameColumn  = "assay name"
	LabelColumn      = "comment[label]"
)

// Column describes one header cell of an SDRF table.
type Column struct {
	Raw       string // The header as written, trimmed
	Name      string // Normalized for matching, e.g. "characteristics[organism]"
	Kind      Kind
	Qualifier string // The bracketed part, e.g. "organism". Empty for innate columns.
	Index     int
}

var headerReplacer = strings.NewReplacer(
	" ]", "]",
	"[ ", "[",
)

// NormalizeName lower-cases a column name, trims it, and tidies the spacing
// around its bracketed qualifier so that "Characteristics[ Organism ]" and
// "characteristics[organism]" compare equal.
func NormalizeName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	for {
		tidied := headerReplacer.Replace(name)
		if tidied == name {
			break
		}
		name = tidied
	}

	if strings.HasPrefix(name, "characteristic[") {
		name = "characteristics[" + strings.TrimPrefix(name, "characteristic[")
	}

	return name
}

// ParseColumn classifies a raw header cell.
func ParseColumn(raw string) Column {
	c := Column{
		Raw:  strings.TrimSpace(raw),
		Name: NormalizeName(raw),
	}

	open := strings.Index(c.Name, "[")
	shut := strings.LastIndex(c.Name, "]")
	if open < 0 || shut < open {
		return c
	}

	switch strings.TrimSpace(c.Name[:open]) {
	case "characteristics":
		c.Kind = Characteristic
	case "comment":
		c.Kind = Comment
	case "factor value":
		c.Kind = Factor
	default:
		return c
	}
	c.Qualifier = strings.TrimSpace(c.Name[open+1 : shut])

	return c
}
