package cvmap

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

//go:embed lookups/*
var embeddedRules embed.FS

// Match says how a rule pattern is compared against a column name.
type Match int

const (
	Exact Match = iota
	Prefix
)

func (m Match) String() string {
	if m == Prefix {
		return "prefix"
	}
	return "exact"
}

// Rule maps a column name pattern to a Strategy.
type Rule struct {
	Pattern  string
	Match    Match
	Strategy Strategy
}

func (r Rule) matches(name string) bool {
	if r.Match == Prefix {
		return strings.HasPrefix(name, r.Pattern)
	}
	return name == r.Pattern
}

// ruleRecord is one line of a rule table. Lines sharing a column and match are
// folded into a single Rule.
type ruleRecord struct {
	Column    string `csv:"column"`
	Match     string `csv:"match"`
	Strategy  string `csv:"strategy"`
	CV        string `csv:"cv"`
	Accession string `csv:"accession"`
	Name      string `csv:"name"`
	Value     string `csv:"value"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() ([]Rule, error) {
	fileBytes, err := embeddedRules.ReadFile("lookups/default.tsv")
	if err != nil {
		return nil, err
	}

	return LoadRules(bytes.NewReader(fileBytes))
}

// LoadRules reads a tab-delimited rule table with the header
//
//	column	match	strategy	cv	accession	name	value
//
// match is "exact" or "prefix"; strategy is "cv", "user" or "ignore". Lines
// with a value attach a term to that particular cell value. Lines starting
// with # are skipped.
func LoadRules(r io.Reader) ([]Rule, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.LazyQuotes = true

	records := []*ruleRecord{}
	if err := gocsv.UnmarshalCSV(cr, &records); err != nil {
		return nil, fmt.Errorf("rule table: %w", err)
	}

	rules := make([]Rule, 0, len(records))
	index := make(map[string]int)

	for i, rec := range records {
		pattern := strings.ToLower(strings.TrimSpace(rec.Column))
		if pattern == "" {
			return nil, fmt.Errorf("rule table entry %d: empty column", i+1)
		}

		var match Match
		switch strings.ToLower(strings.TrimSpace(rec.Match)) {
		case "", "exact":
			match = Exact
		case "prefix":
			match = Prefix
		default:
			return nil, fmt.Errorf("rule table entry %d: unknown match %q", i+1, rec.Match)
		}

		kind, ok := parseKind(rec.Strategy)
		if !ok {
			return nil, fmt.Errorf("rule table entry %d: unknown strategy %q", i+1, rec.Strategy)
		}

		key := match.String() + "\x00" + pattern
		pos, exists := index[key]
		if !exists {
			pos = len(rules)
			index[key] = pos
			rules = append(rules, Rule{Pattern: pattern, Match: match, Strategy: Strategy{Kind: kind}})
		}
		rule := &rules[pos]

		term := Term{
			CVRef:     strings.TrimSpace(rec.CV),
			Accession: strings.TrimSpace(rec.Accession),
			Name:      strings.TrimSpace(rec.Name),
		}
		if term.CVRef == "" {
			term.CVRef, _, _ = strings.Cut(term.Accession, ":")
		}

		if kind == CVParam && term.Accession == "" {
			return nil, fmt.Errorf("rule table entry %d: cv strategy for %q needs an accession", i+1, rec.Column)
		}

		if value := strings.ToLower(strings.TrimSpace(rec.Value)); value != "" {
			if kind != CVParam {
				return nil, fmt.Errorf("rule table entry %d: a value for %q needs the cv strategy", i+1, rec.Column)
			}
			if rule.Strategy.ValueTerms == nil {
				rule.Strategy.ValueTerms = make(map[string]Term)
			}
			rule.Strategy.ValueTerms[value] = term
			continue
		}

		rule.Strategy.Kind = kind
		rule.Strategy.Term = term
	}

	return rules, nil
}
