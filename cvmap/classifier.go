package cvmap

import (
	"sort"
	"strings"
)

// Classifier resolves column names to encoding strategies. It is read-only
// after construction and safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// New builds a Classifier over rules. Exact rules are consulted before prefix
// rules and longer prefixes before shorter ones; among equally specific rules
// the earlier one wins, so callers put overrides ahead of defaults.
func New(rules []Rule) *Classifier {
	c := &Classifier{rules: make([]Rule, len(rules))}
	copy(c.rules, rules)

	for i := range c.rules {
		c.rules[i].Pattern = strings.ToLower(strings.TrimSpace(c.rules[i].Pattern))
	}

	sort.SliceStable(c.rules, func(i, j int) bool {
		a, b := c.rules[i], c.rules[j]
		if a.Match != b.Match {
			return a.Match == Exact
		}
		if a.Match == Prefix {
			return len(a.Pattern) > len(b.Pattern)
		}
		return false
	})

	return c
}

// NewDefault builds a Classifier from extra rules followed by the built-in
// table.
func NewDefault(extra ...Rule) (*Classifier, error) {
	defaults, err := DefaultRules()
	if err != nil {
		return nil, err
	}

	return New(append(append([]Rule{}, extra...), defaults...)), nil
}

// Classify returns the strategy of the first matching rule for a normalized
// column name. Names no rule covers are written as user params.
func (c *Classifier) Classify(name string) Strategy {
	name = strings.ToLower(strings.TrimSpace(name))

	for _, r := range c.rules {
		if r.matches(name) {
			return r.Strategy
		}
	}

	return Strategy{Kind: UserParam}
}

// Rules returns the rules in the order they are consulted.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}
