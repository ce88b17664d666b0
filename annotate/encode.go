package annotate

import (
	"fmt"

	"github.com/carbocation/mzsdrf/cvmap"
	"github.com/carbocation/mzsdrf/mzml"
	"github.com/carbocation/mzsdrf/sdrf"
)

// SampleID is the id of the n-th sample, counting from 1.
func SampleID(n int) string {
	return fmt.Sprintf("sample_%d", n)
}

// EncodeSample turns the n-th group (1-based) into an mzML sample. Columns are
// visited in header order and each one yields a param for every row of the
// group, so repeated columns and multi-row groups keep all their values.
func EncodeSample(t *sdrf.Table, c *cvmap.Classifier, p sdrf.GroupPolicy, n int, g sdrf.Group) mzml.Sample {
	s := mzml.Sample{
		ID:     SampleID(n),
		Params: make([]mzml.Param, 0, len(t.Columns)*len(g.Rows)),
	}

	s.Name = s.ID
	if name, ok := p.Name(t, g); ok {
		s.Name = name
	}

	for _, col := range t.Columns {
		strategy := c.Classify(col.Name)
		if strategy.Kind == cvmap.Ignore {
			continue
		}

		for _, row := range g.Rows {
			if col.Index >= len(row.Values) {
				continue
			}
			s.Params = append(s.Params, encodeCell(col, strategy, row.Values[col.Index]))
		}
	}

	return s
}

func encodeCell(col sdrf.Column, strategy cvmap.Strategy, value string) mzml.Param {
	if term, v, ok := strategy.TermFor(value); ok {
		return mzml.NewCVParam(term.CVRef, term.Accession, term.Name, v)
	}

	return mzml.NewUserParam(col.Raw, value)
}
