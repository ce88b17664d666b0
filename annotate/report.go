package annotate

import (
	"encoding/csv"
	"io"

	"github.com/carbocation/mzsdrf/mzml"
	"github.com/gocarina/gocsv"
)

// ReportRow is one param of one sample, flattened for a TSV report.
type ReportRow struct {
	Sample    string `csv:"sample"`
	Name      string `csv:"name"`
	Kind      string `csv:"kind"`
	CVRef     string `csv:"cv"`
	Accession string `csv:"accession"`
	Param     string `csv:"param"`
	Value     string `csv:"value"`
}

// ReportRows flattens samples in output order.
func ReportRows(samples []mzml.Sample) []*ReportRow {
	out := make([]*ReportRow, 0)

	for _, s := range samples {
		for _, p := range s.Params {
			row := &ReportRow{Sample: s.ID, Name: s.Name}
			switch {
			case p.CV != nil:
				row.Kind = "cv"
				row.CVRef = p.CV.CVRef
				row.Accession = p.CV.Accession
				row.Param = p.CV.Name
				row.Value = p.CV.Value
			case p.User != nil:
				row.Kind = "user"
				row.Param = p.User.Name
				row.Value = p.User.Value
			}
			out = append(out, row)
		}
	}

	return out
}

// WriteReport writes one tab-delimited line per param, with a header.
func WriteReport(w io.Writer, samples []mzml.Sample) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	return gocsv.MarshalCSV(ReportRows(samples), gocsv.NewSafeCSVWriter(cw))
}
