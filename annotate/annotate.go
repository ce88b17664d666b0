// Package annotate joins an SDRF table to an mzML document: it picks the rows
// of the document's data file, groups them into samples and writes them as the
// document's sampleList.
package annotate

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/carbocation/mzsdrf/cvmap"
	"github.com/carbocation/mzsdrf/mzml"
	"github.com/carbocation/mzsdrf/sdrf"
)

// Annotator holds the SDRF table and the rules used to encode it. It does not
// change after construction, so one Annotator can serve many documents.
type Annotator struct {
	table      *sdrf.Table
	classifier *cvmap.Classifier
	policy     sdrf.GroupPolicy

	// AllowEmpty writes an empty sampleList instead of failing when the SDRF
	// has no rows for the data file.
	AllowEmpty bool
}

// New returns an Annotator over table.
func New(table *sdrf.Table, classifier *cvmap.Classifier, policy sdrf.GroupPolicy) *Annotator {
	return &Annotator{
		table:      table,
		classifier: classifier,
		policy:     policy,
	}
}

// Samples builds the samples for one data file, in first-appearance order.
func (a *Annotator) Samples(target string) ([]mzml.Sample, error) {
	rows, err := sdrf.SelectRows(a.table, target)
	if err != nil {
		if a.AllowEmpty && errors.Is(err, sdrf.ErrNoMatchingRows) {
			return []mzml.Sample{}, nil
		}
		return nil, err
	}

	groups := a.policy.Group(a.table, rows)

	out := make([]mzml.Sample, 0, len(groups))
	for i, g := range groups {
		out = append(out, EncodeSample(a.table, a.classifier, a.policy, i+1, g))
	}

	return out, nil
}

// Prepared is a scanned document with its sampleList ready. Nothing has been
// written yet, so a failure up to this point leaves the output untouched.
type Prepared struct {
	doc    *mzml.Document
	list   mzml.SampleList
	target string
}

// Prepare scans the mzML document in r and builds its samples. With an empty
// target the data file is taken from the first sourceFile of the document.
func (a *Annotator) Prepare(r io.Reader, target string) (*Prepared, error) {
	doc, err := mzml.Scan(r)
	if err != nil {
		return nil, err
	}

	if target == "" {
		files := doc.SourceFiles()
		if len(files) == 0 || files[0].Name == "" {
			return nil, fmt.Errorf("%w: no data file was given and fileDescription names no sourceFile", mzml.ErrMalformed)
		}
		target = files[0].Name
		log.Printf("Using data file %q from the document's fileDescription\n", target)
	}

	samples, err := a.Samples(target)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		doc:    doc,
		list:   mzml.NewSampleList(samples),
		target: target,
	}, nil
}

// Target is the data file the samples were selected for.
func (p *Prepared) Target() string {
	return p.target
}

// Samples returns the samples that will be written.
func (p *Prepared) Samples() []mzml.Sample {
	return p.list.Samples()
}

// Replaces reports whether the document already had a sampleList.
func (p *Prepared) Replaces() bool {
	return p.doc.HasSampleList()
}

// UndeclaredCVs returns the cvRefs used by the samples that the document's
// cvList does not declare, in first-appearance order. They are written as
// they are; the caller decides whether to warn.
func (p *Prepared) UndeclaredCVs() []string {
	declared := make(map[string]bool)
	for _, id := range p.doc.CVs() {
		declared[id] = true
	}

	var out []string
	for _, sample := range p.list.Samples() {
		for _, param := range sample.Params {
			if param.CV == nil || declared[param.CV.CVRef] {
				continue
			}
			declared[param.CV.CVRef] = true
			out = append(out, param.CV.CVRef)
		}
	}

	return out
}

// DroppedSampleIDs returns the ids of the replaced sampleList that the new
// one no longer has. A sampleRef elsewhere in the document that names one of
// them is left dangling.
func (p *Prepared) DroppedSampleIDs() []string {
	kept := make(map[string]bool)
	for _, sample := range p.list.Samples() {
		kept[sample.ID] = true
	}

	var out []string
	for _, id := range p.doc.ReplacedSampleIDs() {
		if !kept[id] {
			out = append(out, id)
		}
	}

	return out
}

// WriteTo writes the annotated document to w.
func (p *Prepared) WriteTo(w io.Writer) (int64, error) {
	return p.doc.WriteTo(w, p.list)
}

// ErrorKind names the class of a failure for diagnostics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, sdrf.ErrNoMatchingRows):
		return "NoMatchingRows"
	case errors.Is(err, sdrf.ErrMalformed):
		return "MalformedSdrf"
	case errors.Is(err, mzml.ErrSchemaPosition):
		return "SchemaPositionError"
	case errors.Is(err, mzml.ErrMalformed):
		return "MalformedMzml"
	}

	return "Error"
}
