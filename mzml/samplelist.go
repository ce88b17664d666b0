package mzml

import "encoding/xml"

// CVParam contains values and attributes of an mzML controlled vocabulary
// term
type CVParam struct {
	XMLName   xml.Name `xml:"cvParam"`
	CVRef     string   `xml:"cvRef,attr"`
	Accession string   `xml:"accession,attr"`
	Name      string   `xml:"name,attr"`
	Value     string   `xml:"value,attr"`
}

// UserParam is a free-text name/value pair
type UserParam struct {
	XMLName xml.Name `xml:"userParam"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
}

// Param is either a CVParam or a UserParam; exactly one is set.
type Param struct {
	CV   *CVParam
	User *UserParam
}

// NewCVParam is a convenience constructor for a CV-backed Param.
func NewCVParam(cvRef, accession, name, value string) Param {
	return Param{CV: &CVParam{CVRef: cvRef, Accession: accession, Name: name, Value: value}}
}

// NewUserParam is a convenience constructor for a free-text Param.
func NewUserParam(name, value string) Param {
	return Param{User: &UserParam{Name: name, Value: value}}
}

// Sample is one entry of the sampleList. Params keep their order on output.
type Sample struct {
	ID     string
	Name   string
	Params []Param
}

// MarshalXML writes the sample with cvParam and userParam children
// interleaved in Params order.
func (s Sample) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "sample"}
	start.Attr = []xml.Attr{
		{Name: xml.Name{Local: "id"}, Value: s.ID},
		{Name: xml.Name{Local: "name"}, Value: s.Name},
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for _, p := range s.Params {
		var err error
		switch {
		case p.CV != nil:
			err = e.Encode(p.CV)
		case p.User != nil:
			err = e.Encode(p.User)
		}
		if err != nil {
			return err
		}
	}

	return e.EncodeToken(start.End())
}

// SampleList is the sampleList element. Its count attribute is always the
// number of samples it holds.
type SampleList struct {
	samples []Sample
}

// NewSampleList copies samples into a SampleList.
func NewSampleList(samples []Sample) SampleList {
	l := SampleList{samples: make([]Sample, len(samples))}
	copy(l.samples, samples)
	return l
}

// Count is the value written to the count attribute.
func (l SampleList) Count() int {
	return len(l.samples)
}

// Samples returns a copy of the samples in output order.
func (l SampleList) Samples() []Sample {
	out := make([]Sample, len(l.samples))
	copy(out, l.samples)
	return out
}

type sampleListXML struct {
	XMLName xml.Name `xml:"sampleList"`
	Count   int      `xml:"count,attr"`
	Sample  []Sample `xml:"sample"`
}

func (l SampleList) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(sampleListXML{Count: len(l.samples), Sample: l.samples}, xml.StartElement{Name: xml.Name{Local: "sampleList"}})
}
