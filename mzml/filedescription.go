package mzml

// SourceFile is a sourceFile entry of fileDescription/sourceFileList
type SourceFile struct {
	ID       string `xml:"id,attr"`
	Name     string `xml:"name,attr"`
	Location string `xml:"location,attr"`
}

// Only the source files are needed; everything else in fileDescription is
// passed through untouched.
type fileDescription struct {
	SourceFileList struct {
		SourceFile []SourceFile `xml:"sourceFile"`
	} `xml:"sourceFileList"`
}

type cvList struct {
	CV []struct {
		ID string `xml:"id,attr"`
	} `xml:"cv"`
}

// Only the ids of a replaced sampleList are kept.
type sampleIDList struct {
	Sample []struct {
		ID string `xml:"id,attr"`
	} `xml:"sample"`
}
