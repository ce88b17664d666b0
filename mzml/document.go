package mzml

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

// Children of mzML that the schema places after sampleList. The first one
// found is where a new sampleList goes.
var followsSampleList = map[string]bool{
	"softwareList":                true,
	"scanSettingsList":            true,
	"instrumentConfigurationList": true,
	"dataProcessingList":          true,
	"run":                         true,
}

// tapReader hands bytes to the XML decoder one at a time and keeps a copy of
// everything read, so the scanned head of the document can be written back
// verbatim.
type tapReader struct {
	r   *bufio.Reader
	buf bytes.Buffer
}

func (t *tapReader) ReadByte() (byte, error) {
	b, err := t.r.ReadByte()
	if err == nil {
		t.buf.WriteByte(b)
	}
	return b, err
}

func (t *tapReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	t.buf.Write(p[:n])
	return n, err
}

// Document is an mzML stream that has been read up to the point where the
// sampleList belongs. Nothing after that point has been read yet; WriteTo
// streams it through.
type Document struct {
	head        []byte
	start, end  int
	existing    bool
	indexed     bool
	encoding    string
	sourceFiles []SourceFile
	cvs         []string
	replaced    []string
	rest        io.Reader
	written     bool

	// Offsets, then raw bytes, of the indexedmzML (if any) and mzML start tags
	roots     [][2]int64
	openRoots []byte
}

// Scan reads r until it finds the existing sampleList or the first element
// that must follow one, collecting the source files from fileDescription on
// the way. Both plain mzML and indexedmzML are accepted.
func Scan(r io.Reader) (*Document, error) {
	tap := &tapReader{r: bufio.NewReaderSize(r, 1<<16)}

	d := xml.NewDecoder(tap)
	d.CharsetReader = charset.NewReaderLabel

	doc := &Document{}
	encoding := ""
	depth, mzmlDepth := 0, 0
	seenFileDescription := false

	for {
		offset := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			if mzmlDepth == 0 {
				return nil, fmt.Errorf("%w: no mzML element", ErrMalformed)
			}
			return nil, fmt.Errorf("%w: document ends inside mzML", ErrSchemaPosition)
		} else if err != nil {
			if mzmlDepth > 0 && seenFileDescription && isTruncation(err) {
				return nil, fmt.Errorf("%w: document ends before any element that follows sampleList", ErrSchemaPosition)
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.ProcInst:
			if t.Target == "xml" {
				encoding = declaredEncoding(t.Inst)
			}

		case xml.StartElement:
			depth++

			if mzmlDepth == 0 {
				switch {
				case t.Name.Local == "mzML":
					mzmlDepth = depth
				case depth == 1 && t.Name.Local == "indexedmzML":
					doc.indexed = true
				default:
					return nil, fmt.Errorf("%w: unexpected element <%s> before mzML", ErrMalformed, t.Name.Local)
				}
				doc.roots = append(doc.roots, [2]int64{offset, d.InputOffset()})
				continue
			}

			name := t.Name.Local
			switch {
			case name == "fileDescription":
				var fd fileDescription
				if err := d.DecodeElement(&fd, &t); err != nil {
					return nil, fmt.Errorf("%w: fileDescription: %v", ErrMalformed, err)
				}
				doc.sourceFiles = fd.SourceFileList.SourceFile
				seenFileDescription = true

			case name == "cvList":
				var cl cvList
				if err := d.DecodeElement(&cl, &t); err != nil {
					return nil, fmt.Errorf("%w: cvList: %v", ErrMalformed, err)
				}
				for _, cv := range cl.CV {
					doc.cvs = append(doc.cvs, cv.ID)
				}

			case name == "sampleList":
				if !seenFileDescription {
					return nil, fmt.Errorf("%w: sampleList precedes fileDescription", ErrSchemaPosition)
				}
				var old sampleIDList
				if err := d.DecodeElement(&old, &t); err != nil {
					return nil, fmt.Errorf("%w: sampleList: %v", ErrMalformed, err)
				}
				for _, sample := range old.Sample {
					doc.replaced = append(doc.replaced, sample.ID)
				}
				doc.existing = true
				return doc.cut(tap, encoding, offset, d.InputOffset())

			case followsSampleList[name]:
				if !seenFileDescription {
					return nil, fmt.Errorf("%w: <%s> precedes fileDescription", ErrSchemaPosition, name)
				}
				return doc.cut(tap, encoding, offset, offset)

			default:
				if err := d.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
				}
			}
			depth--

		case xml.EndElement:
			depth--
			if mzmlDepth > 0 && depth < mzmlDepth {
				return nil, fmt.Errorf("%w: mzML closes before any element that follows sampleList", ErrSchemaPosition)
			}
		}
	}
}

func (doc *Document) cut(tap *tapReader, encoding string, start, end int64) (*Document, error) {
	doc.head = tap.buf.Bytes()
	doc.start, doc.end = int(start), int(end)

	if doc.end > len(doc.head) {
		return nil, fmt.Errorf("%w: splice point %d is past the %d bytes read", ErrMalformed, doc.end, len(doc.head))
	}

	// With a non-UTF-8 declaration the decoder's offsets count transcoded
	// bytes; they only line up with the raw input while the head is ASCII.
	if !isUTF8(encoding) {
		if !asciiCompatible(encoding) || !isASCII(doc.head[:doc.end]) {
			return nil, fmt.Errorf("%w: cannot splice a %s document whose header is not plain ASCII", ErrMalformed, encoding)
		}
	}
	doc.encoding = encoding

	for _, r := range doc.roots {
		doc.openRoots = append(doc.openRoots, doc.head[r[0]:r[1]]...)
	}

	doc.rest = io.MultiReader(bytes.NewReader(doc.head[doc.end:]), tap.r)

	return doc, nil
}

// SourceFiles returns the sourceFile entries of fileDescription.
func (doc *Document) SourceFiles() []SourceFile {
	out := make([]SourceFile, len(doc.sourceFiles))
	copy(out, doc.sourceFiles)
	return out
}

// HasSampleList reports whether the input already carried a sampleList,
// which WriteTo will replace.
func (doc *Document) HasSampleList() bool {
	return doc.existing
}

// Indexed reports whether the input is an indexedmzML wrapper.
func (doc *Document) Indexed() bool {
	return doc.indexed
}

// CVs returns the ids declared in cvList, in document order.
func (doc *Document) CVs() []string {
	return append([]string{}, doc.cvs...)
}

// ReplacedSampleIDs returns the ids of the samples in the sampleList that
// WriteTo will replace.
func (doc *Document) ReplacedSampleIDs() []string {
	return append([]string{}, doc.replaced...)
}

// WriteTo writes the document to w with list in place of the old sampleList,
// or inserted ahead of the first element that must follow it. Bytes outside
// the sampleList are copied unchanged, except that an indexedmzML index and
// checksum are updated to match. A Document can be written once.
func (doc *Document) WriteTo(w io.Writer, list SampleList) (int64, error) {
	if doc.written {
		return 0, errors.New("MzML: document was already written")
	}
	doc.written = true

	body, err := doc.render(list)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}

	var out io.Writer = cw
	h := sha1.New()
	if doc.indexed {
		out = io.MultiWriter(cw, h)
	}

	if _, err := out.Write(doc.head[:doc.start]); err != nil {
		return cw.n, err
	}
	if _, err := out.Write(body); err != nil {
		return cw.n, err
	}

	rest := doc.checkedRest()
	defer rest.Close()

	if !doc.indexed {
		_, err := io.Copy(out, rest)
		return cw.n, err
	}

	err = doc.writeIndexedTail(cw, out, h, rest, len(body)-(doc.end-doc.start))
	return cw.n, err
}

// checkedRest returns the unread part of the document. It is parsed as it
// streams, and a remainder that is not well-formed or does not close the root
// elements ends with an ErrMalformed read error instead of io.EOF.
func (doc *Document) checkedRest() io.ReadCloser {
	pr, pw := io.Pipe()

	go func() {
		pw.CloseWithError(doc.checkRest(io.TeeReader(doc.rest, pw)))
	}()

	return pr
}

func (doc *Document) checkRest(r io.Reader) error {
	if !isUTF8(doc.encoding) {
		var err error
		if r, err = charset.NewReaderLabel(doc.encoding, r); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	// The decoder resumes inside the root elements, so it is primed with
	// their start tags.
	d := xml.NewDecoder(io.MultiReader(bytes.NewReader(doc.openRoots), r))
	depth := 0
	childDepth := len(doc.roots) + 1

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%w: after the sampleList: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == childDepth && t.Name.Local == "sampleList" {
				return fmt.Errorf("%w: a second sampleList follows <run> or a list that must come after it", ErrSchemaPosition)
			}
		case xml.EndElement:
			depth--
		}
	}

	if depth != 0 {
		return fmt.Errorf("%w: document ends inside mzML", ErrMalformed)
	}

	return nil
}

// render marshals list with the indentation of the line it lands on.
func (doc *Document) render(list SampleList) ([]byte, error) {
	indent, indented := lineIndent(doc.head[:doc.start])

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if indented {
		unit := "  "
		if strings.Contains(indent, "\t") {
			unit = "\t"
		}
		enc.Indent(indent, unit)
	}

	if err := enc.Encode(list); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	// The existing line already carries the indent of the first line
	out := bytes.TrimPrefix(buf.Bytes(), []byte(indent))

	if !doc.existing && indented {
		out = append(out, '\n')
		out = append(out, indent...)
	}

	return out, nil
}

// lineIndent returns the whitespace between the last newline of b and its
// end. The boolean is false when that stretch holds anything else, i.e. the
// element does not start its own line.
func lineIndent(b []byte) (string, bool) {
	line := b[bytes.LastIndexByte(b, '\n')+1:]
	for _, c := range line {
		if c != ' ' && c != '\t' {
			return "", false
		}
	}

	return string(line), true
}

var encodingAttr = regexp.MustCompile(`encoding\s*=\s*["']([^"']+)["']`)

func declaredEncoding(inst []byte) string {
	m := encodingAttr.FindSubmatch(inst)
	if m == nil {
		return ""
	}
	return string(m[1])
}

func isUTF8(encoding string) bool {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8", "us-ascii", "ascii":
		return true
	}
	return false
}

func asciiCompatible(encoding string) bool {
	e := strings.ToLower(encoding)
	return !strings.HasPrefix(e, "utf-16") && !strings.HasPrefix(e, "utf-32") && !strings.HasPrefix(e, "ucs")
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

func isTruncation(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var syntaxErr *xml.SyntaxError
	return errors.As(err, &syntaxErr) && strings.Contains(syntaxErr.Msg, "unexpected EOF")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
