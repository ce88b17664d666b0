package mzml

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"regexp"
	"strconv"
)

var (
	mzMLClose        = []byte("</mzML>")
	fileChecksumOpen = []byte("<fileChecksum>")
	fileChecksumShut = []byte("</fileChecksum>")

	indexOffset = regexp.MustCompile(`(<(?:offset|indexListOffset)\b[^>]*>)\s*(\d+)\s*(</(?:offset|indexListOffset)>)`)
)

// writeIndexedTail streams the rest of the mzML element from r, then rewrites the
// indexedmzML index so its byte offsets account for the sampleList having
// changed size by delta. The fileChecksum is the SHA-1 of every byte up to and
// including <fileChecksum>, so hashed must have seen all output so far.
func (doc *Document) writeIndexedTail(raw, hashed io.Writer, h hash.Hash, r io.Reader, delta int) error {
	leftover, err := copyThrough(hashed, r, mzMLClose)
	if err != nil {
		return err
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	tail, err := shiftOffsets(append(leftover, rest...), doc.start, delta)
	if err != nil {
		return err
	}

	i := bytes.Index(tail, fileChecksumOpen)
	if i < 0 {
		_, err := hashed.Write(tail)
		return err
	}

	j := i + len(fileChecksumOpen)
	k := bytes.Index(tail[j:], fileChecksumShut)
	if k < 0 {
		return fmt.Errorf("%w: unterminated fileChecksum", ErrMalformed)
	}

	if _, err := hashed.Write(tail[:j]); err != nil {
		return err
	}
	if _, err := raw.Write(hexDigest(h)); err != nil {
		return err
	}
	_, err = raw.Write(tail[j+k:])
	return err
}

// copyThrough copies r to w up to and including the first occurrence of
// marker, and returns whatever it read past the marker.
func copyThrough(w io.Writer, r io.Reader, marker []byte) ([]byte, error) {
	chunk := make([]byte, 64<<10)
	buf := make([]byte, 0, len(chunk)+len(marker))
	keep := len(marker) - 1

	for {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)

		if i := bytes.Index(buf, marker); i >= 0 {
			cut := i + len(marker)
			if _, err := w.Write(buf[:cut]); err != nil {
				return nil, err
			}
			return append([]byte{}, buf[cut:]...), nil
		}

		if len(buf) > keep {
			if _, err := w.Write(buf[:len(buf)-keep]); err != nil {
				return nil, err
			}
			buf = append(buf[:0], buf[len(buf)-keep:]...)
		}

		if err == io.EOF {
			return nil, fmt.Errorf("%w: no closing %s", ErrMalformed, mzMLClose)
		} else if err != nil {
			return nil, err
		}
	}
}

// shiftOffsets adds delta to every index offset at or beyond from.
func shiftOffsets(tail []byte, from, delta int) ([]byte, error) {
	var convErr error

	out := indexOffset.ReplaceAllFunc(tail, func(m []byte) []byte {
		parts := indexOffset.FindSubmatch(m)
		v, err := strconv.ParseInt(string(parts[2]), 10, 64)
		if err != nil {
			convErr = err
			return m
		}
		if v >= int64(from) {
			v += int64(delta)
		}

		res := make([]byte, 0, len(m)+4)
		res = append(res, parts[1]...)
		res = strconv.AppendInt(res, v, 10)
		return append(res, parts[3]...)
	})

	if convErr != nil {
		return nil, fmt.Errorf("%w: index offset: %v", ErrMalformed, convErr)
	}

	return out, nil
}

func hexDigest(h hash.Hash) []byte {
	sum := h.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
