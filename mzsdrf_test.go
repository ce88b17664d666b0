package mzsdrf

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectDataType(t *testing.T) {
	for _, v := range []struct {
		head     []byte
		expected DataType
	}{
		{[]byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00}, DataTypeGzip},
		{[]byte("PK\x03\x04\x14\x00"), DataTypeZip},
		{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, DataTypeXZ},
		{[]byte{0x1f, 0x9d, 0x90}, DataTypeZ},
		{[]byte("BZh91AY"), DataTypeBZip2},
		{[]byte("<?xml "), DataTypeNoCompression},
		{[]byte("a"), DataTypeNoCompression},
		{nil, DataTypeNoCompression},
	} {
		if got := DetectDataType(v.head); got != v.expected {
			t.Errorf("%x: got %v, expected %v", v.head, got, v.expected)
		}
	}
}

func TestMaybeDecompress(t *testing.T) {
	const payload = "source name\tassay name\nS1\trun 1\n"

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	tests := map[string][]byte{
		"gzip":  gz.Bytes(),
		"plain": []byte(payload),
		"short": []byte("ab"),
		"empty": {},
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			r, err := MaybeDecompress(bytes.NewReader(input))
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}

			expected := string(input)
			if name == "gzip" {
				expected = payload
			}
			if string(got) != expected {
				t.Errorf("Got %q, expected %q", got, expected)
			}
		})
	}
}

func TestMaybeDecompressRejectsUnixCompress(t *testing.T) {
	if _, err := MaybeDecompress(bytes.NewReader([]byte{0x1f, 0x9d, 0x90, 0x00})); err == nil {
		t.Fatal("Expected an error for a .Z stream")
	}
}

func TestDetermineDelimiter(t *testing.T) {
	tab := "a\tb\tc\n1\t2\t3\n4\t5\t6\n"
	comma := "a,b,c\n1,2,3\n4,5,6\n"

	if got := DetermineDelimiter(strings.NewReader(tab), ',', '\t', ','); got != '\t' {
		t.Errorf("Tab-delimited: got %q", got)
	}
	if got := DetermineDelimiter(strings.NewReader(comma), '\t', '\t', ','); got != ',' {
		t.Errorf("Comma-delimited: got %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	p, err := ExpandHome("/data/run1.sdrf.tsv")
	if err != nil {
		t.Fatal(err)
	}
	if p != "/data/run1.sdrf.tsv" {
		t.Errorf("Absolute path changed to %s", p)
	}

	p, err = ExpandHome("~/run1.sdrf.tsv")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(p) || filepath.Base(p) != "run1.sdrf.tsv" {
		t.Errorf("Unexpected expansion %s", p)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.mzML.gz")

	w, err := CreateOutput(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(w)
	if _, err := zw.Write([]byte("<mzML/>")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := OpenInput(ctx, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if string(got) != "<mzML/>" {
		t.Errorf("Got %q back", got)
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func TestOutputAppearsOnlyOnClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.mzML")

	w, err := CreateOutput(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("<mzML>")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("%s exists before Close", path)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "<mzML>" {
		t.Errorf("Got %q", got)
	}
	if names := dirNames(t, dir); len(names) != 1 {
		t.Errorf("Expected only out.mzML, found %v", names)
	}
}

func TestAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.mzML")

	// A previous output must survive a failed run
	if err := os.WriteFile(path, []byte("previous"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := CreateOutput(context.Background(), path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("<mzML><run><spectr")); err != nil {
		t.Fatal(err)
	}
	if err := Abort(w); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "previous" {
		t.Errorf("Aborted output replaced the file: %q", got)
	}
	if names := dirNames(t, dir); len(names) != 1 {
		t.Errorf("Expected only out.mzML, found %v", names)
	}
}

func TestOpenInputErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := OpenInput(ctx, filepath.Join(t.TempDir(), "missing.tsv"), nil); err == nil {
		t.Error("Expected an error for a missing file")
	}
	if _, err := OpenInput(ctx, "gs://bucket/object", nil); err == nil {
		t.Error("Expected an error for google storage without a client")
	}
	if _, err := CreateOutput(ctx, "gs://bucket-only", nil); err == nil {
		t.Error("Expected an error for a bucket without an object")
	}
}

func TestSplitGoogleStoragePath(t *testing.T) {
	bucket, object, err := splitGoogleStoragePath("gs://my-bucket/dir/run1.mzML")
	if err != nil {
		t.Fatal(err)
	}
	if bucket != "my-bucket" || object != "dir/run1.mzML" {
		t.Errorf("Got bucket %q object %q", bucket, object)
	}

	if _, _, err := splitGoogleStoragePath("gs://my-bucket"); err == nil {
		t.Error("Expected an error without an object")
	}
}
