package mzsdrf

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// StdStream is the path that means stdin for inputs and stdout for outputs.
const StdStream = "-"

// IsGoogleStorage reports whether path is a gs://bucket/object URL.
func IsGoogleStorage(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

func splitGoogleStoragePath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into bucket and object, but got %d parts: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// OpenInput opens path for reading, decompressing it if needed. path may be
// "-" for stdin, a gs:// URL (client must then be non-nil) or a local file.
func OpenInput(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	var raw io.ReadCloser

	switch {
	case path == StdStream:
		raw = io.NopCloser(os.Stdin)

	case IsGoogleStorage(path):
		if client == nil {
			return nil, pfx.Err(fmt.Errorf("%s: no google storage client", path))
		}
		bucket, object, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		raw, err = client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

	default:
		local, err := ExpandHome(path)
		if err != nil {
			return nil, err
		}
		raw, err = os.Open(local)
		if err != nil {
			return nil, pfx.Err(err)
		}
	}

	r, err := MaybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return &stackedReadCloser{ReadCloser: r, under: raw}, nil
}

// CreateOutput opens path for writing. path may be "-" for stdout, a gs://
// URL or a local file. Neither a google storage object nor a local file
// appears at path until Close succeeds; call Abort instead to discard what
// was written.
func CreateOutput(ctx context.Context, path string, client *storage.Client) (io.WriteCloser, error) {
	switch {
	case path == StdStream:
		return nopWriteCloser{os.Stdout}, nil

	case IsGoogleStorage(path):
		if client == nil {
			return nil, pfx.Err(fmt.Errorf("%s: no google storage client", path))
		}
		bucket, object, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, pfx.Err(err)
		}
		ctx, cancel := context.WithCancel(ctx)
		return &storageWriter{Writer: client.Bucket(bucket).Object(object).NewWriter(ctx), cancel: cancel}, nil
	}

	local, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	// The temp file sits next to the target so the rename cannot cross devices
	f, err := os.CreateTemp(filepath.Dir(local), "."+filepath.Base(local)+".*.tmp")
	if err != nil {
		return nil, pfx.Err(err)
	}
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, pfx.Err(err)
	}

	return &renameOnClose{File: f, target: local}, nil
}

// Abort discards an output from CreateOutput. Outputs that cannot be
// discarded, like stdout, are just closed.
func Abort(w io.WriteCloser) error {
	if a, ok := w.(interface{ Abort() error }); ok {
		return a.Abort()
	}

	return w.Close()
}

// renameOnClose writes to a temp file and moves it over target on Close.
type renameOnClose struct {
	*os.File
	target string
}

func (r *renameOnClose) Close() error {
	if err := r.File.Close(); err != nil {
		os.Remove(r.Name())
		return pfx.Err(err)
	}

	if err := os.Rename(r.Name(), r.target); err != nil {
		os.Remove(r.Name())
		return pfx.Err(err)
	}

	return nil
}

func (r *renameOnClose) Abort() error {
	r.File.Close()
	return os.Remove(r.Name())
}

// storageWriter only commits the object on Close. Cancelling its context
// before Close makes google storage drop the upload.
type storageWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (s *storageWriter) Close() error {
	defer s.cancel()
	return s.Writer.Close()
}

func (s *storageWriter) Abort() error {
	s.cancel()
	s.Writer.Close()
	return nil
}

// stackedReadCloser closes the decompressor and then the stream under it.
type stackedReadCloser struct {
	io.ReadCloser
	under io.Closer
}

func (s *stackedReadCloser) Close() error {
	err := s.ReadCloser.Close()
	if uerr := s.under.Close(); err == nil {
		err = uerr
	}

	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
