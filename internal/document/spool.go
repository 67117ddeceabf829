package document

import (
	"fmt"
	"io"
	"os"
)

// SpoolFile is a locally owned seekable copy of a submitted payload. Close
// removes the backing temp file and is safe to call more than once.
type SpoolFile struct {
	file   *os.File
	path   string
	size   int64
	closed bool
}

func Spool(r io.Reader, dir string) (*SpoolFile, error) {
	f, err := os.CreateTemp(dir, "spool-*.doc")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to spool document: %w", err)
	}
	if size == 0 {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("document is empty")
	}

	return &SpoolFile{file: f, path: f.Name(), size: size}, nil
}

func (s *SpoolFile) ReaderAt() io.ReaderAt {
	return s.file
}

func (s *SpoolFile) Size() int64 {
	return s.size
}

func (s *SpoolFile) Path() string {
	return s.path
}

func (s *SpoolFile) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.file.Close()
	if rmErr := os.Remove(s.path); err == nil {
		err = rmErr
	}
	return err
}
