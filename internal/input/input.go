// Package input loads generator inputs from disk. Files may be gzip or
// zstd compressed; the format is detected from the leading magic bytes.
package input

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Separator splits the SMT2 header from the graph text in a combined input.
const Separator = "-------"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ResourceError reports a file that cannot be opened or read.
type ResourceError struct {
	Name string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("file %q does not exist or can not be read", e.Name)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Combined is a combined input file split into its two parts.
type Combined struct {
	Header string
	Graph  string
}

// ReadFile reads and decompresses the file at path.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ResourceError{Name: path, Err: err}
	}
	defer f.Close()

	data, err := ReadAll(f)
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return nil, &ResourceError{Name: path, Err: err}
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Open opens the file at path for streaming, decompressing if needed.
// The caller closes the returned reader.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ResourceError{Name: path, Err: err}
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &fileReader{Reader: r, file: f}, nil
}

type fileReader struct {
	io.Reader
	file *os.File
}

func (r *fileReader) Close() error {
	if c, ok := r.Reader.(io.Closer); ok {
		c.Close()
	}
	return r.file.Close()
}

// NewReader wraps r with a decompressor matching its magic bytes; plain
// text is returned unchanged.
func NewReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return zr, nil
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		return zr.IOReadCloser(), nil
	}
	return br, nil
}

// ReadAll reads r to the end, decompressing if needed.
func ReadAll(r io.Reader) ([]byte, error) {
	dr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	if c, ok := dr.(io.Closer); ok {
		defer c.Close()
	}
	return io.ReadAll(dr)
}

// Split separates a combined input on the last Separator. Text without a
// separator is all graph.
func Split(text string) Combined {
	i := strings.LastIndex(text, Separator)
	if i < 0 {
		return Combined{Graph: text}
	}
	return Combined{
		Header: text[:i],
		Graph:  text[i+len(Separator):],
	}
}

// ReadCombined reads and splits the combined input at path.
func ReadCombined(path string) (Combined, []byte, error) {
	data, err := ReadFile(path)
	if err != nil {
		return Combined{}, nil, err
	}
	return Split(string(data)), data, nil
}
