package ingest

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineBytes caps a single source line. Clickstream titles are short;
// 1 MiB guards against a corrupt extract without unbounded buffering.
const maxLineBytes = 1 << 20

// sourceReader yields a source file's lines in bounded-size chunks.
// Gzip-compressed extracts (.gz) are decompressed transparently.
type sourceReader struct {
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
}

// openSource opens a source file for chunked reading.
func openSource(path string) (*sourceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := &sourceReader{file: f}

	var raw io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip source: %w", err)
		}
		r.gz = gz
		raw = gz
	}

	r.scanner = bufio.NewScanner(raw)
	r.scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	return r, nil
}

// NextChunk reads up to maxRows lines. It returns io.EOF (with no lines)
// once the source is exhausted.
func (r *sourceReader) NextChunk(maxRows int) ([]string, error) {
	lines := make([]string, 0, maxRows)

	for len(lines) < maxRows && r.scanner.Scan() {
		lines = append(lines, r.scanner.Text())
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	if len(lines) == 0 {
		return nil, io.EOF
	}

	return lines, nil
}

// Close releases the underlying file handles.
func (r *sourceReader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.file.Close()
}
