package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format names accepted by NewFileSource.
const (
	FormatAuto  = "auto"
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// FileSource reads a CSV or JSONL file.
type FileSource struct {
	path   string
	format string
}

// NewFileSource returns a source for path. format is csv, jsonl or auto.
func NewFileSource(path, format string) *FileSource {
	if format == "" {
		format = FormatAuto
	}
	return &FileSource{path: path, format: strings.ToLower(format)}
}

// ReadRows opens the file and delegates to the matching reader.
func (s *FileSource) ReadRows(ctx context.Context) ([]Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 64*1024)
	format := s.format
	if format == FormatAuto {
		format = detectFormat(s.path, br)
	}
	switch format {
	case FormatCSV:
		return NewCSVSource(br).ReadRows(ctx)
	case FormatJSONL:
		return NewJSONLSource(br).ReadRows(ctx)
	default:
		return nil, fmt.Errorf("unknown input format %q", s.format)
	}
}

func detectFormat(path string, br *bufio.Reader) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL
	}
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return FormatCSV
	}
	head = bytes.TrimLeft(head, " \t\r\n\ufeff")
	if len(head) > 0 && head[0] == '{' {
		return FormatJSONL
	}
	return FormatCSV
}
