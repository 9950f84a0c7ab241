package reportjson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mulegraph/internal/logger"
	"mulegraph/pkg/models"
)

// DefaultPath is where the report goes when no path is configured.
const DefaultPath = "output.json"

// Writer saves the report as an indented JSON document.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter creates a report file writer.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	logger.Infof("Report JSON writer initialized: %s", path)
	return &Writer{path: path}, nil
}

// Path returns the output path.
func (w *Writer) Path() string { return w.path }

// WriteReport replaces the file with r.
func (w *Writer) WriteReport(_ context.Context, r *models.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WriteFile(w.path, r)
}

// Close is a no-op; every write closes its file.
func (w *Writer) Close() error {
	return nil
}

// WriteFile writes v as indented JSON through a temp file and rename, so a
// reader never sees a partial document.
func WriteFile(path string, v any) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}
