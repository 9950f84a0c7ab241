package pipeline

import (
	"context"
	"errors"
	"fmt"

	"mulegraph/pkg/models"
)

// ReportWriter hands a finished report to one collaborator.
type ReportWriter interface {
	WriteReport(ctx context.Context, r *models.Report) error
	Close() error
}

// Named labels a writer in errors and logs.
type Named struct {
	Name string
	ReportWriter
}

// MultiWriter fans a report out to every writer. One failing sink does not
// stop the others.
type MultiWriter struct {
	writers []Named
}

// NewMultiWriter builds a fan-out writer.
func NewMultiWriter(writers ...Named) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Len returns the number of sinks.
func (m *MultiWriter) Len() int { return len(m.writers) }

// WriteReport writes to all sinks and joins their errors.
func (m *MultiWriter) WriteReport(ctx context.Context, r *models.Report) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.WriteReport(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", w.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", w.Name, err))
		}
	}
	return errors.Join(errs...)
}
