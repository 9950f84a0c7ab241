package reporthttp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mulegraph/internal/output/httppost"
	"mulegraph/pkg/models"
)

// Config configures the bulk-store writer.
type Config struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// Writer hands each report to the bulk-store collaborator as one JSON
// document. Retried runs carry the same run id header.
type Writer struct {
	url    string
	client *httppost.Client
}

// NewWriter creates a bulk-store writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http report URL is empty")
	}
	return &Writer{
		url:    cfg.URL,
		client: httppost.New(httppost.Options{Name: "http", Timeout: cfg.Timeout, Headers: cfg.Headers}),
	}, nil
}

// WriteReport posts r.
func (w *Writer) WriteReport(ctx context.Context, r *models.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return w.client.Post(ctx, w.url, "application/json", body, r.Summary.RunID)
}

// Close releases HTTP resources.
func (w *Writer) Close() error {
	return w.client.Close()
}
