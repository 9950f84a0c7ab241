package reportclickhouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"mulegraph/internal/output/httppost"
	"mulegraph/pkg/models"
)

// Config configures the ClickHouse HTTP writer.
type Config struct {
	URL      string
	Database string
	Table    string
	Username string
	Password string
	Timeout  time.Duration
	Headers  map[string]string
}

// Writer inserts suspicious accounts into ClickHouse via HTTP JSONEachRow.
type Writer struct {
	endpoint string
	client   *httppost.Client
}

// Row is one inserted record.
type Row struct {
	RunID              string   `json:"run_id"`
	AnalyzedAt         string   `json:"analyzed_at"`
	AccountID          string   `json:"account_id"`
	SuspicionScore     int      `json:"suspicion_score"`
	DetectedPatterns   []string `json:"detected_patterns"`
	TransactionCount   int      `json:"transaction_count"`
	FlaggedConnections int      `json:"flagged_connections"`
	RingID             string   `json:"ring_id"`
}

// NewWriter creates a ClickHouse HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("clickhouse URL is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Table == "" {
		cfg.Table = "mule_accounts"
	}
	q := fmt.Sprintf("INSERT INTO %s.%s FORMAT JSONEachRow", quoteIdent(cfg.Database), quoteIdent(cfg.Table))
	base := strings.TrimRight(cfg.URL, "/")
	endpoint := base + "/?query=" + url.QueryEscape(q)

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Username != "" {
		headers["X-ClickHouse-User"] = cfg.Username
	}
	if cfg.Password != "" {
		headers["X-ClickHouse-Key"] = cfg.Password
	}

	return &Writer{
		endpoint: endpoint,
		client:   httppost.New(httppost.Options{Name: "clickhouse", Timeout: cfg.Timeout, Headers: headers}),
	}, nil
}

// Rows flattens a report into insert rows.
func Rows(r *models.Report) []Row {
	at := r.Summary.Timestamp.UTC().Format("2006-01-02 15:04:05")
	out := make([]Row, 0, len(r.SuspiciousAccounts))
	for _, a := range r.SuspiciousAccounts {
		out = append(out, Row{
			RunID:              r.Summary.RunID,
			AnalyzedAt:         at,
			AccountID:          a.AccountID,
			SuspicionScore:     a.SuspicionScore,
			DetectedPatterns:   a.DetectedPatterns,
			TransactionCount:   a.TransactionCount,
			FlaggedConnections: a.FlaggedConnections,
			RingID:             a.RingID,
		})
	}
	return out
}

// WriteReport inserts one row per suspicious account.
func (w *Writer) WriteReport(ctx context.Context, r *models.Report) error {
	rows := Rows(r)
	if len(rows) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to marshal account row: %w", err)
		}
	}

	return w.client.Post(ctx, w.endpoint, "application/json", body.Bytes(), r.Summary.RunID)
}

// Close releases resources.
func (w *Writer) Close() error {
	return w.client.Close()
}

func quoteIdent(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "`", "")
	return "`" + v + "`"
}
