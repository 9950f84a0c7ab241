package ingest

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotTabular means the input could not be read as rows with the
	// required columns. Batch-fatal.
	ErrNotTabular = errors.New("input is not tabular transaction data")
	// ErrNoTransactions means every row was rejected. Batch-fatal.
	ErrNoTransactions = errors.New("no valid transactions in input")
)

// Row is one raw input record keyed by column name.
type Row struct {
	Line   int
	Fields map[string]string
	// Err is set by sources when the record itself was unreadable.
	Err error
}

// RowSource yields a whole batch of raw rows.
type RowSource interface {
	ReadRows(ctx context.Context) ([]Row, error)
}

// Acker is implemented by sources that consume their input. Ack is called
// once the batch read by ReadRows has been analyzed and delivered.
type Acker interface {
	Ack(ctx context.Context) error
}

// Column alias sets, matched case-insensitively after trimming.
var (
	fromColumns      = []string{"from_account", "from", "sender_id", "sender", "source", "src", "origin"}
	toColumns        = []string{"to_account", "to", "receiver_id", "receiver", "destination", "dest", "dst", "target"}
	amountColumns    = []string{"amount", "value", "amt"}
	timestampColumns = []string{"timestamp", "time", "ts", "date", "datetime", "created_at"}
)

func normalizeColumn(name string) string {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ReplaceAll(name, "-", "_")
}

// missingColumns returns required columns with no alias present in header.
func missingColumns(header []string) []string {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[normalizeColumn(h)] = struct{}{}
	}
	var missing []string
	for _, set := range []struct {
		name    string
		aliases []string
	}{
		{"from_account", fromColumns},
		{"to_account", toColumns},
		{"amount", amountColumns},
		{"timestamp", timestampColumns},
	} {
		found := false
		for _, a := range set.aliases {
			if _, ok := have[a]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, set.name)
		}
	}
	return missing
}

func firstField(row Row, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(row.Fields[name]); v != "" {
			return v
		}
	}
	return ""
}

func normalizeFields(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[normalizeColumn(k)] = v
	}
	return out
}
