package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVSource reads rows from a CSV stream with a header line.
type CSVSource struct {
	r io.Reader
}

// NewCSVSource wraps r.
func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{r: r}
}

// ReadRows reads the whole stream. Malformed records come back with Err set.
func (s *CSVSource) ReadRows(ctx context.Context) ([]Row, error) {
	cr := csv.NewReader(s.r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrNotTabular)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrNotTabular, err)
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrNotTabular, strings.Join(missing, ", "))
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = normalizeColumn(h)
	}

	rows := make([]Row, 0, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read csv: %w", err)
			}
			rows = append(rows, Row{Line: perr.StartLine, Err: perr.Err})
			continue
		}
		line, _ := cr.FieldPos(0)
		if isBlank(record) {
			continue
		}
		fields := make(map[string]string, len(cols))
		for i, v := range record {
			if i < len(cols) {
				fields[cols[i]] = v
			}
		}
		rows = append(rows, Row{Line: line, Fields: fields})
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
