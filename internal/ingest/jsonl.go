package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// MaxLineBytes is the default longest JSONL line kept. Longer lines are
// skipped with a warning.
const MaxLineBytes = 8 << 20

// JSONLSource reads one JSON object per line.
type JSONLSource struct {
	r       io.Reader
	maxLine int
}

// NewJSONLSource wraps r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	return &JSONLSource{r: r, maxLine: MaxLineBytes}
}

// WithMaxLine overrides MaxLineBytes.
func (s *JSONLSource) WithMaxLine(n int) *JSONLSource {
	if n > 0 {
		s.maxLine = n
	}
	return s
}

// ReadRows reads every non-blank line. If no line decodes as an object the
// input is not tabular.
func (s *JSONLSource) ReadRows(ctx context.Context) ([]Row, error) {
	br := bufio.NewReaderSize(s.r, 64*1024)
	rows := make([]Row, 0, 4096)
	decoded := 0
	var buf []byte
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, tooLong, err := readLine(br, s.maxLine, buf[:0])
		buf = raw
		if tooLong {
			rows = append(rows, Row{Line: line, Err: fmt.Errorf("line exceeds %d bytes", s.maxLine)})
		} else if raw = bytes.TrimSpace(raw); len(raw) > 0 {
			row := decodeObjectRow(raw, line)
			if row.Err == nil {
				decoded++
			}
			rows = append(rows, row)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read jsonl: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrNotTabular)
	}
	if decoded == 0 {
		return nil, fmt.Errorf("%w: no line is a JSON object", ErrNotTabular)
	}
	return rows, nil
}

// readLine appends the next line to dst. Once the line passes limit bytes
// the rest of it is discarded and tooLong is set.
func readLine(br *bufio.Reader, limit int, dst []byte) ([]byte, bool, error) {
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(dst)+len(bytes.TrimRight(chunk, "\r\n")) > limit {
				tooLong = true
				dst = dst[:0]
			} else {
				dst = append(dst, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return dst, tooLong, err
	}
}

func decodeObjectRow(raw []byte, line int) Row {
	var obj map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return Row{Line: line, Err: fmt.Errorf("decode json: %w", err)}
	}
	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		fields[k] = stringValue(v)
	}
	return Row{Line: line, Fields: normalizeFields(fields)}
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}
