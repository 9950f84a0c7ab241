package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mulegraph/pkg/models"
)

func readCSV(t *testing.T, data string) []Row {
	t.Helper()
	rows, err := NewCSVSource(strings.NewReader(data)).ReadRows(context.Background())
	require.NoError(t, err)
	return rows
}

func TestIngestSkipsMalformedRowsWithoutAborting(t *testing.T) {
	rows := readCSV(t, `transaction_id,sender_id,receiver_id,amount,timestamp
T1,A,B,100,2026-01-02 10:00:00
T2,B,C,abc,2026-01-02 10:05:00
T3,C,,40,2026-01-02 10:06:00
T4,C,A,-5,2026-01-02 10:07:00
T5,C,A,80,not-a-time
T6,C,A,80.50,2026-01-02T10:09:00Z
`)
	batch, err := Ingest(rows, Options{Workers: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, 4, batch.Skipped())
	require.Len(t, batch.Warnings(), 4)
	assert.Equal(t, 3, batch.Warnings()[0].Line)
	assert.Contains(t, batch.Warnings()[0].Reason, "amount")
	assert.Contains(t, batch.Warnings()[1].Reason, "missing to_account")
	assert.Contains(t, batch.Warnings()[2].Reason, "negative")
	assert.Contains(t, batch.Warnings()[3].Reason, "timestamp")

	var got []models.Transaction
	for tx := range batch.All() {
		got = append(got, tx)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].From)
	assert.Equal(t, "80.5", got[1].Amount.String())
}

func TestBatchAllIsRestartable(t *testing.T) {
	rows := readCSV(t, "from,to,amount,ts\nA,B,1,1767261600\nB,C,2,1767261601\n")
	batch, err := Ingest(rows, Options{})
	require.NoError(t, err)

	count := func() int {
		n := 0
		for range batch.All() {
			n++
		}
		return n
	}
	assert.Equal(t, 2, count())
	assert.Equal(t, 2, count())

	for tx := range batch.All() {
		assert.Equal(t, "A", tx.From)
		break
	}
}

func TestIngestPreservesOrderAcrossWorkers(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("from_account,to_account,amount,timestamp\n")
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&sb, "acct-%d,acct-%d,%d,2026-03-01T00:00:00Z\n", i, i+1, i)
	}
	batch, err := Ingest(readCSV(t, sb.String()), Options{Workers: 8})
	require.NoError(t, err)
	require.Equal(t, 2000, batch.Len())

	i := 0
	for tx := range batch.All() {
		require.Equal(t, fmt.Sprintf("acct-%d", i), tx.From)
		i++
	}
}

func TestIngestZeroValidRowsIsFatal(t *testing.T) {
	rows := readCSV(t, "from,to,amount,timestamp\nA,B,x,2026-01-01\n")
	_, err := Ingest(rows, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTransactions))
}

func TestWarningsAreCappedButCountIsNot(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("from,to,amount,timestamp\nA,B,1,2026-01-01\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("A,B,bad,2026-01-01\n")
	}
	batch, err := Ingest(readCSV(t, sb.String()), Options{MaxWarnings: 5})
	require.NoError(t, err)
	assert.Equal(t, 20, batch.Skipped())
	assert.Len(t, batch.Warnings(), 5)
}

func TestCSVSourceRejectsNonTabularInput(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"missing columns": "name,city\nbob,paris\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCSVSource(strings.NewReader(data)).ReadRows(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotTabular))
		})
	}
}

func TestCSVSourceAcceptsAnyColumnOrder(t *testing.T) {
	rows := readCSV(t, "\ufeffTimestamp, Amount ,Receiver,Sender\n2026-01-01,10,B,A\n")
	require.Len(t, rows, 1)
	tx, err := ParseRow(rows[0])
	require.NoError(t, err)
	assert.Equal(t, "A", tx.From)
	assert.Equal(t, "B", tx.To)
}

func TestJSONLSource(t *testing.T) {
	data := `{"from_account":"A","to_account":"B","amount":12.5,"timestamp":"2026-01-01T00:00:00Z"}

not json
{"From":"B","To":"C","amount":"7","ts":1767225600}
`
	rows, err := NewJSONLSource(strings.NewReader(data)).ReadRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Error(t, rows[1].Err)
	assert.Equal(t, 3, rows[1].Line)

	batch, err := Ingest(rows, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, 1, batch.Skipped())
}

func TestJSONLSourceSkipsOversizedLine(t *testing.T) {
	long := `{"from":"A","to":"B","amount":"1","timestamp":"2026-01-01","memo":"` + strings.Repeat("x", 300) + `"}`
	data := `{"from":"A","to":"B","amount":"5","timestamp":"2026-01-01"}` + "\n" +
		long + "\n" +
		`{"from":"B","to":"C","amount":"4","timestamp":"2026-01-02"}`
	rows, err := NewJSONLSource(strings.NewReader(data)).WithMaxLine(128).ReadRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Error(t, rows[1].Err)
	assert.Contains(t, rows[1].Err.Error(), "exceeds 128 bytes")
	assert.Equal(t, 2, rows[1].Line)
	assert.NoError(t, rows[2].Err)
	assert.Equal(t, "C", rows[2].Fields["to"])

	batch, err := Ingest(rows, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, 1, batch.Skipped())
}

func TestJSONLSourceWithoutObjectsIsNotTabular(t *testing.T) {
	_, err := NewJSONLSource(strings.NewReader("1\n2\n")).ReadRows(context.Background())
	assert.True(t, errors.Is(err, ErrNotTabular))
}

func TestFileSourceDetectsFormat(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "tx.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("from,to,amount,timestamp\nA,B,1,2026-01-01\n"), 0644))
	jsonPath := filepath.Join(dir, "tx.data")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"from":"A","to":"B","amount":1,"timestamp":"2026-01-01"}`+"\n"), 0644))

	for _, p := range []string{csvPath, jsonPath} {
		rows, err := NewFileSource(p, FormatAuto).ReadRows(context.Background())
		require.NoError(t, err, p)
		require.Len(t, rows, 1, p)
		_, err = ParseRow(rows[0])
		require.NoError(t, err, p)
	}

	_, err := NewFileSource(filepath.Join(dir, "missing.csv"), "").ReadRows(context.Background())
	assert.Error(t, err)
}
