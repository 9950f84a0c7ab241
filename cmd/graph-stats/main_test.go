package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mulegraph/internal/report"
)

func TestRunPrintsStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"from":"A","to":"B","amount":1,"timestamp":"2026-01-02T00:00:00Z"}`+"\n"+
			`{"from":"B","to":"A","amount":2,"timestamp":"2026-01-02T00:01:00Z"}`+"\n"), 0644))

	var out bytes.Buffer
	require.Equal(t, 0, run([]string{"-input", path}, &out))

	var st report.GraphStats
	require.NoError(t, json.Unmarshal(out.Bytes(), &st))
	assert.Equal(t, 2, st.Nodes)
	assert.Equal(t, 2, st.Edges)
	assert.True(t, st.StronglyConnected)
	assert.Equal(t, 1, st.SCCCount)
}

func TestRunMissingInput(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{"-input", filepath.Join(t.TempDir(), "nope.csv")}, &out))
}
