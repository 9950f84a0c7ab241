package report

import (
	"encoding/json"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mulegraph/internal/graph"
	"mulegraph/internal/rings"
	"mulegraph/pkg/models"
)

var t0 = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

func triangle() *graph.Graph {
	return graph.Build(slices.Values([]models.Transaction{
		{From: "A", To: "B", Amount: decimal.NewFromInt(100), Timestamp: t0},
		{From: "B", To: "C", Amount: decimal.NewFromInt(90), Timestamp: t0},
		{From: "C", To: "A", Amount: decimal.NewFromInt(80), Timestamp: t0},
		{From: "D", To: "E", Amount: decimal.NewFromInt(5), Timestamp: t0},
	}))
}

func profiles(g *graph.Graph, scores map[string]int) []models.SuspicionProfile {
	ps := make([]models.SuspicionProfile, g.NodeCount())
	for id, s := range scores {
		i, _ := g.Lookup(id)
		ps[i] = models.SuspicionProfile{
			Patterns:  models.NewPatternSet(models.PatternRingMember),
			Score:     s,
			IsFlagged: models.Flagged(s),
		}
	}
	return ps
}

func TestAssemble(t *testing.T) {
	g := triangle()
	ps := profiles(g, map[string]int{"A": 80, "B": 80, "C": 90, "D": 10})
	in := Input{
		RunID:        "run-1",
		Graph:        g,
		Profiles:     ps,
		Rings:        rings.Build(g, ps),
		Transactions: 4,
		Skipped:      2,
		Rounds:       1,
		Started:      t0,
		Finished:     t0.Add(1234567 * time.Microsecond),
	}
	r := Assemble(in)

	require.Len(t, r.SuspiciousAccounts, 3)
	var order []string
	for _, a := range r.SuspiciousAccounts {
		order = append(order, a.AccountID)
		assert.Equal(t, []string{"RING_MEMBER"}, a.DetectedPatterns)
		assert.Equal(t, 2, a.TransactionCount)
		assert.Equal(t, "RING_001", a.RingID)
	}
	assert.Equal(t, []string{"C", "A", "B"}, order)

	require.Len(t, r.FraudRings, 1)
	s := r.Summary
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 5, s.Nodes)
	assert.Equal(t, 4, s.Edges)
	assert.Equal(t, 2, s.SkippedRows)
	assert.Equal(t, 3, s.FlaggedAccounts)
	assert.Equal(t, 1, s.RingCount)
	assert.Equal(t, 1.235, s.ProcessingTime)
	assert.Equal(t, t0, s.Timestamp)
}

func TestAssembleJSONShape(t *testing.T) {
	g := triangle()
	r := Assemble(Input{Graph: g, Profiles: make([]models.SuspicionProfile, g.NodeCount()), Started: t0, Finished: t0})

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))

	assert.Equal(t, []any{}, generic["suspicious_accounts"])
	assert.Equal(t, []any{}, generic["fraud_rings"])
	summary := generic["summary"].(map[string]any)
	for _, key := range []string{"nodes", "edges", "skipped_rows", "processing_time", "timestamp"} {
		assert.Contains(t, summary, key)
	}
	assert.Equal(t, "2026-01-02T10:00:00Z", summary["timestamp"])
}

func TestRegistryRecords(t *testing.T) {
	g := triangle()
	ps := profiles(g, map[string]int{"A": 100, "B": 75})
	recs := RegistryRecords(Assemble(Input{Graph: g, Profiles: ps, Rings: rings.Build(g, ps)}))

	require.Len(t, recs, 2)
	assert.Equal(t, RegistryRecord{AccountID: "A", RiskScore: 100, TransactionCount: 2, FlaggedConnections: 0, IsFlagged: true}, recs[0])
	for _, r := range recs {
		assert.LessOrEqual(t, r.RiskScore, models.MaxScore)
	}
}

func TestVisualization(t *testing.T) {
	g := triangle()
	ps := profiles(g, map[string]int{"A": 80, "B": 80, "C": 80})
	res := rings.Build(g, ps)
	vg := Visualization(g, ps, res.RingOf)

	require.Len(t, vg.Nodes, 5)
	require.Len(t, vg.Links, 4)
	assert.Equal(t, VisualNode{ID: "A", RiskScore: 80, Flagged: true, RingID: "RING_001"}, vg.Nodes[0])
	assert.Equal(t, VisualNode{ID: "D"}, vg.Nodes[3])
	assert.Equal(t, "A", vg.Links[0].Source)
	assert.Equal(t, "B", vg.Links[0].Target)
	assert.Equal(t, "100", vg.Links[0].Weight.String())

	raw, err := json.Marshal(vg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"risk_score":80`)
}

func TestStats(t *testing.T) {
	g := triangle()
	st := Stats(g, g.StronglyConnected())

	assert.Equal(t, 5, st.Nodes)
	assert.Equal(t, 4, st.Edges)
	assert.Equal(t, 0.2, st.Density)
	assert.Equal(t, 1.6, st.AverageDegree)
	assert.True(t, st.IsDirected)
	assert.False(t, st.StronglyConnected)
	assert.Equal(t, 3, st.SCCCount)
	require.Len(t, st.TopConnected, 5)
	assert.Equal(t, ConnectedAccount{AccountID: "A", Connections: 2}, st.TopConnected[0])
	assert.Equal(t, "E", st.TopConnected[4].AccountID)
}

func TestStatsTopConnectedIsCapped(t *testing.T) {
	var txs []models.Transaction
	for i := 0; i < 15; i++ {
		txs = append(txs, models.Transaction{From: "HUB", To: fmt.Sprintf("N%02d", i), Amount: decimal.NewFromInt(1), Timestamp: t0})
	}
	g := graph.Build(slices.Values(txs))
	st := Stats(g, g.StronglyConnected())
	require.Len(t, st.TopConnected, TopConnectedLimit)
	assert.Equal(t, ConnectedAccount{AccountID: "HUB", Connections: 15}, st.TopConnected[0])
	assert.Equal(t, "N00", st.TopConnected[1].AccountID)
}

func TestStatsSingleCycleIsStronglyConnected(t *testing.T) {
	g := graph.Build(slices.Values([]models.Transaction{
		{From: "A", To: "B", Amount: decimal.NewFromInt(1), Timestamp: t0},
		{From: "B", To: "A", Amount: decimal.NewFromInt(1), Timestamp: t0},
	}))
	st := Stats(g, g.StronglyConnected())
	assert.True(t, st.StronglyConnected)
	assert.Equal(t, 1.0, st.Density)
}
