package rings

import (
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mulegraph/internal/graph"
	"mulegraph/pkg/models"
)

type flow struct {
	from, to string
	amount   int64
}

func build(flows ...flow) *graph.Graph {
	ts := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	txs := make([]models.Transaction, 0, len(flows))
	for _, f := range flows {
		txs = append(txs, models.Transaction{From: f.from, To: f.to, Amount: decimal.NewFromInt(f.amount), Timestamp: ts})
	}
	return graph.Build(slices.Values(txs))
}

func flag(g *graph.Graph, tags map[string][]models.PatternTag) []models.SuspicionProfile {
	ps := make([]models.SuspicionProfile, g.NodeCount())
	for id, ts := range tags {
		i, ok := g.Lookup(id)
		if !ok {
			panic(id)
		}
		ps[i] = models.SuspicionProfile{Patterns: models.NewPatternSet(ts...), Score: 80, IsFlagged: true}
	}
	return ps
}

func TestBuildTriangleIsOneRing(t *testing.T) {
	g := build(flow{"A", "B", 100}, flow{"B", "C", 90}, flow{"C", "A", 80}, flow{"D", "E", 5})
	ring := []models.PatternTag{models.PatternRingMember}
	res := Build(g, flag(g, map[string][]models.PatternTag{"A": ring, "B": ring, "C": ring}))

	require.Len(t, res.Rings, 1)
	r := res.Rings[0]
	assert.Equal(t, "RING_001", r.RingID)
	assert.Equal(t, []string{"A", "B", "C"}, r.Members)
	assert.Equal(t, "270", r.TotalAmount.String())
	assert.Equal(t, models.PatternRingMember, r.DominantPattern)

	d, _ := g.Lookup("D")
	assert.Empty(t, res.RingOf[d])
	a, _ := g.Lookup("A")
	assert.Equal(t, "RING_001", res.RingOf[a])
}

func TestBuildLinearChainWithGapHasNoRing(t *testing.T) {
	g := build(flow{"A", "B", 10}, flow{"B", "C", 10}, flow{"C", "D", 10})
	fan := []models.PatternTag{models.PatternFanOut}
	res := Build(g, flag(g, map[string][]models.PatternTag{"A": fan, "C": fan}))
	assert.Empty(t, res.Rings)
}

func TestBuildOrdersByTotalThenMember(t *testing.T) {
	g := build(
		flow{"Z1", "Z2", 50},
		flow{"M1", "M2", 500},
		flow{"B1", "B2", 50},
		flow{"B2", "B3", 0},
	)
	pt := []models.PatternTag{models.PatternPassThrough}
	res := Build(g, flag(g, map[string][]models.PatternTag{
		"Z1": pt, "Z2": pt, "M1": pt, "M2": pt, "B1": pt, "B2": pt, "B3": pt,
	}))

	require.Len(t, res.Rings, 3)
	assert.Equal(t, []string{"M1", "M2"}, res.Rings[0].Members)
	assert.Equal(t, []string{"B1", "B2", "B3"}, res.Rings[1].Members)
	assert.Equal(t, []string{"Z1", "Z2"}, res.Rings[2].Members)
	for i, r := range res.Rings {
		assert.Equal(t, []string{"RING_001", "RING_002", "RING_003"}[i], r.RingID)
	}
}

func TestBuildIgnoresEdgesToUnflagged(t *testing.T) {
	g := build(flow{"A", "B", 10}, flow{"B", "X", 1000}, flow{"X", "A", 1000})
	res := Build(g, flag(g, map[string][]models.PatternTag{"A": nil, "B": nil}))
	require.Len(t, res.Rings, 1)
	assert.Equal(t, "10", res.Rings[0].TotalAmount.String())
}

func TestDominantPatternTieBreak(t *testing.T) {
	g := build(flow{"A", "B", 1}, flow{"B", "C", 1}, flow{"C", "D", 1})
	res := Build(g, flag(g, map[string][]models.PatternTag{
		"A": {models.PatternPassThrough},
		"B": {models.PatternPassThrough, models.PatternFanOut},
		"C": {models.PatternFanOut, models.PatternFanIn},
		"D": {models.PatternFanIn},
	}))
	require.Len(t, res.Rings, 1)
	assert.Equal(t, models.PatternFanIn, res.Rings[0].DominantPattern)

	res = Build(g, flag(g, map[string][]models.PatternTag{"A": nil, "B": nil}))
	require.Len(t, res.Rings, 1)
	assert.Equal(t, models.PatternRingMember, res.Rings[0].DominantPattern)
}

func TestRingsPartitionFlaggedAccounts(t *testing.T) {
	g := build(
		flow{"A", "B", 1}, flow{"B", "C", 1}, flow{"D", "E", 1}, flow{"E", "F", 1}, flow{"G", "H", 1},
	)
	all := map[string][]models.PatternTag{}
	for _, id := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		all[id] = nil
	}
	ps := flag(g, all)
	res := Build(g, ps)

	seen := map[string]string{}
	for _, r := range res.Rings {
		assert.GreaterOrEqual(t, len(r.Members), MinMembers)
		for _, m := range r.Members {
			_, dup := seen[m]
			assert.False(t, dup, m)
			seen[m] = r.RingID
			i, _ := g.Lookup(m)
			assert.True(t, ps[i].IsFlagged)
		}
	}
	assert.Len(t, res.Rings, 2)
	assert.NotContains(t, seen, "G")
}
