package features

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

var t0 = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

func tx(from, to string, amount int64, offset time.Duration) models.Transaction {
	return models.Transaction{From: from, To: to, Amount: decimal.NewFromInt(amount), Timestamp: t0.Add(offset)}
}

func TestExtract(t *testing.T) {
	g := graph.Build(slices.Values([]models.Transaction{
		tx("A", "B", 100, 0),
		tx("B", "C", 90, 30*time.Minute),
		tx("C", "D", 10, 0),
		tx("C", "D", 10, 4*time.Hour),
	}))
	f := Extract(g, Options{Workers: 2})
	require.Len(t, f, g.NodeCount())

	b, _ := g.Lookup("B")
	assert.True(t, f[b].NetFlow.Equal(decimal.NewFromInt(10)))
	assert.InDelta(t, 0.9, f[b].PassThroughRatio, 1e-12)
	assert.Equal(t, 1, f[b].FanIn)
	assert.Equal(t, 1, f[b].FanOut)
	// 2 transfers over a 30 minute span, floored to one hour.
	assert.InDelta(t, 2.0, f[b].Velocity, 1e-12)

	a, _ := g.Lookup("A")
	assert.Zero(t, f[a].PassThroughRatio)
	assert.True(t, f[a].NetFlow.Equal(decimal.NewFromInt(-100)))

	d, _ := g.Lookup("D")
	assert.InDelta(t, 0.5, f[d].Velocity, 1e-12)
}

func TestExtractIsRepeatable(t *testing.T) {
	var txs []models.Transaction
	for i := 0; i < 3000; i++ {
		txs = append(txs, tx(string(rune('A'+i%26)), string(rune('a'+i%7)), int64(i), time.Duration(i)*time.Minute))
	}
	g := graph.Build(slices.Values(txs))
	first := Extract(g, Options{Workers: 8})
	second := Extract(g, Options{Workers: 1})
	assert.Equal(t, first, second)
}

func TestVelocityUnit(t *testing.T) {
	g := graph.Build(slices.Values([]models.Transaction{
		tx("A", "B", 1, 0),
		tx("A", "B", 1, 48*time.Hour),
	}))
	a, _ := g.Lookup("A")
	perDay := Extract(g, Options{VelocityUnit: 24 * time.Hour})
	assert.InDelta(t, 1.0, perDay[a].Velocity, 1e-12)
}

func TestPassThroughRatio(t *testing.T) {
	cases := []struct {
		in, out int64
		want    float64
	}{
		{0, 0, 0},
		{10, 0, 0},
		{0, 10, 0},
		{50, 100, 0.5},
		{100, 50, 0.5},
		{80, 80, 1},
	}
	for _, c := range cases {
		got := PassThroughRatio(decimal.NewFromInt(c.in), decimal.NewFromInt(c.out))
		assert.InDelta(t, c.want, got, 1e-12, "in=%d out=%d", c.in, c.out)
	}
}
