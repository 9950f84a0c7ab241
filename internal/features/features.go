// Package features derives per-account behaviour features from the graph.
package features

import (
	"runtime"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"mulegraph/internal/graph"
)

// DefaultVelocityUnit is the time unit velocity is expressed in.
const DefaultVelocityUnit = time.Hour

// Features is the behaviour summary of one account.
type Features struct {
	NetFlow          decimal.Decimal `json:"net_flow"`
	PassThroughRatio float64         `json:"pass_through_ratio"`
	FanIn            int             `json:"fan_in"`
	FanOut           int             `json:"fan_out"`
	// Velocity is transfers per VelocityUnit over the account's active span.
	Velocity float64 `json:"velocity"`
}

// Options tunes extraction.
type Options struct {
	VelocityUnit time.Duration
	Workers      int
}

const minChunk = 512

// Extract computes features for every node, indexed like g.Nodes().
func Extract(g *graph.Graph, opts Options) []Features {
	unit := opts.VelocityUnit
	if unit <= 0 {
		unit = DefaultVelocityUnit
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	nodes := g.Nodes()
	out := make([]Features, len(nodes))
	chunk := max(minChunk, (len(nodes)+workers-1)/max(workers, 1))

	var eg errgroup.Group
	eg.SetLimit(workers)
	for start := 0; start < len(nodes); start += chunk {
		end := min(start+chunk, len(nodes))
		eg.Go(func() error {
			for i := start; i < end; i++ {
				out[i] = Compute(&nodes[i], unit)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

// Compute derives the features of a single node.
func Compute(n *graph.Node, unit time.Duration) Features {
	return Features{
		NetFlow:          n.InAmount.Sub(n.OutAmount),
		PassThroughRatio: PassThroughRatio(n.InAmount, n.OutAmount),
		FanIn:            n.InCount,
		FanOut:           n.OutCount,
		Velocity:         velocity(n, unit),
	}
}

// PassThroughRatio is min(in, out)/max(in, out), or 0 unless both are positive.
func PassThroughRatio(in, out decimal.Decimal) float64 {
	if !in.IsPositive() || !out.IsPositive() {
		return 0
	}
	lo, hi := in, out
	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	r, _ := lo.Div(hi).Float64()
	return r
}

func velocity(n *graph.Node, unit time.Duration) float64 {
	span := max(n.LastSeen.Sub(n.FirstSeen), unit)
	return float64(n.TransactionCount()) / (float64(span) / float64(unit))
}
