// Package detect tags accounts with laundering patterns.
package detect

import (
	"golang.org/x/sync/errgroup"

	"mulegraph/internal/features"
	"mulegraph/internal/graph"
	"mulegraph/pkg/models"
)

// Input is the shared read-only view every detector works on.
type Input struct {
	Graph    *graph.Graph
	Features []features.Features
	SCCs     graph.SCCs
}

// Detector assigns pattern tags per node index. Implementations must only
// read Input.
type Detector interface {
	Name() string
	Detect(in *Input) []models.PatternSet
}

// Defaults returns the standard detector set.
func Defaults() []Detector {
	return []Detector{
		CycleDetector{},
		FanDetector{Sigma: DefaultFanSigma, MinCount: DefaultFanMinCount},
		PassThroughDetector{MinRatio: DefaultPassThroughRatio},
	}
}

// RunAll runs detectors concurrently and unions their tags per node.
func RunAll(in *Input, detectors ...Detector) []models.PatternSet {
	results := make([][]models.PatternSet, len(detectors))
	var eg errgroup.Group
	for i, d := range detectors {
		eg.Go(func() error {
			results[i] = d.Detect(in)
			return nil
		})
	}
	_ = eg.Wait()

	out := make([]models.PatternSet, in.Graph.NodeCount())
	for _, r := range results {
		for v, set := range r {
			out[v] = out[v].Union(set)
		}
	}
	return out
}
