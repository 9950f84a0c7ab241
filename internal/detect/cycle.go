package detect

import "mulegraph/pkg/models"

// CycleDetector tags members of non-trivial strongly connected components.
type CycleDetector struct{}

// Name implements Detector.
func (CycleDetector) Name() string { return "cycle" }

// Detect tags RING_MEMBER. It computes the SCCs itself when in.SCCs does
// not cover the graph.
func (CycleDetector) Detect(in *Input) []models.PatternSet {
	n := in.Graph.NodeCount()
	sccs := in.SCCs
	if len(sccs.Component) != n {
		sccs = in.Graph.StronglyConnected()
	}
	out := make([]models.PatternSet, n)
	for _, members := range sccs.Members {
		if len(members) < 2 {
			continue
		}
		for _, v := range members {
			out[v] = out[v].With(models.PatternRingMember)
		}
	}
	return out
}
