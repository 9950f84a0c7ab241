package detect

import "mulegraph/pkg/models"

// DefaultPassThroughRatio is the min(in, out)/max(in, out) at or above which
// an account forwards its inflow.
const DefaultPassThroughRatio = 0.9

// PassThroughDetector flags accounts that forward most of what they receive
// faster than the typical account.
type PassThroughDetector struct {
	MinRatio float64
}

// Name implements Detector.
func (PassThroughDetector) Name() string { return "pass_through" }

// Detect tags PASS_THROUGH for positive inflow, ratio at least MinRatio and
// velocity above the median.
func (d PassThroughDetector) Detect(in *Input) []models.PatternSet {
	velocities := make([]float64, len(in.Features))
	for i, f := range in.Features {
		velocities[i] = f.Velocity
	}
	median := Median(velocities)

	out := make([]models.PatternSet, len(in.Features))
	for i, f := range in.Features {
		if f.PassThroughRatio < d.MinRatio || f.Velocity <= median {
			continue
		}
		if !in.Graph.Node(i).InAmount.IsPositive() {
			continue
		}
		out[i] = out[i].With(models.PatternPassThrough)
	}
	return out
}
