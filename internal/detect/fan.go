package detect

import "mulegraph/pkg/models"

const (
	// DefaultFanSigma is how many standard deviations above the mean a fan
	// count must be.
	DefaultFanSigma = 2.0
	// DefaultFanMinCount is the smallest fan count ever tagged.
	DefaultFanMinCount = 3
)

// FanDetector flags accounts whose fan-in or fan-out is a statistical outlier.
type FanDetector struct {
	Sigma    float64
	MinCount int
}

// Name implements Detector.
func (FanDetector) Name() string { return "fan" }

// Detect tags FAN_IN and FAN_OUT against the population mean and stddev.
func (d FanDetector) Detect(in *Input) []models.PatternSet {
	n := len(in.Features)
	fanIn := make([]float64, n)
	fanOut := make([]float64, n)
	for i, f := range in.Features {
		fanIn[i] = float64(f.FanIn)
		fanOut[i] = float64(f.FanOut)
	}
	inLimit := Mean(fanIn) + d.Sigma*StdDev(fanIn)
	outLimit := Mean(fanOut) + d.Sigma*StdDev(fanOut)

	out := make([]models.PatternSet, n)
	for i, f := range in.Features {
		if f.FanIn >= d.MinCount && fanIn[i] > inLimit {
			out[i] = out[i].With(models.PatternFanIn)
		}
		if f.FanOut >= d.MinCount && fanOut[i] > outLimit {
			out[i] = out[i].With(models.PatternFanOut)
		}
	}
	return out
}
