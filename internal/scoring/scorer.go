// Package scoring turns detected patterns into bounded suspicion scores and
// spreads risk to neighbouring accounts.
package scoring

import (
	"errors"
	"fmt"

	"mulegraph/internal/detect"
	"mulegraph/internal/features"
	"mulegraph/pkg/models"
)

// ErrInvariant marks a profile that breaks the score or flag rules. It is a
// programming defect, never a data problem.
var ErrInvariant = errors.New("scoring invariant violated")

// VelocityPercentile is the percentile an account's velocity must exceed to
// earn the velocity weight.
const VelocityPercentile = 95

// Weights are the points each signal contributes. All must be non-negative.
type Weights struct {
	Ring        int `yaml:"ring"`
	Fan         int `yaml:"fan"`
	PassThrough int `yaml:"pass_through"`
	Velocity    int `yaml:"velocity"`
}

// DefaultWeights lets a cycle alone reach the flag threshold, and any two of
// fan and pass-through together.
func DefaultWeights() Weights {
	return Weights{Ring: 70, Fan: 35, PassThrough: 35, Velocity: 10}
}

// Validate rejects negative weights.
func (w Weights) Validate() error {
	for name, v := range map[string]int{
		"ring": w.Ring, "fan": w.Fan, "pass_through": w.PassThrough, "velocity": w.Velocity,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %d", name, v)
		}
	}
	return nil
}

// Scorer computes initial suspicion profiles.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer. Zero weights fall back to the defaults.
func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Scorer{weights: w}
}

// Weights returns the active weights.
func (s *Scorer) Weights() Weights { return s.weights }

// Points scores one account.
func (s *Scorer) Points(set models.PatternSet, highVelocity bool) int {
	score := 0
	if set.Has(models.PatternRingMember) {
		score += s.weights.Ring
	}
	if set.Has(models.PatternFanIn) || set.Has(models.PatternFanOut) {
		score += s.weights.Fan
	}
	if set.Has(models.PatternPassThrough) {
		score += s.weights.PassThrough
	}
	if highVelocity {
		score += s.weights.Velocity
	}
	return min(models.MaxScore, score)
}

// Score builds one profile per account. patterns and feats are indexed by
// node.
func (s *Scorer) Score(patterns []models.PatternSet, feats []features.Features) []models.SuspicionProfile {
	velocities := make([]float64, len(feats))
	for i, f := range feats {
		velocities[i] = f.Velocity
	}
	cut := detect.Percentile(velocities, VelocityPercentile)

	out := make([]models.SuspicionProfile, len(patterns))
	for i, set := range patterns {
		score := s.Points(set, i < len(feats) && feats[i].Velocity > cut)
		out[i] = models.SuspicionProfile{
			Patterns:  set,
			Score:     score,
			IsFlagged: models.Flagged(score),
		}
	}
	return out
}

// CheckProfile verifies the score bound and the flag rule.
func CheckProfile(p models.SuspicionProfile) error {
	if p.Score < 0 || p.Score > models.MaxScore {
		return fmt.Errorf("%w: score %d outside [0,%d]", ErrInvariant, p.Score, models.MaxScore)
	}
	if p.IsFlagged != models.Flagged(p.Score) {
		return fmt.Errorf("%w: is_flagged=%t with score %d", ErrInvariant, p.IsFlagged, p.Score)
	}
	if p.FlaggedConnections < 0 {
		return fmt.Errorf("%w: flagged_connections %d", ErrInvariant, p.FlaggedConnections)
	}
	return nil
}

// CheckProfiles runs CheckProfile over every profile.
func CheckProfiles(ps []models.SuspicionProfile) error {
	for i, p := range ps {
		if err := CheckProfile(p); err != nil {
			return fmt.Errorf("profile %d: %w", i, err)
		}
	}
	return nil
}
