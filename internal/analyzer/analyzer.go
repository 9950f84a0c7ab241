// Package analyzer runs the full mule detection pipeline over one batch.
package analyzer

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mulegraph/internal/detect"
	"mulegraph/internal/features"
	"mulegraph/internal/graph"
	"mulegraph/internal/ingest"
	"mulegraph/internal/logger"
	"mulegraph/internal/metrics"
	"mulegraph/internal/report"
	"mulegraph/internal/rings"
	"mulegraph/internal/scoring"
	"mulegraph/pkg/models"
)

// Options tunes one analysis. Zero values take the defaults.
type Options struct {
	Weights          scoring.Weights
	FanSigma         float64
	FanMinCount      int
	PassThroughRatio float64
	VelocityUnit     time.Duration
	MaxRounds        int
	Workers          int

	// Metrics receives observations when set.
	Metrics *metrics.Metrics
	// Now is the clock used for the summary; defaults to time.Now.
	Now func() time.Time
}

func (o *Options) applyDefaults() {
	if o.Weights == (scoring.Weights{}) {
		o.Weights = scoring.DefaultWeights()
	}
	if o.FanSigma <= 0 {
		o.FanSigma = detect.DefaultFanSigma
	}
	if o.FanMinCount <= 0 {
		o.FanMinCount = detect.DefaultFanMinCount
	}
	if o.PassThroughRatio <= 0 {
		o.PassThroughRatio = detect.DefaultPassThroughRatio
	}
	if o.VelocityUnit <= 0 {
		o.VelocityUnit = features.DefaultVelocityUnit
	}
	if o.MaxRounds <= 0 || o.MaxRounds > scoring.MaxRounds {
		o.MaxRounds = scoring.MaxRounds
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Run is the arena of one analysis. Nothing in it is shared with other runs.
type Run struct {
	ID          string
	Graph       *graph.Graph
	Features    []features.Features
	SCCs        graph.SCCs
	Patterns    []models.PatternSet
	Profiles    []models.SuspicionProfile
	Propagation scoring.PropagationStats
	Rings       rings.Result
	Report      *models.Report
}

// Stats returns shape statistics of the run's graph.
func (r *Run) Stats() report.GraphStats {
	return report.Stats(r.Graph, r.SCCs)
}

// Visualization returns the rendering payload of the run.
func (r *Run) Visualization() report.VisualGraph {
	return report.Visualization(r.Graph, r.Profiles, r.Rings.RingOf)
}

// Analyze runs every stage on batch. It fails only on an invariant breach.
func Analyze(batch *ingest.Batch, opts Options) (*Run, error) {
	opts.applyDefaults()
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	started := opts.Now()
	stage := newStageClock(opts.Metrics)

	run := &Run{ID: RunID(batch)}
	opts.Metrics.ObserveIngest(batch.Len(), batch.Skipped())

	run.Graph = graph.Build(batch.All())
	opts.Metrics.ObserveGraph(run.Graph.NodeCount(), run.Graph.EdgeCount())
	stage.done("graph")

	run.Features = features.Extract(run.Graph, features.Options{
		VelocityUnit: opts.VelocityUnit,
		Workers:      opts.Workers,
	})
	stage.done("features")

	run.SCCs = run.Graph.StronglyConnected()
	run.Patterns = detect.RunAll(&detect.Input{
		Graph:    run.Graph,
		Features: run.Features,
		SCCs:     run.SCCs,
	},
		detect.CycleDetector{},
		detect.FanDetector{Sigma: opts.FanSigma, MinCount: opts.FanMinCount},
		detect.PassThroughDetector{MinRatio: opts.PassThroughRatio},
	)
	opts.Metrics.ObservePatterns(run.Patterns)
	stage.done("detect")

	run.Profiles = scoring.NewScorer(opts.Weights).Score(run.Patterns, run.Features)
	if err := scoring.CheckProfiles(run.Profiles); err != nil {
		return nil, fmt.Errorf("initial scoring: %w", err)
	}
	stage.done("score")

	run.Propagation = scoring.Propagate(run.Graph, run.Profiles, opts.MaxRounds)
	if err := scoring.CheckProfiles(run.Profiles); err != nil {
		return nil, fmt.Errorf("propagation: %w", err)
	}
	stage.done("propagate")

	run.Rings = rings.Build(run.Graph, run.Profiles)
	stage.done("rings")

	run.Report = report.Assemble(report.Input{
		RunID:        run.ID,
		Graph:        run.Graph,
		Profiles:     run.Profiles,
		Rings:        run.Rings,
		Transactions: batch.Len(),
		Skipped:      batch.Skipped(),
		Rounds:       run.Propagation.Rounds,
		Started:      started,
		Finished:     opts.Now(),
	})
	for _, a := range run.Report.SuspiciousAccounts {
		if !models.Flagged(a.SuspicionScore) || a.SuspicionScore > models.MaxScore {
			return nil, fmt.Errorf("%w: reported account %s with score %d", scoring.ErrInvariant, a.AccountID, a.SuspicionScore)
		}
	}
	opts.Metrics.ObserveReport(run.Report)
	stage.done("report")

	logger.Infof("analysis %s: nodes=%d edges=%d self_transfers=%d flagged=%d rings=%d rounds=%d converged=%t",
		run.ID, run.Graph.NodeCount(), run.Graph.EdgeCount(), run.Graph.SelfTransfers(),
		run.Report.Summary.FlaggedAccounts, run.Report.Summary.RingCount,
		run.Propagation.Rounds, run.Propagation.Converged)
	return run, nil
}

var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:mulegraph:run"))

// RunID derives a stable id from the batch content, so re-running identical
// input yields the same id.
func RunID(batch *ingest.Batch) string {
	h := sha256.New()
	for tx := range batch.All() {
		fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1f%d\n", tx.From, tx.To, tx.Amount.String(), tx.Timestamp.UnixNano())
	}
	fmt.Fprintf(h, "skipped=%d", batch.Skipped())
	return uuid.NewSHA1(runNamespace, h.Sum(nil)).String()
}

type stageClock struct {
	m    *metrics.Metrics
	last time.Time
}

func newStageClock(m *metrics.Metrics) *stageClock {
	return &stageClock{m: m, last: time.Now()}
}

func (s *stageClock) done(stage string) {
	now := time.Now()
	d := now.Sub(s.last)
	s.last = now
	s.m.ObserveStage(stage, d)
	logger.Debugf("stage %s took %s", stage, d)
}
