// Package metrics exposes per-run analysis counters to Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mulegraph/pkg/models"
)

const namespace = "mulegraph"

// Metrics holds one run's collectors. A nil *Metrics discards observations.
type Metrics struct {
	ingestRows        *prometheus.CounterVec
	graphNodes        prometheus.Gauge
	graphEdges        prometheus.Gauge
	flaggedAccounts   prometheus.Gauge
	fraudRings        prometheus.Gauge
	patternAccounts   *prometheus.GaugeVec
	propagationRounds prometheus.Gauge
	stageDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ingestRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "ingest_rows_total", Help: "Input rows by ingestion result."},
			[]string{"result"},
		),
		graphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "graph", Name: "nodes", Help: "Accounts in the transaction graph."},
		),
		graphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Subsystem: "graph", Name: "edges", Help: "Aggregated edges in the transaction graph."},
		),
		flaggedAccounts: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "flagged_accounts", Help: "Accounts flagged after propagation."},
		),
		fraudRings: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "fraud_rings", Help: "Fraud rings found."},
		),
		patternAccounts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "pattern_accounts", Help: "Accounts carrying each detected pattern."},
			[]string{"pattern"},
		),
		propagationRounds: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "propagation_rounds", Help: "Contagion rounds executed."},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Wall time per pipeline stage.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"stage"},
		),
	}
	for _, c := range []prometheus.Collector{
		m.ingestRows, m.graphNodes, m.graphEdges, m.flaggedAccounts,
		m.fraudRings, m.patternAccounts, m.propagationRounds, m.stageDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveIngest records ingestion results.
func (m *Metrics) ObserveIngest(valid, skipped int) {
	if m == nil {
		return
	}
	m.ingestRows.WithLabelValues("valid").Add(float64(valid))
	m.ingestRows.WithLabelValues("skipped").Add(float64(skipped))
}

// ObserveGraph records graph size.
func (m *Metrics) ObserveGraph(nodes, edges int) {
	if m == nil {
		return
	}
	m.graphNodes.Set(float64(nodes))
	m.graphEdges.Set(float64(edges))
}

// ObservePatterns records how many accounts carry each tag.
func (m *Metrics) ObservePatterns(sets []models.PatternSet) {
	if m == nil {
		return
	}
	counts := make(map[models.PatternTag]int)
	for _, s := range sets {
		for _, tag := range s.Tags() {
			counts[tag]++
		}
	}
	for _, tag := range models.AllPatterns() {
		m.patternAccounts.WithLabelValues(tag.String()).Set(float64(counts[tag]))
	}
}

// ObserveReport records the final outcome.
func (m *Metrics) ObserveReport(r *models.Report) {
	if m == nil || r == nil {
		return
	}
	m.flaggedAccounts.Set(float64(r.Summary.FlaggedAccounts))
	m.fraudRings.Set(float64(r.Summary.RingCount))
	m.propagationRounds.Set(float64(r.Summary.PropagationRounds))
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes everything gathered by g in the node exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
