package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mulegraph/internal/scoring"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mulegraph.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
mulegraph:
  input:
    mode: redis
    redis:
      addr: redis:6379
      key: aml:tx
      timeout: 2s
  analysis:
    weights:
      ring: 40
      fan: 25
      pass_through: 25
      velocity: 10
    velocity_unit: 24h
    max_rounds: 2
  output:
    sinks:
      - mode: file
      - mode: kafka
        kafka:
          brokers: k1:9092,k2:9092
      - mode: http
        http:
          url: http://bulk/findings
          headers:
            Authorization: Bearer x
    visualization_path: out/graph.json
  metrics:
    enabled: true
  logging:
    level: debug
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	m := cfg.MuleGraph
	assert.Equal(t, "redis", m.Input.Mode)
	assert.Equal(t, "aml:tx", m.Input.Redis.Key)
	assert.Equal(t, 2*time.Second, m.Input.Redis.Timeout)
	assert.Equal(t, 500, m.Input.Redis.PageSize)
	assert.Equal(t, scoring.Weights{Ring: 40, Fan: 25, PassThrough: 25, Velocity: 10}, m.Analysis.Weights)
	assert.Equal(t, 24*time.Hour, m.Analysis.VelocityUnit)
	assert.Equal(t, 2, m.Analysis.MaxRounds)
	assert.Equal(t, 0.9, m.Analysis.PassThroughRatio)

	require.Len(t, m.Output.Sinks, 3)
	assert.Equal(t, "output.json", m.Output.Sinks[0].File.Path)
	assert.Equal(t, "mulegraph.reports", m.Output.Sinks[1].Kafka.Topic)
	assert.Equal(t, "Bearer x", m.Output.Sinks[2].HTTP.Headers["Authorization"])
	assert.Equal(t, "out/graph.json", m.Output.VisualizationPath)
	assert.Equal(t, "mulegraph.prom", m.Metrics.Textfile)
	assert.Equal(t, "debug", m.Logging.Level)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	m := cfg.MuleGraph
	assert.Equal(t, "file", m.Input.Mode)
	assert.Equal(t, "auto", m.Input.File.Format)
	assert.Equal(t, scoring.DefaultWeights(), m.Analysis.Weights)
	assert.Equal(t, scoring.MaxRounds, m.Analysis.MaxRounds)
	assert.Equal(t, time.Hour, m.Analysis.VelocityUnit)
	require.Len(t, m.Output.Sinks, 1)
	assert.Equal(t, "file", m.Output.Sinks[0].Mode)
	assert.Equal(t, "info", m.Logging.Level)
	assert.False(t, m.Metrics.Enabled)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.MuleGraph.Input.Mode)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("mulegraph:\n  analysis:\n    flag_threshold: 50\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*MuleGraphConfig)
		want   string
	}{
		{"input mode", func(m *MuleGraphConfig) { m.Input.Mode = "kafka" }, "unknown input mode"},
		{"format", func(m *MuleGraphConfig) { m.Input.File.Format = "xlsx" }, "unknown input format"},
		{"negative weight", func(m *MuleGraphConfig) { m.Analysis.Weights.Velocity = -1 }, "velocity"},
		{"rounds high", func(m *MuleGraphConfig) { m.Analysis.MaxRounds = 4 }, "max_rounds"},
		{"rounds low", func(m *MuleGraphConfig) { m.Analysis.MaxRounds = -1 }, "max_rounds"},
		{"ratio", func(m *MuleGraphConfig) { m.Analysis.PassThroughRatio = 1.5 }, "pass_through_ratio"},
		{"sink mode", func(m *MuleGraphConfig) { m.Output.Sinks[0].Mode = "s3" }, "unknown mode"},
		{"http url", func(m *MuleGraphConfig) { m.Output.Sinks[0].Mode = "http" }, "http.url"},
		{"kafka brokers", func(m *MuleGraphConfig) { m.Output.Sinks[0].Mode = "kafka" }, "kafka.brokers"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			c.mutate(&cfg.MuleGraph)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
