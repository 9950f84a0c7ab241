package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mulegraph/internal/scoring"
)

// Config is the root configuration.
type Config struct {
	MuleGraph MuleGraphConfig `yaml:"mulegraph"`
}

// MuleGraphConfig is the project configuration.
type MuleGraphConfig struct {
	Input    InputConfig    `yaml:"input"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Output   OutputConfig   `yaml:"output"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InputConfig selects where the batch is read from.
type InputConfig struct {
	Mode  string          `yaml:"mode"` // file|redis
	File  FileInputConfig `yaml:"file"`
	Redis RedisConfig     `yaml:"redis"`

	// Timeout bounds reading the whole batch.
	Timeout time.Duration `yaml:"timeout"`
}

// FileInputConfig controls file input.
type FileInputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"` // auto|csv|jsonl
}

// RedisConfig controls Redis list input.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	MaxRows  int           `yaml:"max_rows"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// IngestConfig controls row parsing.
type IngestConfig struct {
	Workers     int `yaml:"workers"`
	MaxWarnings int `yaml:"max_warnings"`
}

// AnalysisConfig tunes detection and scoring. The flag threshold is fixed.
type AnalysisConfig struct {
	// Weights replaces the default weights when any weight is set.
	Weights          scoring.Weights `yaml:"weights"`
	FanSigma         float64         `yaml:"fan_sigma"`
	FanMinCount      int             `yaml:"fan_min_count"`
	PassThroughRatio float64         `yaml:"pass_through_ratio"`
	VelocityUnit     time.Duration   `yaml:"velocity_unit"`
	MaxRounds        int             `yaml:"max_rounds"`
	Workers          int             `yaml:"workers"`
}

// OutputConfig controls report sinks and side files.
type OutputConfig struct {
	Sinks             []SinkConfig  `yaml:"sinks"`
	VisualizationPath string        `yaml:"visualization_path"`
	StatsPath         string        `yaml:"stats_path"`
	WarningsPath      string        `yaml:"warnings_path"`
	// Timeout bounds all sink writes together.
	Timeout           time.Duration `yaml:"timeout"`
}

// SinkConfig configures one report sink.
type SinkConfig struct {
	Mode       string                 `yaml:"mode"` // file|http|clickhouse|kafka|redis
	File       FileOutputConfig       `yaml:"file"`
	HTTP       HTTPOutputConfig       `yaml:"http"`
	ClickHouse ClickHouseOutputConfig `yaml:"clickhouse"`
	Kafka      KafkaOutputConfig      `yaml:"kafka"`
	Redis      RedisOutputConfig      `yaml:"redis"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// HTTPOutputConfig config for remote output.
type HTTPOutputConfig struct {
	URL     string            `yaml:"url"`
	Timeout time.Duration     `yaml:"timeout"`
	Headers map[string]string `yaml:"headers"`
}

// ClickHouseOutputConfig config for ClickHouse HTTP JSONEachRow writes.
type ClickHouseOutputConfig struct {
	URL      string            `yaml:"url"`
	Database string            `yaml:"database"`
	Table    string            `yaml:"table"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// KafkaOutputConfig config for the Kafka report topic.
type KafkaOutputConfig struct {
	Brokers         string `yaml:"brokers"`
	Topic           string `yaml:"topic"`
	ClientID        string `yaml:"client_id"`
	MaxMessageBytes int    `yaml:"max_message_bytes"`
}

// RedisOutputConfig config for the Redis staging store.
type RedisOutputConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	KeyPrefix  string        `yaml:"key_prefix"`
	MaxReports int64         `yaml:"max_reports"`
	TTL        time.Duration `yaml:"ttl"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	m := &c.MuleGraph
	if m.Input.Mode == "" {
		m.Input.Mode = "file"
	}
	if m.Input.File.Path == "" {
		m.Input.File.Path = "transactions.csv"
	}
	if m.Input.File.Format == "" {
		m.Input.File.Format = "auto"
	}
	if m.Input.Timeout <= 0 {
		m.Input.Timeout = time.Minute
	}
	if m.Input.Redis.Addr == "" {
		m.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if m.Input.Redis.Key == "" {
		m.Input.Redis.Key = "mulegraph:transactions"
	}
	if m.Input.Redis.PageSize <= 0 {
		m.Input.Redis.PageSize = 500
	}
	if m.Input.Redis.Timeout <= 0 {
		m.Input.Redis.Timeout = 5 * time.Second
	}

	if m.Ingest.MaxWarnings <= 0 {
		m.Ingest.MaxWarnings = 100
	}

	if m.Analysis.Weights == (scoring.Weights{}) {
		m.Analysis.Weights = scoring.DefaultWeights()
	}
	if m.Analysis.FanSigma == 0 {
		m.Analysis.FanSigma = 2
	}
	if m.Analysis.FanMinCount == 0 {
		m.Analysis.FanMinCount = 3
	}
	if m.Analysis.PassThroughRatio == 0 {
		m.Analysis.PassThroughRatio = 0.9
	}
	if m.Analysis.VelocityUnit == 0 {
		m.Analysis.VelocityUnit = time.Hour
	}
	if m.Analysis.MaxRounds == 0 {
		m.Analysis.MaxRounds = scoring.MaxRounds
	}

	if len(m.Output.Sinks) == 0 {
		m.Output.Sinks = []SinkConfig{{Mode: "file"}}
	}
	for i := range m.Output.Sinks {
		s := &m.Output.Sinks[i]
		if s.Mode == "" {
			s.Mode = "file"
		}
		if s.Mode == "file" && s.File.Path == "" {
			s.File.Path = "output.json"
		}
		if s.ClickHouse.Database == "" {
			s.ClickHouse.Database = "mulegraph"
		}
		if s.ClickHouse.Table == "" {
			s.ClickHouse.Table = "mule_accounts"
		}
		if s.Kafka.Topic == "" {
			s.Kafka.Topic = "mulegraph.reports"
		}
		if s.Redis.Addr == "" {
			s.Redis.Addr = "127.0.0.1:6379"
		}
		if s.Redis.KeyPrefix == "" {
			s.Redis.KeyPrefix = "mulegraph"
		}
	}
	if m.Output.Timeout <= 0 {
		m.Output.Timeout = 30 * time.Second
	}

	if m.Metrics.Enabled && m.Metrics.Textfile == "" {
		m.Metrics.Textfile = "mulegraph.prom"
	}

	if m.Logging.Level == "" {
		m.Logging.Level = "info"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	m := &c.MuleGraph
	switch m.Input.Mode {
	case "file":
		if m.Input.File.Path == "" {
			return errors.New("input.file.path is required")
		}
	case "redis":
		if m.Input.Redis.Key == "" {
			return errors.New("input.redis.key is required")
		}
	default:
		return fmt.Errorf("unknown input mode: %s", m.Input.Mode)
	}
	switch m.Input.File.Format {
	case "", "auto", "csv", "jsonl":
	default:
		return fmt.Errorf("unknown input format: %s", m.Input.File.Format)
	}

	if err := m.Analysis.Weights.Validate(); err != nil {
		return fmt.Errorf("analysis.weights: %w", err)
	}
	if m.Analysis.MaxRounds < 1 || m.Analysis.MaxRounds > scoring.MaxRounds {
		return fmt.Errorf("analysis.max_rounds must be between 1 and %d, got %d", scoring.MaxRounds, m.Analysis.MaxRounds)
	}
	if m.Analysis.FanSigma < 0 {
		return fmt.Errorf("analysis.fan_sigma must be non-negative, got %v", m.Analysis.FanSigma)
	}
	if m.Analysis.FanMinCount < 0 {
		return fmt.Errorf("analysis.fan_min_count must be non-negative, got %d", m.Analysis.FanMinCount)
	}
	if m.Analysis.PassThroughRatio < 0 || m.Analysis.PassThroughRatio > 1 {
		return fmt.Errorf("analysis.pass_through_ratio must be within [0,1], got %v", m.Analysis.PassThroughRatio)
	}
	if m.Analysis.VelocityUnit < 0 {
		return fmt.Errorf("analysis.velocity_unit must be positive, got %s", m.Analysis.VelocityUnit)
	}

	for i, s := range m.Output.Sinks {
		switch s.Mode {
		case "file":
		case "http":
			if s.HTTP.URL == "" {
				return fmt.Errorf("output.sinks[%d]: http.url is required", i)
			}
		case "clickhouse":
			if s.ClickHouse.URL == "" {
				return fmt.Errorf("output.sinks[%d]: clickhouse.url is required", i)
			}
		case "kafka":
			if s.Kafka.Brokers == "" {
				return fmt.Errorf("output.sinks[%d]: kafka.brokers is required", i)
			}
		case "redis":
		default:
			return fmt.Errorf("output.sinks[%d]: unknown mode: %s", i, s.Mode)
		}
	}
	return nil
}
