package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"

	"mulegraph/config"
	"mulegraph/internal/analyzer"
	"mulegraph/internal/ingest"
	"mulegraph/internal/logger"
	"mulegraph/internal/metrics"
	"mulegraph/internal/output/reportjson"
)

const defaultConfigName = "mulegraph.yml"

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat(defaultConfigName); err == nil {
		return defaultConfigName
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, defaultConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return defaultConfigName
}

// loadConfig reads the config at path. A missing file yields the defaults.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: no config at %s, using defaults", path)
		cfg = &config.Config{}
	} else if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runAnalyze(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	configArg := fs.String("config", "", "Path to mulegraph.yml")
	input := fs.String("input", "", "Input file path (overrides input.file.path and forces file mode)")
	format := fs.String("format", "", "Input format: auto, csv or jsonl")
	outputPath := fs.String("output", "", "Report file path (overrides the first file sink)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *configArg == "" && fs.NArg() > 0 {
		*configArg = fs.Arg(0)
	}

	configPath := findConfigFile(*configArg)
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	m := &cfg.MuleGraph
	if *input != "" {
		m.Input.Mode = "file"
		m.Input.File.Path = *input
	}
	if *format != "" {
		m.Input.File.Format = *format
	}
	if *outputPath != "" {
		overrideFileSink(m, *outputPath)
	}

	if err := logger.Init(logger.Options{
		Enabled: m.Logging.Enabled,
		Level:   m.Logging.Level,
		File:    m.Logging.File,
		Console: m.Logging.Console,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Close()
	logger.Infof("MuleGraph starting")
	logger.Infof("Config loaded from: %s", configPath)

	src, closeSrc, err := openSource(m)
	if err != nil {
		logger.Errorf("Failed to open input: %v", err)
		fmt.Fprintf(os.Stderr, "failed to open input: %v\n", err)
		return 1
	}
	readCtx, cancelRead := context.WithTimeout(context.Background(), m.Input.Timeout)
	rows, err := src.ReadRows(readCtx)
	cancelRead()
	defer closeSrc()
	if err != nil {
		logger.Errorf("Failed to read input: %v", err)
		fmt.Fprintf(os.Stderr, "failed to read input: %v\n", err)
		return 1
	}

	batch, err := ingest.Ingest(rows, ingest.Options{Workers: m.Ingest.Workers, MaxWarnings: m.Ingest.MaxWarnings})
	if err != nil {
		logger.Errorf("Ingestion failed: %v", err)
		fmt.Fprintf(os.Stderr, "ingestion failed: %v\n", err)
		return 1
	}

	var reg *prometheus.Registry
	var mx *metrics.Metrics
	if m.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		if mx, err = metrics.New(reg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create metrics: %v\n", err)
			return 1
		}
	}

	run, err := analyzer.Analyze(batch, analyzer.Options{
		Weights:          m.Analysis.Weights,
		FanSigma:         m.Analysis.FanSigma,
		FanMinCount:      m.Analysis.FanMinCount,
		PassThroughRatio: m.Analysis.PassThroughRatio,
		VelocityUnit:     m.Analysis.VelocityUnit,
		MaxRounds:        m.Analysis.MaxRounds,
		Workers:          m.Analysis.Workers,
		Metrics:          mx,
	})
	if err != nil {
		logger.Errorf("Analysis failed: %v", err)
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		return 1
	}

	writers, err := buildWriters(m.Output.Sinks)
	if err != nil {
		logger.Errorf("Failed to create report sinks: %v", err)
		fmt.Fprintf(os.Stderr, "failed to create report sinks: %v\n", err)
		return 1
	}
	writeCtx, cancelWrite := context.WithTimeout(context.Background(), m.Output.Timeout)
	writeErr := writers.WriteReport(writeCtx, run.Report)
	cancelWrite()
	if err := writers.Close(); err != nil {
		logger.Warnf("Error closing report sinks: %v", err)
	}

	status := 0
	if writeErr != nil {
		logger.Errorf("Report delivery failed: %v", writeErr)
		fmt.Fprintf(os.Stderr, "report delivery failed: %v\n", writeErr)
		status = 1
	} else if acker, ok := src.(ingest.Acker); ok {
		ackCtx, cancelAck := context.WithTimeout(context.Background(), m.Input.Timeout)
		if err := acker.Ack(ackCtx); err != nil {
			logger.Errorf("Failed to acknowledge input: %v", err)
			fmt.Fprintf(os.Stderr, "failed to acknowledge input: %v\n", err)
			status = 1
		}
		cancelAck()
	}
	sideFiles := []struct {
		path  string
		value func() any
	}{
		{m.Output.VisualizationPath, func() any { return run.Visualization() }},
		{m.Output.StatsPath, func() any { return run.Stats() }},
		{m.Output.WarningsPath, func() any { return batch.Warnings() }},
	}
	for _, f := range sideFiles {
		if f.path == "" {
			continue
		}
		if err := reportjson.WriteFile(f.path, f.value()); err != nil {
			logger.Errorf("Failed to write %s: %v", f.path, err)
			status = 1
		}
	}
	if reg != nil {
		if err := metrics.WriteTextfile(m.Metrics.Textfile, reg); err != nil {
			logger.Errorf("%v", err)
			status = 1
		}
	}

	s := run.Report.Summary
	fmt.Fprintf(stdout, "analyzed run=%s transactions=%d skipped=%d nodes=%d edges=%d flagged=%d rings=%d sinks=%d\n",
		s.RunID, s.Transactions, s.SkippedRows, s.Nodes, s.Edges, s.FlaggedAccounts, s.RingCount, writers.Len())
	logger.Infof("MuleGraph finished")
	return status
}

func openSource(m *config.MuleGraphConfig) (ingest.RowSource, func(), error) {
	switch m.Input.Mode {
	case "file":
		logger.Infof("Input mode: file (%s, format=%s)", m.Input.File.Path, m.Input.File.Format)
		return ingest.NewFileSource(m.Input.File.Path, m.Input.File.Format), func() {}, nil
	case "redis":
		src, err := ingest.NewRedisSource(ingest.RedisConfig{
			Addr:     m.Input.Redis.Addr,
			Password: m.Input.Redis.Password,
			DB:       m.Input.Redis.DB,
			Key:      m.Input.Redis.Key,
			MaxRows:  m.Input.Redis.MaxRows,
			PageSize: m.Input.Redis.PageSize,
			Timeout:  m.Input.Redis.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Infof("Input mode: redis (%s key=%s)", m.Input.Redis.Addr, m.Input.Redis.Key)
		return src, func() {
			if err := src.Close(); err != nil {
				logger.Warnf("Error closing redis input: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown input mode: %s", m.Input.Mode)
	}
}

func overrideFileSink(m *config.MuleGraphConfig, path string) {
	for i := range m.Output.Sinks {
		if m.Output.Sinks[i].Mode == "file" {
			m.Output.Sinks[i].File.Path = path
			return
		}
	}
	m.Output.Sinks = append(m.Output.Sinks, config.SinkConfig{Mode: "file", File: config.FileOutputConfig{Path: path}})
}

func runConfig(args []string, stdout io.Writer) int {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}
	cfg, err := loadConfig(findConfigFile(configArg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode config: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "analyze":
			os.Exit(runAnalyze(os.Args[2:], os.Stdout))
		case "config":
			os.Exit(runConfig(os.Args[2:], os.Stdout))
		default:
			if !strings.HasPrefix(os.Args[1], "-") {
				// First arg is a config path.
				os.Exit(runAnalyze([]string{"-config", os.Args[1]}, os.Stdout))
			}
			os.Exit(runAnalyze(os.Args[1:], os.Stdout))
		}
	}
	os.Exit(runAnalyze(nil, os.Stdout))
}
