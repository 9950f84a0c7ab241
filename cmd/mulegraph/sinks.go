package main

import (
	"fmt"

	"mulegraph/config"
	"mulegraph/internal/logger"
	"mulegraph/internal/output/reportclickhouse"
	"mulegraph/internal/output/reporthttp"
	"mulegraph/internal/output/reportjson"
	"mulegraph/internal/output/reportkafka"
	"mulegraph/internal/output/reportredis"
	"mulegraph/internal/pipeline"
)

// buildWriters creates every configured sink. On failure the sinks already
// created are closed.
func buildWriters(sinks []config.SinkConfig) (*pipeline.MultiWriter, error) {
	var named []pipeline.Named
	closeAll := func() {
		if err := pipeline.NewMultiWriter(named...).Close(); err != nil {
			logger.Warnf("Error closing report sinks: %v", err)
		}
	}
	for i, s := range sinks {
		w, err := buildWriter(s)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("sink %d (%s): %w", i, s.Mode, err)
		}
		named = append(named, pipeline.Named{Name: fmt.Sprintf("%s[%d]", s.Mode, i), ReportWriter: w})
	}
	return pipeline.NewMultiWriter(named...), nil
}

func buildWriter(s config.SinkConfig) (pipeline.ReportWriter, error) {
	switch s.Mode {
	case "file":
		logger.Infof("Output mode: file (%s)", s.File.Path)
		return reportjson.NewWriter(s.File.Path)
	case "http":
		logger.Infof("Output mode: http (%s)", s.HTTP.URL)
		return reporthttp.NewWriter(reporthttp.Config{
			URL:     s.HTTP.URL,
			Timeout: s.HTTP.Timeout,
			Headers: s.HTTP.Headers,
		})
	case "clickhouse":
		logger.Infof("Output mode: clickhouse (%s/%s.%s)", s.ClickHouse.URL, s.ClickHouse.Database, s.ClickHouse.Table)
		return reportclickhouse.NewWriter(reportclickhouse.Config{
			URL:      s.ClickHouse.URL,
			Database: s.ClickHouse.Database,
			Table:    s.ClickHouse.Table,
			Username: s.ClickHouse.Username,
			Password: s.ClickHouse.Password,
			Timeout:  s.ClickHouse.Timeout,
			Headers:  s.ClickHouse.Headers,
		})
	case "kafka":
		return reportkafka.NewWriter(reportkafka.Config{
			Brokers:         s.Kafka.Brokers,
			Topic:           s.Kafka.Topic,
			ClientID:        s.Kafka.ClientID,
			MaxMessageBytes: s.Kafka.MaxMessageBytes,
		})
	case "redis":
		logger.Infof("Output mode: redis (%s prefix=%s)", s.Redis.Addr, s.Redis.KeyPrefix)
		return reportredis.NewStore(reportredis.Config{
			Addr:       s.Redis.Addr,
			Password:   s.Redis.Password,
			DB:         s.Redis.DB,
			KeyPrefix:  s.Redis.KeyPrefix,
			MaxReports: s.Redis.MaxReports,
			TTL:        s.Redis.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown output mode: %s", s.Mode)
	}
}
