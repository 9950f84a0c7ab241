package reportkafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"mulegraph/internal/logger"
	"mulegraph/pkg/models"
)

// Config configures the Kafka writer.
type Config struct {
	// Brokers is a comma separated broker list.
	Brokers         string
	Topic           string
	ClientID        string
	MaxMessageBytes int
}

// Writer publishes each report as one message keyed by run id.
type Writer struct {
	topic string
	sp    sarama.SyncProducer
}

// NewWriter connects a synchronous producer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is empty")
	}
	brokers := splitCSV(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers")
	}

	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 10
	sc.Producer.Retry.Backoff = 200 * time.Millisecond
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Idempotent = true
	sc.Net.MaxOpenRequests = 1
	sc.Version = sarama.V2_1_0_0
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	if cfg.MaxMessageBytes > 0 {
		sc.Producer.MaxMessageBytes = cfg.MaxMessageBytes
	}

	sp, err := sarama.NewSyncProducer(brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	logger.Infof("Report Kafka writer initialized: brokers=%s topic=%s", strings.Join(brokers, ","), cfg.Topic)
	return NewWriterWithProducer(sp, cfg.Topic), nil
}

// NewWriterWithProducer wraps an existing producer. Close closes it.
func NewWriterWithProducer(sp sarama.SyncProducer, topic string) *Writer {
	return &Writer{topic: topic, sp: sp}
}

// WriteReport sends r and waits for the broker ack.
func (w *Writer) WriteReport(ctx context.Context, r *models.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: w.topic,
		Key:   sarama.StringEncoder(r.Summary.RunID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("content-type"), Value: []byte("application/json")},
		},
	}

	// SyncProducer takes no context; honour cancellation before sending.
	if err := ctx.Err(); err != nil {
		return err
	}
	partition, offset, err := w.sp.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("kafka send: %w", err)
	}
	logger.Debugf("report %s published to %s partition=%d offset=%d", r.Summary.RunID, w.topic, partition, offset)
	return nil
}

// Close closes the producer.
func (w *Writer) Close() error {
	if w.sp != nil {
		return w.sp.Close()
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, x := range parts {
		x = strings.TrimSpace(x)
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
