package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisConfig configures a Redis list batch source.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	// MaxRows bounds one read; 0 means the whole list.
	MaxRows int
	// PageSize is the LRANGE page length per round trip.
	PageSize int
	Timeout  time.Duration
}

// RedisSource reads a Redis list whose elements are JSON transaction rows.
// Reading leaves the list untouched; Ack removes the elements of the last
// read once the batch has been handled, so a failed run can be retried.
type RedisSource struct {
	client   redis.Cmdable
	closer   func() error
	key      string
	maxRows  int
	pageSize int
	timeout  time.Duration
	// read is the element count of the last ReadRows.
	read int64
}

// NewRedisSource creates a source with its own client.
func NewRedisSource(cfg RedisConfig) (*RedisSource, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	src, err := NewRedisSourceFromClient(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	src.closer = client.Close
	return src, nil
}

// NewRedisSourceFromClient wraps an existing client; Close does not close it.
func NewRedisSourceFromClient(client redis.Cmdable, cfg RedisConfig) (*RedisSource, error) {
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &RedisSource{
		client:   client,
		key:      cfg.Key,
		maxRows:  cfg.MaxRows,
		pageSize: cfg.PageSize,
		timeout:  cfg.Timeout,
	}, nil
}

// ReadRows reads list elements from the head until the list is exhausted
// or MaxRows is reached. Nothing is removed; see Ack.
func (s *RedisSource) ReadRows(ctx context.Context) ([]Row, error) {
	s.read = 0
	rows := make([]Row, 0, s.pageSize)
	decoded := 0
	line := 0
	for s.maxRows <= 0 || line < s.maxRows {
		count := s.pageSize
		if s.maxRows > 0 && s.maxRows-line < count {
			count = s.maxRows - line
		}
		page, err := s.page(ctx, int64(line), count)
		if err != nil {
			return nil, err
		}
		for _, payload := range page {
			line++
			row := decodeObjectRow([]byte(payload), line)
			if row.Err == nil {
				decoded++
			}
			rows = append(rows, row)
		}
		if len(page) < count {
			break
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: redis list %s is empty", ErrNotTabular, s.key)
	}
	if decoded == 0 {
		return nil, fmt.Errorf("%w: no element of %s is a JSON object", ErrNotTabular, s.key)
	}
	s.read = int64(len(rows))
	return rows, nil
}

func (s *RedisSource) page(ctx context.Context, start int64, count int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.client.LRange(ctx, s.key, start, start+int64(count)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read redis list %s: %w", s.key, err)
	}
	return res, nil
}

// Ack drops the elements returned by the last successful ReadRows from the
// head of the list. Producers append at the tail, so newer elements stay.
func (s *RedisSource) Ack(ctx context.Context) error {
	if s.read == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.LTrim(ctx, s.key, s.read, -1).Err(); err != nil {
		return fmt.Errorf("ack redis list %s: %w", s.key, err)
	}
	s.read = 0
	return nil
}

// Close closes the client if the source created it.
func (s *RedisSource) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}
