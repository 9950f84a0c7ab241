package reportredis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"mulegraph/pkg/models"
)

// Config configures the Redis staging store.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// MaxReports bounds the report history list.
	MaxReports int64
	// TTL expires per-account and per-ring hashes; 0 keeps them.
	TTL time.Duration
}

// Store stages findings in Redis for the registry collaborator:
//
//	<prefix>:account:<id>  hash per account flagged in the latest run
//	<prefix>:scores        sorted set of those account ids by suspicion score
//	<prefix>:ring:<id>     hash per fraud ring of the latest run
//	<prefix>:rings         set of the latest run's ring ids
//	<prefix>:reports       list of full report documents, newest first
//
// Each write replaces the previous run's account and ring keys; only the
// report list keeps history.
type Store struct {
	client     redis.Cmdable
	closer     func() error
	prefix     string
	maxReports int64
	ttl        time.Duration
}

// NewStore connects to Redis and verifies the connection.
func NewStore(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis report store: %w", err)
	}

	s := NewStoreFromClient(client, cfg)
	s.closer = client.Close
	return s, nil
}

// NewStoreFromClient wraps an existing client; Close does not close it.
func NewStoreFromClient(client redis.Cmdable, cfg Config) *Store {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "mulegraph"
	}
	maxReports := cfg.MaxReports
	if maxReports <= 0 {
		maxReports = 20
	}
	return &Store{client: client, prefix: prefix, maxReports: maxReports, ttl: cfg.TTL}
}

// WriteReport replaces the staged findings with r in one MULTI/EXEC.
func (s *Store) WriteReport(ctx context.Context, r *models.Report) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	stale, err := s.staleKeys(ctx)
	if err != nil {
		return err
	}
	runID := r.Summary.RunID
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, append(stale, s.ScoresKey(), s.RingsKey())...)

	for _, a := range r.SuspiciousAccounts {
		key := s.AccountKey(a.AccountID)
		pipe.HSet(ctx, key,
			"account_id", a.AccountID,
			"risk_score", strconv.Itoa(a.SuspicionScore),
			"detected_patterns", strings.Join(a.DetectedPatterns, ","),
			"transaction_count", strconv.Itoa(a.TransactionCount),
			"flagged_connections", strconv.Itoa(a.FlaggedConnections),
			"ring_id", a.RingID,
			"run_id", runID,
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		pipe.ZAdd(ctx, s.ScoresKey(), redis.Z{Score: float64(a.SuspicionScore), Member: a.AccountID})
	}

	for _, ring := range r.FraudRings {
		key := s.RingKey(ring.RingID)
		pipe.HSet(ctx, key,
			"ring_id", ring.RingID,
			"members", strings.Join(ring.Members, ","),
			"total_amount", ring.TotalAmount.String(),
			"dominant_pattern", ring.DominantPattern.String(),
			"run_id", runID,
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		pipe.SAdd(ctx, s.RingsKey(), ring.RingID)
	}

	pipe.LPush(ctx, s.ReportsKey(), doc)
	pipe.LTrim(ctx, s.ReportsKey(), 0, s.maxReports-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stage report in redis: %w", err)
	}
	return nil
}

// staleKeys lists the account and ring hashes written by the previous run.
func (s *Store) staleKeys(ctx context.Context) ([]string, error) {
	accounts, err := s.client.ZRange(ctx, s.ScoresKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read staged accounts: %w", err)
	}
	rings, err := s.client.SMembers(ctx, s.RingsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("read staged rings: %w", err)
	}
	keys := make([]string, 0, len(accounts)+len(rings))
	for _, id := range accounts {
		keys = append(keys, s.AccountKey(id))
	}
	for _, id := range rings {
		keys = append(keys, s.RingKey(id))
	}
	return keys, nil
}

// TopAccounts returns the n highest scored account ids, highest first.
func (s *Store) TopAccounts(ctx context.Context, n int64) ([]redis.Z, error) {
	if n <= 0 {
		n = 10
	}
	out, err := s.client.ZRevRangeWithScores(ctx, s.ScoresKey(), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read top accounts: %w", err)
	}
	return out, nil
}

// LatestReport returns the most recently staged report.
func (s *Store) LatestReport(ctx context.Context) (*models.Report, error) {
	raw, err := s.client.LIndex(ctx, s.ReportsKey(), 0).Bytes()
	if err != nil {
		return nil, fmt.Errorf("read latest report: %w", err)
	}
	var r models.Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode latest report: %w", err)
	}
	return &r, nil
}

// AccountKey is the hash key for one account's latest finding.
func (s *Store) AccountKey(id string) string { return s.prefix + ":account:" + id }

// RingKey is the hash key for one fraud ring.
func (s *Store) RingKey(id string) string { return s.prefix + ":ring:" + id }

// ScoresKey is the sorted set of flagged accounts by score.
func (s *Store) ScoresKey() string { return s.prefix + ":scores" }

// RingsKey is the set of ring ids staged by the latest run.
func (s *Store) RingsKey() string { return s.prefix + ":rings" }

// ReportsKey is the report history list.
func (s *Store) ReportsKey() string { return s.prefix + ":reports" }

// Close closes Redis resources.
func (s *Store) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}
