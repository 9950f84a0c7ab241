package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report is the result of one analysis run handed to collaborators.
type Report struct {
	SuspiciousAccounts []SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []FraudRing         `json:"fraud_rings"`
	Summary            Summary             `json:"summary"`
}

// SuspiciousAccount is one flagged account.
type SuspiciousAccount struct {
	AccountID          string   `json:"account_id"`
	SuspicionScore     int      `json:"suspicion_score"`
	DetectedPatterns   []string `json:"detected_patterns"`
	TransactionCount   int      `json:"transaction_count"`
	FlaggedConnections int      `json:"flagged_connections"`
	RingID             string   `json:"ring_id,omitempty"`
}

// FraudRing is a cluster of flagged accounts connected by money flow.
type FraudRing struct {
	RingID          string          `json:"ring_id"`
	Members         []string        `json:"members"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DominantPattern PatternTag      `json:"dominant_pattern"`
}

// Summary holds run-level counters.
type Summary struct {
	RunID             string    `json:"run_id"`
	Nodes             int       `json:"nodes"`
	Edges             int       `json:"edges"`
	Transactions      int       `json:"transactions"`
	SkippedRows       int       `json:"skipped_rows"`
	FlaggedAccounts   int       `json:"flagged_accounts"`
	RingCount         int       `json:"ring_count"`
	PropagationRounds int       `json:"propagation_rounds"`
	ProcessingTime    float64   `json:"processing_time"`
	Timestamp         time.Time `json:"timestamp"`
}
