package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mulegraph/pkg/models"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

var errNegativeAmount = errors.New("amount is negative")

// ParseRow converts one raw row into a Transaction.
func ParseRow(row Row) (models.Transaction, error) {
	if row.Err != nil {
		return models.Transaction{}, fmt.Errorf("unreadable record: %w", row.Err)
	}
	from := firstField(row, fromColumns...)
	if from == "" {
		return models.Transaction{}, errors.New("missing from_account")
	}
	to := firstField(row, toColumns...)
	if to == "" {
		return models.Transaction{}, errors.New("missing to_account")
	}
	rawAmount := firstField(row, amountColumns...)
	if rawAmount == "" {
		return models.Transaction{}, errors.New("missing amount")
	}
	rawTS := firstField(row, timestampColumns...)
	if rawTS == "" {
		return models.Transaction{}, errors.New("missing timestamp")
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("amount %q: %w", rawAmount, err)
	}
	ts, err := ParseTimestamp(rawTS)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("timestamp %q: %w", rawTS, err)
	}

	return models.Transaction{From: from, To: to, Amount: amount, Timestamp: ts}, nil
}

// ParseAmount parses a non-negative decimal. Thousands separators and a
// leading currency sign are tolerated.
func ParseAmount(raw string) (decimal.Decimal, error) {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(v, "$")
	v = strings.ReplaceAll(v, ",", "")
	v = strings.ReplaceAll(v, "_", "")
	amount, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, errNegativeAmount
	}
	return amount, nil
}

// ParseTimestamp accepts the common export layouts and unix seconds.
// Layouts without a zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, errors.New("unrecognised time layout")
}
