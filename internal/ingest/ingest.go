package ingest

import (
	"fmt"
	"iter"
	"runtime"

	"golang.org/x/sync/errgroup"

	"mulegraph/internal/logger"
	"mulegraph/pkg/models"
)

// Options controls row parsing.
type Options struct {
	// Workers is the parse pool size; <= 0 uses GOMAXPROCS.
	Workers int
	// MaxWarnings bounds retained warnings; the skip count is never capped.
	MaxWarnings int
}

// Warning records one skipped row.
type Warning struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Batch is the validated output of one ingestion.
type Batch struct {
	txs      []models.Transaction
	skipped  int
	warnings []Warning
}

// All yields transactions in input order. Each call starts from the top.
func (b *Batch) All() iter.Seq[models.Transaction] {
	return func(yield func(models.Transaction) bool) {
		for _, tx := range b.txs {
			if !yield(tx) {
				return
			}
		}
	}
}

// Len returns the number of valid transactions.
func (b *Batch) Len() int { return len(b.txs) }

// Skipped returns the number of rejected rows.
func (b *Batch) Skipped() int { return b.skipped }

// Warnings returns retained skip reasons in input order.
func (b *Batch) Warnings() []Warning { return b.warnings }

type parsed struct {
	tx  models.Transaction
	err error
}

const minChunk = 256

// Ingest validates rows on a worker pool. Output order equals input order.
func Ingest(rows []Row, opts Options) (*Batch, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxWarnings <= 0 {
		opts.MaxWarnings = 100
	}

	results := make([]parsed, len(rows))
	chunk := (len(rows) + opts.Workers - 1) / opts.Workers
	if chunk < minChunk {
		chunk = minChunk
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				tx, err := ParseRow(rows[i])
				results[i] = parsed{tx: tx, err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	b := &Batch{txs: make([]models.Transaction, 0, len(rows))}
	for i, r := range results {
		if r.err != nil {
			b.skipped++
			if len(b.warnings) < opts.MaxWarnings {
				b.warnings = append(b.warnings, Warning{Line: rows[i].Line, Reason: r.err.Error()})
			}
			if logger.Enabled(logger.Debug) {
				logger.Debugf("Skipping row %d: %v", rows[i].Line, r.err)
			}
			continue
		}
		b.txs = append(b.txs, r.tx)
	}

	if b.skipped > 0 {
		logger.Infof("Ingestion skipped %d of %d rows", b.skipped, len(rows))
	}
	if len(b.txs) == 0 {
		return nil, fmt.Errorf("%w (%d rows rejected)", ErrNoTransactions, b.skipped)
	}
	return b, nil
}

// FromTransactions wraps already-validated transactions, for callers that
// build batches in code.
func FromTransactions(txs []models.Transaction) *Batch {
	return &Batch{txs: append([]models.Transaction(nil), txs...)}
}
