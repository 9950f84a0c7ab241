// Package report projects analysis state into the result handed to
// collaborators.
package report

import (
	"math"
	"sort"
	"time"

	"mulegraph/internal/graph"
	"mulegraph/internal/rings"
	"mulegraph/pkg/models"
)

// Input is everything the assembler projects. Nothing in it is modified.
type Input struct {
	RunID        string
	Graph        *graph.Graph
	Profiles     []models.SuspicionProfile
	Rings        rings.Result
	Transactions int
	Skipped      int
	Rounds       int
	Started      time.Time
	Finished     time.Time
}

// Assemble builds the report.
func Assemble(in Input) *models.Report {
	accounts := make([]models.SuspiciousAccount, 0)
	for v, p := range in.Profiles {
		if !p.IsFlagged {
			continue
		}
		n := in.Graph.Node(v)
		acct := models.SuspiciousAccount{
			AccountID:          n.ID,
			SuspicionScore:     p.Score,
			DetectedPatterns:   p.Patterns.Names(),
			TransactionCount:   n.TransactionCount(),
			FlaggedConnections: p.FlaggedConnections,
		}
		if v < len(in.Rings.RingOf) {
			acct.RingID = in.Rings.RingOf[v]
		}
		accounts = append(accounts, acct)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].SuspicionScore != accounts[j].SuspicionScore {
			return accounts[i].SuspicionScore > accounts[j].SuspicionScore
		}
		return accounts[i].AccountID < accounts[j].AccountID
	})

	ringsOut := in.Rings.Rings
	if ringsOut == nil {
		ringsOut = []models.FraudRing{}
	}

	return &models.Report{
		SuspiciousAccounts: accounts,
		FraudRings:         ringsOut,
		Summary: models.Summary{
			RunID:             in.RunID,
			Nodes:             in.Graph.NodeCount(),
			Edges:             in.Graph.EdgeCount(),
			Transactions:      in.Transactions,
			SkippedRows:       in.Skipped,
			FlaggedAccounts:   len(accounts),
			RingCount:         len(ringsOut),
			PropagationRounds: in.Rounds,
			ProcessingTime:    roundTo(in.Finished.Sub(in.Started).Seconds(), 3),
			Timestamp:         in.Started.UTC().Truncate(time.Second),
		},
	}
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
