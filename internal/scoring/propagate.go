package scoring

import (
	"mulegraph/internal/graph"
	"mulegraph/internal/logger"
	"mulegraph/pkg/models"
)

const (
	// MaxRounds bounds how far contagion travels from a primary offender.
	MaxRounds = 3
	// ContagionStep is added per flagged neighbour, up to ContagionCap per round.
	ContagionStep = 5
	ContagionCap  = 15
)

// PropagationStats describes one propagation run.
type PropagationStats struct {
	Rounds int `json:"rounds"`
	// NewlyFlagged counts accounts whose flag turned on, per round.
	NewlyFlagged []int `json:"newly_flagged"`
	// Converged is true when a round changed no flag.
	Converged bool `json:"converged"`
}

// Propagate raises scores of accounts next to flagged accounts. Every round
// reads the flags as they stood at the end of the previous round. Scores only
// grow and flags only turn on. maxRounds outside 1..MaxRounds means MaxRounds.
func Propagate(g *graph.Graph, profiles []models.SuspicionProfile, maxRounds int) PropagationStats {
	if maxRounds <= 0 || maxRounds > MaxRounds {
		maxRounds = MaxRounds
	}
	stats := PropagationStats{}
	snapshot := make([]bool, len(profiles))

	for round := 1; round <= maxRounds; round++ {
		for i := range profiles {
			snapshot[i] = profiles[i].IsFlagged
		}
		changed := 0
		for v := range profiles {
			p := &profiles[v]
			p.FlaggedConnections = flaggedNeighbors(g, v, snapshot)
			p.Score = min(models.MaxScore, p.Score+min(ContagionCap, ContagionStep*p.FlaggedConnections))
			if flagged := models.Flagged(p.Score); flagged != p.IsFlagged {
				p.IsFlagged = flagged
				changed++
			}
		}
		stats.Rounds = round
		stats.NewlyFlagged = append(stats.NewlyFlagged, changed)
		logger.Debugf("propagation round %d: %d newly flagged", round, changed)
		if changed == 0 {
			stats.Converged = true
			break
		}
	}

	for i := range profiles {
		snapshot[i] = profiles[i].IsFlagged
	}
	for v := range profiles {
		profiles[v].FlaggedConnections = flaggedNeighbors(g, v, snapshot)
	}
	return stats
}

func flaggedNeighbors(g *graph.Graph, v int, flags []bool) int {
	n := 0
	for _, w := range g.Neighbors(v) {
		if flags[w] {
			n++
		}
	}
	return n
}
