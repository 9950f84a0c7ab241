// Package rings clusters flagged accounts into fraud rings.
package rings

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"mulegraph/internal/graph"
	"mulegraph/pkg/models"
)

// MinMembers is the smallest component reported as a ring.
const MinMembers = 2

// Result holds the rings of one run and each account's ring id.
type Result struct {
	Rings []models.FraudRing
	// RingOf is indexed by node; empty when the account is in no ring.
	RingOf []string
}

type candidate struct {
	members []int
	total   decimal.Decimal
	minID   string
}

// Build finds connected components of the flagged subgraph, ignoring edge
// direction. Rings are ordered by total amount, largest first, then by
// smallest member id, and numbered in that order.
func Build(g *graph.Graph, profiles []models.SuspicionProfile) Result {
	flagged := func(v int) bool { return profiles[v].IsFlagged }
	comps := g.Components(flagged)

	cands := make([]candidate, 0, len(comps))
	compOf := make(map[int]int, len(profiles))
	for _, members := range comps {
		if len(members) < MinMembers {
			continue
		}
		c := candidate{members: members, minID: g.Node(members[0]).ID}
		for _, v := range members {
			compOf[v] = len(cands)
			if id := g.Node(v).ID; id < c.minID {
				c.minID = id
			}
		}
		cands = append(cands, c)
	}
	for _, e := range g.Edges() {
		ci, ok := compOf[e.From]
		if !ok || !flagged(e.To) {
			continue
		}
		cands[ci].total = cands[ci].total.Add(e.Weight)
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if c := cands[i].total.Cmp(cands[j].total); c != 0 {
			return c > 0
		}
		return cands[i].minID < cands[j].minID
	})

	res := Result{
		Rings:  make([]models.FraudRing, 0, len(cands)),
		RingOf: make([]string, len(profiles)),
	}
	for i, c := range cands {
		ringID := fmt.Sprintf("RING_%03d", i+1)
		ids := make([]string, len(c.members))
		for j, v := range c.members {
			ids[j] = g.Node(v).ID
			res.RingOf[v] = ringID
		}
		sort.Strings(ids)
		res.Rings = append(res.Rings, models.FraudRing{
			RingID:          ringID,
			Members:         ids,
			TotalAmount:     c.total,
			DominantPattern: dominantPattern(c.members, profiles),
		})
	}
	return res
}

// dominantPattern returns the most frequent tag, earlier tags winning ties.
// Falls back to RING_MEMBER when no member carries a tag.
func dominantPattern(members []int, profiles []models.SuspicionProfile) models.PatternTag {
	counts := make(map[models.PatternTag]int, 4)
	for _, v := range members {
		for _, tag := range profiles[v].Patterns.Tags() {
			counts[tag]++
		}
	}
	best, bestCount := models.PatternRingMember, 0
	for _, tag := range models.AllPatterns() {
		if counts[tag] > bestCount {
			best, bestCount = tag, counts[tag]
		}
	}
	return best
}
