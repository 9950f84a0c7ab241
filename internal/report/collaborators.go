package report

import (
	"github.com/shopspring/decimal"

	"mulegraph/internal/graph"
	"mulegraph/pkg/models"
)

// RegistryRecord is what the ledger collaborator stores per account after it
// hashes AccountID.
type RegistryRecord struct {
	AccountID          string `json:"account_id"`
	RiskScore          int    `json:"risk_score"`
	TransactionCount   int    `json:"transaction_count"`
	FlaggedConnections int    `json:"flagged_connections"`
	IsFlagged          bool   `json:"is_flagged"`
}

// RegistryRecords lists one record per suspicious account, in report order.
func RegistryRecords(r *models.Report) []RegistryRecord {
	out := make([]RegistryRecord, 0, len(r.SuspiciousAccounts))
	for _, a := range r.SuspiciousAccounts {
		out = append(out, RegistryRecord{
			AccountID:          a.AccountID,
			RiskScore:          a.SuspicionScore,
			TransactionCount:   a.TransactionCount,
			FlaggedConnections: a.FlaggedConnections,
			IsFlagged:          models.Flagged(a.SuspicionScore),
		})
	}
	return out
}

// VisualNode is one account in the rendering payload.
type VisualNode struct {
	ID        string `json:"id"`
	RiskScore int    `json:"risk_score"`
	Flagged   bool   `json:"flagged"`
	RingID    string `json:"ring_id,omitempty"`
}

// VisualLink is one aggregated edge in the rendering payload.
type VisualLink struct {
	Source string          `json:"source"`
	Target string          `json:"target"`
	Weight decimal.Decimal `json:"weight"`
	Count  int             `json:"count"`
}

// VisualGraph is the whole graph with final flags and ring assignment.
type VisualGraph struct {
	Nodes []VisualNode `json:"nodes"`
	Links []VisualLink `json:"links"`
}

// Visualization projects the graph for the rendering collaborator. ringOf is
// indexed by node and may be nil.
func Visualization(g *graph.Graph, profiles []models.SuspicionProfile, ringOf []string) VisualGraph {
	vg := VisualGraph{
		Nodes: make([]VisualNode, 0, g.NodeCount()),
		Links: make([]VisualLink, 0, g.EdgeCount()),
	}
	for v, n := range g.Nodes() {
		node := VisualNode{ID: n.ID}
		if v < len(profiles) {
			node.RiskScore = profiles[v].Score
			node.Flagged = profiles[v].IsFlagged
		}
		if v < len(ringOf) {
			node.RingID = ringOf[v]
		}
		vg.Nodes = append(vg.Nodes, node)
	}
	for _, e := range g.Edges() {
		vg.Links = append(vg.Links, VisualLink{
			Source: g.Node(e.From).ID,
			Target: g.Node(e.To).ID,
			Weight: e.Weight,
			Count:  e.Count,
		})
	}
	return vg
}
