package report

import (
	"sort"

	"mulegraph/internal/graph"
)

// TopConnectedLimit caps GraphStats.TopConnected.
const TopConnectedLimit = 10

// ConnectedAccount is an account with its total degree.
type ConnectedAccount struct {
	AccountID   string `json:"account_id"`
	Connections int    `json:"connections"`
}

// GraphStats summarises graph shape.
type GraphStats struct {
	Nodes             int                `json:"nodes"`
	Edges             int                `json:"edges"`
	Density           float64            `json:"density"`
	IsDirected        bool               `json:"is_directed"`
	AverageDegree     float64            `json:"average_degree"`
	TopConnected      []ConnectedAccount `json:"top_connected_accounts"`
	StronglyConnected bool               `json:"is_strongly_connected"`
	SCCCount          int                `json:"number_of_strongly_connected_components"`
}

// Stats computes shape statistics. Density is E/(N(N-1)) rounded to four
// places; average degree is 2E/N rounded to two.
func Stats(g *graph.Graph, sccs graph.SCCs) GraphStats {
	n, e := g.NodeCount(), g.EdgeCount()
	st := GraphStats{
		Nodes:      n,
		Edges:      e,
		IsDirected: true,
		SCCCount:   len(sccs.Members),
	}
	if n > 1 {
		st.Density = roundTo(float64(e)/float64(n*(n-1)), 4)
	}
	if n > 0 {
		st.AverageDegree = roundTo(2*float64(e)/float64(n), 2)
		st.StronglyConnected = len(sccs.Members) == 1
	}

	top := make([]ConnectedAccount, 0, n)
	for v, node := range g.Nodes() {
		top = append(top, ConnectedAccount{AccountID: node.ID, Connections: g.Degree(v)})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Connections != top[j].Connections {
			return top[i].Connections > top[j].Connections
		}
		return top[i].AccountID < top[j].AccountID
	})
	if len(top) > TopConnectedLimit {
		top = top[:TopConnectedLimit]
	}
	st.TopConnected = top
	return st
}
