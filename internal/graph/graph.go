// Package graph holds the aggregated directed money-flow graph.
package graph

import (
	"iter"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"mulegraph/pkg/models"
)

// Node is the aggregate view of one account.
type Node struct {
	ID        string
	InAmount  decimal.Decimal
	OutAmount decimal.Decimal
	InCount   int
	OutCount  int
	FirstSeen time.Time
	LastSeen  time.Time
}

// TransactionCount is the number of transfers touching the account.
func (n *Node) TransactionCount() int {
	return n.InCount + n.OutCount
}

// Edge aggregates every transfer for one ordered account pair.
type Edge struct {
	From      int
	To        int
	Weight    decimal.Decimal
	Count     int
	FirstSeen time.Time
	LastSeen  time.Time
}

type pair struct{ from, to int }

// Graph is a simple directed weighted graph. It is immutable once built.
type Graph struct {
	nodes         []Node
	index         map[string]int
	edges         []Edge
	edgeIndex     map[pair]int
	out           [][]int
	in            [][]int
	neighbors     [][]int
	selfTransfers int
}

// Builder accumulates transactions into a Graph.
type Builder struct {
	g *Graph
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{
		index:     make(map[string]int, 1024),
		edgeIndex: make(map[pair]int, 4096),
	}}
}

// Build aggregates seq into a graph.
func Build(seq iter.Seq[models.Transaction]) *Graph {
	b := NewBuilder()
	for tx := range seq {
		b.Add(tx)
	}
	return b.Graph()
}

// Add folds one transaction into the graph. Self transfers are counted and
// dropped.
func (b *Builder) Add(tx models.Transaction) {
	g := b.g
	if tx.IsSelfTransfer() {
		g.selfTransfers++
		return
	}
	from := b.node(tx.From, tx.Timestamp)
	to := b.node(tx.To, tx.Timestamp)

	src := &g.nodes[from]
	src.OutAmount = src.OutAmount.Add(tx.Amount)
	src.OutCount++
	dst := &g.nodes[to]
	dst.InAmount = dst.InAmount.Add(tx.Amount)
	dst.InCount++

	k := pair{from, to}
	idx, ok := g.edgeIndex[k]
	if !ok {
		g.edges = append(g.edges, Edge{From: from, To: to, FirstSeen: tx.Timestamp, LastSeen: tx.Timestamp})
		idx = len(g.edges) - 1
		g.edgeIndex[k] = idx
	}
	e := &g.edges[idx]
	e.Weight = e.Weight.Add(tx.Amount)
	e.Count++
	e.FirstSeen, e.LastSeen = widen(e.FirstSeen, e.LastSeen, tx.Timestamp)
}

func (b *Builder) node(id string, ts time.Time) int {
	g := b.g
	idx, ok := g.index[id]
	if !ok {
		g.nodes = append(g.nodes, Node{ID: id, FirstSeen: ts, LastSeen: ts})
		idx = len(g.nodes) - 1
		g.index[id] = idx
		return idx
	}
	n := &g.nodes[idx]
	n.FirstSeen, n.LastSeen = widen(n.FirstSeen, n.LastSeen, ts)
	return idx
}

func widen(first, last, ts time.Time) (time.Time, time.Time) {
	if ts.Before(first) {
		first = ts
	}
	if ts.After(last) {
		last = ts
	}
	return first, last
}

// Graph freezes the builder: edges are put in (from, to) order and the
// adjacency lists are built. The builder must not be used afterwards.
func (b *Builder) Graph() *Graph {
	g := b.g
	b.g = nil

	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].From != g.edges[j].From {
			return g.edges[i].From < g.edges[j].From
		}
		return g.edges[i].To < g.edges[j].To
	})
	n := len(g.nodes)
	g.out = make([][]int, n)
	g.in = make([][]int, n)
	for i, e := range g.edges {
		g.edgeIndex[pair{e.From, e.To}] = i
		g.out[e.From] = append(g.out[e.From], i)
		g.in[e.To] = append(g.in[e.To], i)
	}

	g.neighbors = make([][]int, n)
	for v := 0; v < n; v++ {
		seen := make(map[int]struct{}, len(g.out[v])+len(g.in[v]))
		list := make([]int, 0, len(g.out[v])+len(g.in[v]))
		for _, ei := range g.out[v] {
			w := g.edges[ei].To
			if _, ok := seen[w]; !ok {
				seen[w] = struct{}{}
				list = append(list, w)
			}
		}
		for _, ei := range g.in[v] {
			w := g.edges[ei].From
			if _, ok := seen[w]; !ok {
				seen[w] = struct{}{}
				list = append(list, w)
			}
		}
		sort.Ints(list)
		g.neighbors[v] = list
	}
	return g
}

// NodeCount returns the number of accounts.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of aggregated edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// SelfTransfers returns how many self transfers were dropped.
func (g *Graph) SelfTransfers() int { return g.selfTransfers }

// Node returns the node at index i.
func (g *Graph) Node(i int) *Node { return &g.nodes[i] }

// Nodes returns all nodes in first-seen order. Callers must not modify them.
func (g *Graph) Nodes() []Node { return g.nodes }

// Lookup returns the index of an account id.
func (g *Graph) Lookup(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Edges returns all edges ordered by (from, to).
func (g *Graph) Edges() []Edge { return g.edges }

// Edge returns the aggregate for from→to.
func (g *Graph) Edge(from, to int) (*Edge, bool) {
	i, ok := g.edgeIndex[pair{from, to}]
	if !ok {
		return nil, false
	}
	return &g.edges[i], true
}

// EdgeByID looks up an edge by account ids.
func (g *Graph) EdgeByID(from, to string) (*Edge, bool) {
	fi, ok := g.index[from]
	if !ok {
		return nil, false
	}
	ti, ok := g.index[to]
	if !ok {
		return nil, false
	}
	return g.Edge(fi, ti)
}

// Successors returns the targets of v's outgoing edges in index order.
func (g *Graph) Successors(v int) []int {
	out := make([]int, len(g.out[v]))
	for i, ei := range g.out[v] {
		out[i] = g.edges[ei].To
	}
	return out
}

// Neighbors returns distinct accounts adjacent to v in either direction.
func (g *Graph) Neighbors(v int) []int { return g.neighbors[v] }

// Degree returns the number of aggregated edges touching v.
func (g *Graph) Degree(v int) int { return len(g.out[v]) + len(g.in[v]) }
