package graph

import "sort"

// Components groups the nodes selected by include into connected components,
// treating edges as undirected and using only edges whose endpoints are both
// selected. Components are returned with members in index order, ordered by
// their smallest member.
func (g *Graph) Components(include func(v int) bool) [][]int {
	parent := make([]int, len(g.nodes))
	rank := make([]uint8, len(g.nodes))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		switch {
		case rank[ra] < rank[rb]:
			parent[ra] = rb
		case rank[ra] > rank[rb]:
			parent[rb] = ra
		default:
			parent[rb] = ra
			rank[ra]++
		}
	}

	for _, e := range g.edges {
		if include(e.From) && include(e.To) {
			union(e.From, e.To)
		}
	}

	groups := make(map[int][]int)
	roots := make([]int, 0)
	for v := range g.nodes {
		if !include(v) {
			continue
		}
		r := find(v)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], v)
	}
	out := make([][]int, 0, len(roots))
	for _, r := range roots {
		out = append(out, groups[r])
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
