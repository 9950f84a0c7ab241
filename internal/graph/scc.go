package graph

import "sort"

// SCCs is the strongly connected component partition of a graph.
type SCCs struct {
	// Component maps node index to component id.
	Component []int
	// Members lists each component's nodes in index order.
	Members [][]int
}

// Size returns the size of the component containing v.
func (s SCCs) Size(v int) int {
	return len(s.Members[s.Component[v]])
}

// NonTrivial returns the number of components with two or more members.
func (s SCCs) NonTrivial() int {
	n := 0
	for _, m := range s.Members {
		if len(m) >= 2 {
			n++
		}
	}
	return n
}

type tarjanFrame struct {
	v    int
	next int
}

// StronglyConnected runs Tarjan's algorithm in O(V+E). The recursion is
// unrolled onto an explicit stack so deep chains cannot overflow.
func (g *Graph) StronglyConnected() SCCs {
	n := len(g.nodes)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	comp := make([]int, n)
	members := make([][]int, 0, n)
	stack := make([]int, 0, 64)
	counter := 0

	visit := func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
	}

	for root := 0; root < n; root++ {
		if index[root] != -1 {
			continue
		}
		visit(root)
		call := []tarjanFrame{{v: root}}
		for len(call) > 0 {
			top := len(call) - 1
			v := call[top].v
			if call[top].next < len(g.out[v]) {
				w := g.edges[g.out[v][call[top].next]].To
				call[top].next++
				if index[w] == -1 {
					visit(w)
					call = append(call, tarjanFrame{v: w})
				} else if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
				continue
			}

			call = call[:top]
			if top > 0 {
				parent := call[top-1].v
				if low[v] < low[parent] {
					low[parent] = low[v]
				}
			}
			if low[v] != index[v] {
				continue
			}
			id := len(members)
			var m []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp[w] = id
				m = append(m, w)
				if w == v {
					break
				}
			}
			sort.Ints(m)
			members = append(members, m)
		}
	}
	return SCCs{Component: comp, Members: members}
}
