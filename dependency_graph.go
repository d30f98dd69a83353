package ecs

// Graph is the static dependency structure over a fixed set of nodes
// (systems), built once per SystemsManager.Init and then reused, reset
// per tick, by a fresh Tracer.
type Graph struct {
	successors   [][]int
	predecessors [][]int
	finalized    bool
}

// InitNodes allocates n nodes, numbered 0..n-1.
func (g *Graph) InitNodes(n int) {
	g.successors = make([][]int, n)
	g.predecessors = make([][]int, n)
	g.finalized = false
}

// NodeCount returns the number of nodes allocated by InitNodes.
func (g *Graph) NodeCount() int {
	return len(g.successors)
}

// AddDependency records that u must finish before v starts.
func (g *Graph) AddDependency(u, v int) {
	g.successors[u] = append(g.successors[u], v)
	g.predecessors[v] = append(g.predecessors[v], u)
}

// Finalize computes, for every node, its initial predecessor count
// (exposed via InitialPredecessorCount) and rejects the graph if it
// contains a cycle.
func (g *Graph) Finalize() error {
	if err := g.detectCycle(); err != nil {
		return err
	}
	g.finalized = true
	return nil
}

// Successors returns the adjacency list of nodes that depend on v.
func (g *Graph) Successors(v int) []int {
	return g.successors[v]
}

// InitialPredecessorCount returns how many predecessors v starts with.
func (g *Graph) InitialPredecessorCount(v int) int {
	return len(g.predecessors[v])
}

func (g *Graph) detectCycle() error {
	n := len(g.successors)
	indegree := make([]int, n)
	for v := 0; v < n; v++ {
		indegree[v] = len(g.predecessors[v])
	}

	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	visited := 0
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		visited++
		for _, w := range g.successors[v] {
			indegree[w]--
			if indegree[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	if visited != n {
		return ErrCyclicDependency
	}
	return nil
}
