package sim

import "sort"

// LocationGraph is the undirected adjacency over area nodes that movement
// runs on. It is a one-time immutable input: the loader derives edges from
// area containment plus explicit portal links, and the kernel never mutates
// it after startup. Neighbor lists are kept sorted so path search expands
// nodes in a fixed order.
type LocationGraph struct {
	edges map[string][]string
}

// NewLocationGraph returns an empty graph.
func NewLocationGraph() *LocationGraph {
	return &LocationGraph{edges: make(map[string][]string)}
}

// AddNode registers an area with no edges yet.
func (g *LocationGraph) AddNode(id string) {
	if _, ok := g.edges[id]; !ok {
		g.edges[id] = nil
	}
}

// AddEdge links two areas bidirectionally. Duplicate edges are ignored.
func (g *LocationGraph) AddEdge(a, b string) {
	g.insert(a, b)
	g.insert(b, a)
}

func (g *LocationGraph) insert(from, to string) {
	neighbors := g.edges[from]
	i := sort.SearchStrings(neighbors, to)
	if i < len(neighbors) && neighbors[i] == to {
		return
	}
	neighbors = append(neighbors, "")
	copy(neighbors[i+1:], neighbors[i:])
	neighbors[i] = to
	g.edges[from] = neighbors
}

// Neighbors returns the sorted adjacency of an area.
func (g *LocationGraph) Neighbors(id string) []string {
	return g.edges[id]
}

// Has reports whether the area is part of the graph.
func (g *LocationGraph) Has(id string) bool {
	_, ok := g.edges[id]
	return ok
}

// ShortestPath returns the node sequence from start to goal, excluding start
// and including goal, minimizing edge count. Ties break deterministically:
// BFS expands neighbors in lexicographic order, so among equal-length paths
// the lexicographically earliest wins. Returns nil when no path exists or
// start == goal.
func (g *LocationGraph) ShortestPath(start, goal string) []string {
	if start == goal {
		return nil
	}
	if !g.Has(start) || !g.Has(goal) {
		return nil
	}
	cameFrom := map[string]string{start: ""}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == goal {
			break
		}
		for _, next := range g.edges[current] {
			if _, seen := cameFrom[next]; seen {
				continue
			}
			cameFrom[next] = current
			queue = append(queue, next)
		}
	}
	if _, ok := cameFrom[goal]; !ok {
		return nil
	}
	var path []string
	for at := goal; at != start; at = cameFrom[at] {
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Reachable returns every area reachable from start, excluding start itself,
// sorted lexicographically. This is the MOVE valid-target set.
func (g *LocationGraph) Reachable(start string) []string {
	if !g.Has(start) {
		return nil
	}
	seen := map[string]bool{start: true}
	queue := []string{start}
	var out []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.edges[current] {
			if seen[next] {
				continue
			}
			seen[next] = true
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	sort.Strings(out)
	return out
}
