package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/relate/internal/condition"
)

// CycleWarning represents a cycle between data providers in the
// relationship graph.
//
// A provider related to itself is the normal shape of a tree and is not
// reported. Cycles through several providers are warnings, not errors,
// because they may be intentional: parent lookups still terminate at
// records without a parent.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["tl_a", "tl_b", "tl_a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles detects provider cycles in the parent-child conditions of
// defn.
//
// The algorithm:
//  1. Build source -> destination graph from the child conditions
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 as a cycle warning
//
// A DAG (self-loops aside) returns an empty warning list.
func AnalyzeCycles(defn *condition.Definition) []CycleWarning {
	if defn == nil {
		return []CycleWarning{}
	}
	conds := defn.ChildConditions("")
	if len(conds) == 0 {
		return []CycleWarning{}
	}

	graph := buildDependencyGraph(conds)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// dependencyGraph maps provider -> providers it is parent of.
type dependencyGraph map[string][]string

// buildDependencyGraph adds one edge per condition, self-loops excluded.
// Node and edge order follow declaration order.
func buildDependencyGraph(conds []*condition.ParentChildCondition) dependencyGraph {
	graph := make(dependencyGraph)
	for _, c := range conds {
		if graph[c.Source] == nil {
			graph[c.Source] = []string{}
		}
		if graph[c.Destination] == nil {
			graph[c.Destination] = []string{}
		}
		if c.Source != c.Destination && !slices.Contains(graph[c.Source], c.Destination) {
			graph[c.Source] = append(graph[c.Source], c.Destination)
		}
	}
	return graph
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
//
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root node: pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning. The path starts at
// the smallest provider name of the SCC.
func cycleSCCToWarning(scc []string, graph dependencyGraph) CycleWarning {
	sorted := slices.Clone(scc)
	slices.Sort(sorted)
	path := reconstructCyclePath(sorted, graph)

	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Relationship cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
			break
		}

		path = append(path, next)

		if next == start {
			break
		}

		current = next
	}

	return path
}
