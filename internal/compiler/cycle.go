package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tempo/internal/ir"
)

// RefCycle is a set of timelines that embed each other through ref
// entries. A timeline cannot contain itself, so every cycle is an error.
type RefCycle struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

func (c RefCycle) Error() string { return c.Message }

// refGraph maps a timeline name to the timelines it embeds.
type refGraph map[string][]string

// AnalyzeRefs reports every cycle among the ref entries of specs. An acyclic
// document returns an empty list.
//
// Strongly connected components are found with Tarjan's algorithm; each
// component with more than one member, or a single member that embeds
// itself, is a cycle.
func AnalyzeRefs(specs []ir.TimelineSpec) []RefCycle {
	graph := buildRefGraph(specs)

	var cycles []RefCycle
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	return cycles
}

func buildRefGraph(specs []ir.TimelineSpec) refGraph {
	graph := make(refGraph, len(specs))
	for i := range specs {
		name := specs[i].Name
		graph[name] = appendRefs(graph[name], specs[i].Entries)
		if graph[name] == nil {
			graph[name] = []string{}
		}
	}
	return graph
}

func appendRefs(refs []string, entries []ir.EntrySpec) []string {
	for i := range entries {
		switch entries[i].Kind {
		case ir.KindRef:
			refs = append(refs, entries[i].Ref)
		case ir.KindLevel:
			refs = appendRefs(refs, entries[i].Entries)
		}
	}
	return refs
}

func hasSelfLoop(node string, graph refGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC returns the strongly connected components of graph. Nodes are
// visited in sorted order so the result is deterministic.
func tarjanSCC(graph refGraph) [][]string {
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

func sccToCycle(scc []string, graph refGraph) RefCycle {
	if len(scc) == 1 {
		name := scc[0]
		return RefCycle{
			Path:    []string{name, name},
			Message: fmt.Sprintf("timeline %s embeds itself", name),
		}
	}
	path := cyclePath(scc, graph)
	return RefCycle{
		Path:    path,
		Message: fmt.Sprintf("ref cycle: %s", strings.Join(path, " → ")),
	}
}

// cyclePath walks edges inside the component from its smallest member
// until it returns to the start.
func cyclePath(scc []string, graph refGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		next := ""
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
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
