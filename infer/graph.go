package infer

import (
	"sort"
	"strings"

	"github.com/relspect/relspect/catalog"
)

// Graph is the directed graph of tables connected by foreign-key edges.
// It is built once per catalog snapshot and never mutated afterwards,
// so concurrent per-table analyses can share it read-only.
type Graph struct {
	nodes []string
	index map[string]int
	adj   [][]graphEdge
}

type graphEdge struct {
	to     int
	column string
}

const (
	colorWhite = iota // unvisited
	colorGrey         // in the active DFS path
	colorBlack        // fully explored
)

// NewGraph builds the adjacency structure from every foreign key in the
// catalog. Keys referencing tables outside the snapshot are ignored.
func NewGraph(cat *catalog.Catalog) *Graph {
	g := &Graph{
		nodes: cat.Keys(),
		index: make(map[string]int, len(cat.Tables)),
	}
	for i, key := range g.nodes {
		g.index[key] = i
	}

	g.adj = make([][]graphEdge, len(g.nodes))
	for i, t := range cat.Tables {
		for _, fk := range t.Constraints.Foreign {
			to, ok := g.index[fk.ForeignTable]
			if !ok {
				continue
			}
			g.adj[i] = append(g.adj[i], graphEdge{to: to, column: first(fk.Columns)})
		}
	}

	return g
}

// CyclesFrom runs a depth-first search rooted at the table and reports
// every foreign-key cycle reachable from it. The three-color scheme
// guarantees termination on self-loops and mutually referencing tables,
// and never revisits a fully explored node.
func (g *Graph) CyclesFrom(table string) []Cycle {
	start, ok := g.index[table]
	if !ok {
		return nil
	}

	state := make([]int, len(g.nodes))
	stack := make([]int, 0, len(g.nodes))

	var cycles []Cycle
	seen := map[string]struct{}{}

	var dfs func(n int)
	dfs = func(n int) {
		state[n] = colorGrey
		stack = append(stack, n)

		for _, e := range g.adj[n] {
			switch state[e.to] {
			case colorWhite:
				dfs(e.to)
			case colorGrey:
				// Back-edge to an ancestor in the active path
				cycle := g.cycleFromStack(stack, e.to)
				if _, dup := seen[signature(cycle.TablesInvolved)]; !dup {
					seen[signature(cycle.TablesInvolved)] = struct{}{}
					cycles = append(cycles, cycle)
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[n] = colorBlack
	}

	dfs(start)

	return cycles
}

// cycleFromStack slices the active path from the back-edge target to
// the top of the stack and closes it.
func (g *Graph) cycleFromStack(stack []int, to int) Cycle {
	var from int
	for i, n := range stack {
		if n == to {
			from = i
			break
		}
	}

	path := make([]string, 0, len(stack)-from+1)
	involved := make([]string, 0, len(stack)-from)
	for _, n := range stack[from:] {
		path = append(path, g.nodes[n])
		involved = append(involved, g.nodes[n])
	}
	path = append(path, g.nodes[to])

	sort.Strings(involved)

	return Cycle{Path: path, TablesInvolved: involved}
}

func signature(tables []string) string {
	return strings.Join(tables, "\x00")
}

// SelfReferences lists every foreign key on the table that points back
// at the table itself.
func SelfReferences(t catalog.Table) []SelfReference {
	var out []SelfReference

	for _, fk := range t.Constraints.Foreign {
		if !fk.IsSelfReferencing(t.Key) {
			continue
		}
		out = append(out, SelfReference{
			Column:     first(fk.Columns),
			References: first(fk.ForeignColumns),
		})
	}

	return out
}
