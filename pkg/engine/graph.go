package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Edge is a data-flow edge between two actors. Push is set when To is a
// consumer of From, Pull when From is a provider of To.
type Edge struct {
	From string
	To   string
	Push bool
	Pull bool
}

// Validate checks the graph for cycles along consumer edges (records
// would circulate forever) and along provider edges.
func (wf *Workflow) Validate() error {
	consumersOf := func(a *Actor) []*Actor { return actorsOf(a.consumers) }
	providersOf := func(a *Actor) []*Actor { return actorsOf(a.providers) }

	if cycle := findCycle(wf.actors, consumersOf); cycle != nil {
		return NewGraphError(fmt.Sprintf("consumer cycle detected: %s", formatCycle(cycle)), nil).
			WithCode(ErrCodeCycleDetected).
			WithDetail("cycle", cycle)
	}
	if cycle := findCycle(wf.actors, providersOf); cycle != nil {
		return NewGraphError(fmt.Sprintf("provider cycle detected: %s", formatCycle(cycle)), nil).
			WithCode(ErrCodeCycleDetected).
			WithDetail("cycle", cycle)
	}
	return nil
}

func actorsOf[T any](nodes []T) []*Actor {
	out := make([]*Actor, 0, len(nodes))
	for _, n := range nodes {
		if a, ok := any(n).(*Actor); ok {
			out = append(out, a)
		}
	}
	return out
}

// findCycle runs a depth-first search from every actor in registration
// order and returns the first cycle found as a list of names, first name
// repeated at the end.
func findCycle(actors []*Actor, next func(*Actor) []*Actor) []string {
	visited := make(map[*Actor]bool)
	onStack := make(map[*Actor]bool)

	var visit func(a *Actor, path []*Actor) []string
	visit = func(a *Actor, path []*Actor) []string {
		visited[a] = true
		onStack[a] = true
		path = append(path, a)

		for _, n := range next(a) {
			if !visited[n] {
				if cycle := visit(n, path); cycle != nil {
					return cycle
				}
			} else if onStack[n] {
				for i, p := range path {
					if p == n {
						cycle := make([]string, 0, len(path)-i+1)
						for _, c := range path[i:] {
							cycle = append(cycle, c.name)
						}
						return append(cycle, n.name)
					}
				}
			}
		}

		onStack[a] = false
		return nil
	}

	for _, a := range actors {
		if !visited[a] {
			if cycle := visit(a, nil); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func formatCycle(cycle []string) string {
	return strings.Join(cycle, " -> ")
}

// Edges returns the data-flow edges, ordered by source registration and
// then by first appearance.
func (wf *Workflow) Edges() []Edge {
	index := make(map[[2]string]int)
	edges := make([]Edge, 0)

	add := func(from, to string, push bool) {
		key := [2]string{from, to}
		i, ok := index[key]
		if !ok {
			i = len(edges)
			index[key] = i
			edges = append(edges, Edge{From: from, To: to})
		}
		if push {
			edges[i].Push = true
		} else {
			edges[i].Pull = true
		}
	}

	for _, a := range wf.actors {
		for _, c := range actorsOf(a.consumers) {
			add(a.name, c.name, true)
		}
		for _, p := range actorsOf(a.providers) {
			add(p.name, a.name, false)
		}
	}
	return edges
}

// Levels groups actor names by distance from the sources along data-flow
// edges. Level 0 holds actors nothing flows into. Names within a level are
// sorted.
func (wf *Workflow) Levels() ([][]string, error) {
	inDegree := make(map[string]int, len(wf.actors))
	next := make(map[string][]string)
	for _, a := range wf.actors {
		inDegree[a.name] = 0
	}
	for _, e := range wf.Edges() {
		if _, ok := inDegree[e.From]; !ok {
			inDegree[e.From] = 0
		}
		next[e.From] = append(next[e.From], e.To)
		inDegree[e.To]++
	}

	current := make([]string, 0)
	for name, d := range inDegree {
		if d == 0 {
			current = append(current, name)
		}
	}

	levels := make([][]string, 0)
	processed := 0
	for len(current) > 0 {
		sort.Strings(current)
		levels = append(levels, current)
		processed += len(current)

		following := make([]string, 0)
		for _, name := range current {
			for _, to := range next[name] {
				inDegree[to]--
				if inDegree[to] == 0 {
					following = append(following, to)
				}
			}
		}
		current = following
	}

	if processed != len(inDegree) {
		return nil, NewGraphError("data-flow graph contains a cycle", nil).WithCode(ErrCodeCycleDetected)
	}
	return levels, nil
}

// ToDOT renders the graph in Graphviz DOT format. Solid edges are wired in
// both directions, dashed edges only push records, dotted edges only pull.
func (wf *Workflow) ToDOT() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("digraph %q {\n", wf.name))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n\n")

	for _, a := range wf.actors {
		color := "white"
		if !a.HasConsumers() {
			color = "lightblue"
		} else if len(a.providers) == 0 {
			color = "lightgreen"
		}
		sb.WriteString(fmt.Sprintf("  %q [label=\"%s\\n%s\", fillcolor=%q, style=\"filled,rounded\"];\n",
			a.name, a.name, a.typeName, color))
	}

	if len(wf.actors) > 0 {
		sb.WriteString("\n")
	}

	for _, e := range wf.Edges() {
		sb.WriteString(fmt.Sprintf("  %q -> %q [%s];\n", e.From, e.To, edgeStyle(e)))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func edgeStyle(e Edge) string {
	switch {
	case e.Push && e.Pull:
		return "style=solid, color=black"
	case e.Push:
		return "style=dashed, color=blue"
	default:
		return "style=dotted, color=gray"
	}
}
