package graph

import (
	"context"
	"slices"

	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/node"
)

// Validate checks the graph is runnable: every edge endpoint is registered,
// there is no cycle and exactly one node has no predecessors.
func (m *Manager) Validate(ctx context.Context) error {
	nodes := m.topology.AllNodes(ctx)
	if len(nodes) == 0 {
		return model.NewConfigurationError("graph has no nodes")
	}

	var missing []string
	for _, e := range m.topology.Edges(ctx) {
		for _, end := range []string{e.From, e.To} {
			if _, ok := m.topology.GetNode(ctx, end); !ok && !slices.Contains(missing, end) {
				missing = append(missing, end)
			}
		}
	}
	if len(missing) > 0 {
		return model.NewConfigurationError("edge references unregistered node", missing...)
	}

	for _, n := range nodes {
		if n.Branch == nil {
			continue
		}
		if n.Branch.Decide == nil || len(n.Branch.Routes) == 0 {
			return model.NewConfigurationError("branch has no decision or routes", n.Name)
		}
	}

	if cycle := m.FindCycle(ctx); cycle != nil {
		return &model.ConfigurationError{Reason: "cycle detected", Cycle: cycle}
	}

	entries := m.EntryPoints(ctx)
	switch {
	case len(entries) == 0:
		return model.NewConfigurationError("graph has no entry point")
	case len(entries) > 1:
		return model.NewConfigurationError("graph has more than one entry point", entries...)
	}
	return nil
}

// EntryPoints returns registered nodes without incoming edges.
func (m *Manager) EntryPoints(ctx context.Context) []string {
	var out []string
	for _, n := range m.topology.AllNodes(ctx) {
		if len(m.topology.Incoming(ctx, n.Name)) == 0 {
			out = append(out, n.Name)
		}
	}
	return out
}

// FindCycle returns the first cycle found, as a path whose first and last
// elements are the same node, or nil when the graph is acyclic.
func (m *Manager) FindCycle(ctx context.Context) []string {
	// 0: unvisited, 1: on the current path, 2: done.
	colour := make(map[string]int)
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		colour[name] = 1
		path = append(path, name)
		for _, e := range m.topology.Outgoing(ctx, name) {
			if _, ok := m.topology.GetNode(ctx, e.To); !ok {
				continue
			}
			switch colour[e.To] {
			case 1:
				start := slices.Index(path, e.To)
				cycle = append(slices.Clone(path[start:]), e.To)
				return true
			case 0:
				if visit(e.To) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		colour[name] = 2
		return false
	}

	for _, n := range m.topology.AllNodes(ctx) {
		if colour[n.Name] == 0 && visit(n.Name) {
			return cycle
		}
	}
	return nil
}

// PathTo returns a path of node names from one node to another following
// edges, or nil when to is unreachable.
func (m *Manager) PathTo(ctx context.Context, from, to string) []string {
	visited := make(map[string]bool)
	var walk func(name string) []string
	walk = func(name string) []string {
		if name == to {
			return []string{name}
		}
		if visited[name] {
			return nil
		}
		visited[name] = true
		for _, e := range m.topology.Outgoing(ctx, name) {
			if rest := walk(e.To); rest != nil {
				return append([]string{name}, rest...)
			}
		}
		return nil
	}
	return walk(from)
}

func (m *Manager) TopologicalOrder(ctx context.Context) ([]string, error) {
	nodes := m.topology.AllNodes(ctx)
	inDegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		inDegree[n.Name] = 0
	}
	for _, e := range m.topology.Edges(ctx) {
		if _, ok := inDegree[e.To]; ok {
			if _, ok := inDegree[e.From]; ok {
				inDegree[e.To]++
			}
		}
	}

	var ready []*node.Node
	for _, n := range nodes {
		if inDegree[n.Name] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		slices.SortFunc(ready, func(a, b *node.Node) int { return a.Index - b.Index })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n.Name)

		for _, e := range m.topology.Outgoing(ctx, n.Name) {
			if _, ok := inDegree[e.To]; !ok {
				continue
			}
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				next, _ := m.topology.GetNode(ctx, e.To)
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, &model.ConfigurationError{Reason: "cycle detected", Cycle: m.FindCycle(ctx)}
	}
	return order, nil
}

func (m *Manager) Ancestors(ctx context.Context, name string) map[string]struct{} {
	seen := make(map[string]struct{})
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range m.topology.Incoming(ctx, current) {
			if _, ok := seen[e.From]; ok {
				continue
			}
			seen[e.From] = struct{}{}
			queue = append(queue, e.From)
		}
	}
	return seen
}
