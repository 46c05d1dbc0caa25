package scheduler

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/graph"
	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/topologystore"
)

// edgeState counts the resolution of a node's incoming edges.
type edgeState struct {
	unresolved int
	live       int
}

// DefaultScheduler resolves edges as nodes finish. It is owned by a single
// goroutine, the executor's coordinator, and is not safe for concurrent use.
type DefaultScheduler struct {
	g        graph.Graph
	order    []string
	position map[string]int
	incoming map[string]*edgeState
	decided  map[string]bool
}

// New creates a scheduler for one run over g.
func New(ctx context.Context, g graph.Graph) (*DefaultScheduler, error) {
	order, err := g.TopologicalOrder(ctx)
	if err != nil {
		return nil, err
	}

	s := &DefaultScheduler{
		g:        g,
		order:    order,
		position: make(map[string]int, len(order)),
		incoming: make(map[string]*edgeState, len(order)),
		decided:  make(map[string]bool, len(order)),
	}
	for i, name := range order {
		s.position[name] = i
		s.incoming[name] = &edgeState{unresolved: len(g.Incoming(ctx, name))}
	}
	return s, nil
}

// Order returns the topological order the scheduler works in.
func (s *DefaultScheduler) Order() []string {
	return slices.Clone(s.order)
}

func (s *DefaultScheduler) Start(ctx context.Context) []string {
	var ready []string
	for _, name := range s.order {
		if s.incoming[name].unresolved == 0 {
			s.decided[name] = true
			ready = append(ready, name)
		}
	}
	ctxlog.FromContext(ctx).Debug("Found all root nodes.", "count", len(ready))
	return ready
}

func (s *DefaultScheduler) Complete(ctx context.Context, name, label string) (Progress, error) {
	n, ok := s.g.Node(ctx, name)
	if !ok {
		return Progress{}, fmt.Errorf("node '%s' not found in topology", name)
	}

	if n.Branch != nil {
		if _, ok := n.Branch.Routes[label]; !ok {
			return Progress{}, &model.ConfigurationError{
				Reason: fmt.Sprintf("branch of node '%s' returned unmatched label %q (routes: %v)", name, label, n.Branch.Labels()),
				Nodes:  []string{name},
			}
		}
	}

	var p Progress
	for _, e := range s.g.Outgoing(ctx, name) {
		s.resolve(ctx, e, liveFor(e, label), &p)
	}
	s.sortProgress(&p)
	return p, nil
}

func (s *DefaultScheduler) Fail(ctx context.Context, name string) []string {
	logger := ctxlog.FromContext(ctx)
	var skipped []string
	var walk func(from string)
	walk = func(from string) {
		for _, e := range s.g.Outgoing(ctx, from) {
			if s.decided[e.To] {
				continue
			}
			s.decided[e.To] = true
			logger.Warn("Skipping dependent node due to upstream failure.", "node", e.To, "dependency", from)
			_ = s.g.MarkSkipped(ctx, e.To, fmt.Errorf("skipped due to upstream failure of '%s'", name))
			skipped = append(skipped, e.To)
			walk(e.To)
		}
	}
	walk(name)
	slices.SortFunc(skipped, s.byPosition)
	return skipped
}

func (s *DefaultScheduler) Pending(ctx context.Context) []string {
	var out []string
	for _, name := range s.order {
		if !s.decided[name] {
			out = append(out, name)
		}
	}
	return out
}

// resolve settles one edge and cascades skips through nodes whose incoming
// edges are now all dead.
func (s *DefaultScheduler) resolve(ctx context.Context, e topologystore.Edge, live bool, p *Progress) {
	target := s.incoming[e.To]
	if target == nil || s.decided[e.To] {
		return
	}
	target.unresolved--
	if live {
		target.live++
	}
	if target.unresolved > 0 {
		return
	}

	s.decided[e.To] = true
	if target.live > 0 {
		p.Ready = append(p.Ready, e.To)
		return
	}

	ctxlog.FromContext(ctx).Debug("Skipping node, no live incoming edge.", "node", e.To)
	_ = s.g.MarkSkipped(ctx, e.To, nil)
	p.Skipped = append(p.Skipped, e.To)
	for _, out := range s.g.Outgoing(ctx, e.To) {
		s.resolve(ctx, out, false, p)
	}
}

func (s *DefaultScheduler) sortProgress(p *Progress) {
	slices.SortFunc(p.Ready, s.byPosition)
	slices.SortFunc(p.Skipped, s.byPosition)
}

func (s *DefaultScheduler) byPosition(a, b string) int {
	return s.position[a] - s.position[b]
}

func liveFor(e topologystore.Edge, label string) bool {
	if !e.Conditional() {
		return true
	}
	return e.Label == label
}
