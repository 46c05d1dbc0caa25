package inmemorytopology

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/fraudgrid/internal/node"
	"github.com/specialistvlad/fraudgrid/internal/topologystore"
)

// Store is the in-memory topology store.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*node.Node
	order []string
	edges []topologystore.Edge
	seen  map[topologystore.Edge]struct{}
}

// New creates an empty topology store.
func New() topologystore.Store {
	return &Store{
		nodes: make(map[string]*node.Node),
		seen:  make(map[topologystore.Edge]struct{}),
	}
}

func (s *Store) AddNode(ctx context.Context, n *node.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.Name]; exists {
		return fmt.Errorf("node '%s' already registered", n.Name)
	}
	n.Index = len(s.order)
	s.nodes[n.Name] = n
	s.order = append(s.order, n.Name)
	return nil
}

func (s *Store) AddEdge(ctx context.Context, e topologystore.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[e]; exists {
		return nil
	}
	s.seen[e] = struct{}{}
	s.edges = append(s.edges, e)
	return nil
}

func (s *Store) GetNode(ctx context.Context, name string) (*node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[name]
	return n, ok
}

func (s *Store) AllNodes(ctx context.Context) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node.Node, 0, len(s.order))
	for _, name := range s.order {
		nodes = append(nodes, s.nodes[name])
	}
	return nodes
}

func (s *Store) Edges(ctx context.Context) []topologystore.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.edges)
}

func (s *Store) Incoming(ctx context.Context, name string) []topologystore.Edge {
	return s.filter(func(e topologystore.Edge) bool { return e.To == name })
}

func (s *Store) Outgoing(ctx context.Context, name string) []topologystore.Edge {
	return s.filter(func(e topologystore.Edge) bool { return e.From == name })
}

func (s *Store) filter(keep func(topologystore.Edge) bool) []topologystore.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []topologystore.Edge
	for _, e := range s.edges {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
