// Package topologystore defines the storage contract for the static structure
// of a workflow graph: its nodes and the edges between them. The structure is
// fixed once registration ends and is shared by every run of the graph.
package topologystore

import (
	"context"

	"github.com/specialistvlad/fraudgrid/internal/node"
)

// Edge is a directed dependency between two nodes.
type Edge struct {
	From string
	To   string
	// Label is set for edges declared by a branch. The edge is live only when
	// the source's decision returns this label.
	Label string
}

// Conditional reports whether the edge belongs to a branch.
func (e Edge) Conditional() bool { return e.Label != "" }

// Store holds nodes and edges.
//
// Edges may be added before their endpoints are registered; validation of
// dangling edges is the graph's job, not the store's.
//
// Implementations MUST be safe for concurrent use.
type Store interface {
	// AddNode registers a node. Registering a name twice is an error.
	AddNode(ctx context.Context, n *node.Node) error

	// AddEdge records an edge. Adding an identical edge twice is a no-op.
	AddEdge(ctx context.Context, e Edge) error

	// GetNode looks up a node by name.
	GetNode(ctx context.Context, name string) (*node.Node, bool)

	// AllNodes returns every node in registration order.
	AllNodes(ctx context.Context) []*node.Node

	// Edges returns every edge in insertion order.
	Edges(ctx context.Context) []Edge

	// Incoming returns the edges ending at name, in insertion order.
	Incoming(ctx context.Context, name string) []Edge

	// Outgoing returns the edges starting at name, in insertion order.
	Outgoing(ctx context.Context, name string) []Edge
}
