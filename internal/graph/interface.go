package graph

import (
	"context"

	"github.com/specialistvlad/fraudgrid/internal/node"
	"github.com/specialistvlad/fraudgrid/internal/topologystore"
)

// Graph is a unified interface for interacting with a workflow graph during
// a run, combining static topology queries with per-run state updates.
//
// **Scheduler** uses Graph to:
//   - Walk structure: AllNodes(), Incoming(), Outgoing()
//   - Record skipped nodes: MarkSkipped()
//
// **Executor** uses Graph to:
//   - Look up nodes for execution: Node()
//   - Build snapshots: TopologicalOrder(), Ancestors(), Result()
//   - Update execution state: MarkRunning(), MarkCompleted(), MarkFailed()
//
// Implementations MUST be thread-safe.
type Graph interface {
	// Node retrieves a node by name.
	Node(ctx context.Context, name string) (*node.Node, bool)

	// AllNodes returns every node in registration order.
	AllNodes(ctx context.Context) []*node.Node

	// Incoming returns the edges ending at the node.
	Incoming(ctx context.Context, name string) []topologystore.Edge

	// Outgoing returns the edges starting at the node.
	Outgoing(ctx context.Context, name string) []topologystore.Edge

	// DependenciesOf returns the distinct predecessors of a node.
	DependenciesOf(ctx context.Context, name string) ([]*node.Node, error)

	// TopologicalOrder returns every node name in a deterministic order
	// consistent with the edges. Ties break by registration order.
	TopologicalOrder(ctx context.Context) ([]string, error)

	// Ancestors returns the set of nodes with a path to name.
	Ancestors(ctx context.Context, name string) map[string]struct{}

	// NodeStatus returns the node's status in the current run.
	NodeStatus(ctx context.Context, name string) (node.Status, error)

	// Result returns what a completed node produced.
	Result(ctx context.Context, name string) (node.Result, bool)

	// NodeError returns the error recorded for a failed or skipped node.
	NodeError(ctx context.Context, name string) error

	// MarkRunning records that a worker picked the node up.
	MarkRunning(ctx context.Context, name string) error

	// MarkCompleted stores the node's result and marks it completed.
	MarkCompleted(ctx context.Context, name string, result node.Result) error

	// MarkFailed stores the node's error and marks it failed.
	MarkFailed(ctx context.Context, name string, nodeErr error) error

	// MarkSkipped records why a node will not run and marks it skipped.
	MarkSkipped(ctx context.Context, name string, reason error) error
}
