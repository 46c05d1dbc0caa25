package graph

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/node"
	"github.com/specialistvlad/fraudgrid/internal/nodestore"
	"github.com/specialistvlad/fraudgrid/internal/topologystore"
)

// Manager provides a high-level, thread-safe interface to the workflow graph
// by composing the topology and node stores.
type Manager struct {
	topology topologystore.Store
	nodes    nodestore.Store
}

// New creates a new graph manager.
func New(ts topologystore.Store, ns nodestore.Store) *Manager {
	return &Manager{topology: ts, nodes: ns}
}

// Register adds a node to the topology.
func (m *Manager) Register(ctx context.Context, n *node.Node) error {
	return m.topology.AddNode(ctx, n)
}

// Connect adds an edge to the topology.
func (m *Manager) Connect(ctx context.Context, e topologystore.Edge) error {
	return m.topology.AddEdge(ctx, e)
}

func (m *Manager) Node(ctx context.Context, name string) (*node.Node, bool) {
	return m.topology.GetNode(ctx, name)
}

func (m *Manager) AllNodes(ctx context.Context) []*node.Node {
	return m.topology.AllNodes(ctx)
}

func (m *Manager) Incoming(ctx context.Context, name string) []topologystore.Edge {
	return m.topology.Incoming(ctx, name)
}

func (m *Manager) Outgoing(ctx context.Context, name string) []topologystore.Edge {
	return m.topology.Outgoing(ctx, name)
}

func (m *Manager) DependenciesOf(ctx context.Context, name string) ([]*node.Node, error) {
	if _, ok := m.topology.GetNode(ctx, name); !ok {
		return nil, fmt.Errorf("node '%s' not found in topology", name)
	}

	var names []string
	for _, e := range m.topology.Incoming(ctx, name) {
		if !slices.Contains(names, e.From) {
			names = append(names, e.From)
		}
	}

	deps := make([]*node.Node, 0, len(names))
	for _, depName := range names {
		dep, ok := m.topology.GetNode(ctx, depName)
		if !ok {
			return nil, fmt.Errorf("dependency '%s' of node '%s' not found in topology", depName, name)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func (m *Manager) NodeStatus(ctx context.Context, name string) (node.Status, error) {
	return m.nodes.GetStatus(ctx, name)
}

func (m *Manager) Result(ctx context.Context, name string) (node.Result, bool) {
	result, ok, err := m.nodes.GetResult(ctx, name)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to read node result.", "node", name, "error", err)
		return node.Result{}, false
	}
	return result, ok
}

func (m *Manager) NodeError(ctx context.Context, name string) error {
	nodeErr, err := m.nodes.GetError(ctx, name)
	if err != nil {
		return err
	}
	return nodeErr
}

func (m *Manager) MarkRunning(ctx context.Context, name string) error {
	return m.nodes.SetStatus(ctx, name, node.StatusRunning)
}

func (m *Manager) MarkCompleted(ctx context.Context, name string, result node.Result) error {
	if err := m.nodes.SetResult(ctx, name, result); err != nil {
		return err
	}
	return m.nodes.SetStatus(ctx, name, node.StatusCompleted)
}

func (m *Manager) MarkFailed(ctx context.Context, name string, nodeErr error) error {
	if err := m.nodes.SetError(ctx, name, nodeErr); err != nil {
		return err
	}
	return m.nodes.SetStatus(ctx, name, node.StatusFailed)
}

func (m *Manager) MarkSkipped(ctx context.Context, name string, reason error) error {
	if reason != nil {
		if err := m.nodes.SetError(ctx, name, reason); err != nil {
			return err
		}
	}
	return m.nodes.SetStatus(ctx, name, node.StatusSkipped)
}
