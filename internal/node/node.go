// Package node defines the vertices of a workflow graph: a named function over
// an immutable state snapshot, the channels it is allowed to write, and an
// optional branch decision that routes control to one of its successors.
package node

import (
	"context"
	"slices"

	"github.com/specialistvlad/fraudgrid/internal/state"
)

// Func is a node body. It reads the snapshot it was given and returns only
// the channels it writes.
type Func func(ctx context.Context, snap state.Snapshot) (state.Partial, error)

// Decision picks a route label after a node has run. It sees the snapshot
// that includes the node's own partial.
type Decision func(snap state.Snapshot) string

// Branch routes control from a node to exactly one labelled successor.
type Branch struct {
	Decide Decision
	// Routes maps a label to the successor node it selects.
	Routes map[string]string
}

// Labels returns the route labels in sorted order.
func (b *Branch) Labels() []string {
	labels := make([]string, 0, len(b.Routes))
	for l := range b.Routes {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Node is a single vertex in the workflow graph.
type Node struct {
	// Name is unique within a graph.
	Name string
	// Fn is the node body.
	Fn Func
	// Writes lists the channels Fn may return.
	Writes []string
	// Branch is set when the node routes to a single successor by label.
	Branch *Branch
	// Index is the registration order, used to break ties deterministically.
	Index int
}

// New creates a node. The writes slice is copied.
func New(name string, fn Func, writes ...string) *Node {
	return &Node{Name: name, Fn: fn, Writes: slices.Clone(writes)}
}

// Status represents the execution state of a node within one run.
type Status int32

const (
	// StatusPending indicates the node is waiting for its incoming edges to resolve.
	StatusPending Status = iota
	// StatusRunning indicates the node is currently being executed by a worker.
	StatusRunning
	// StatusCompleted indicates the node ran and its partial was accepted.
	StatusCompleted
	// StatusFailed indicates the node returned an error.
	StatusFailed
	// StatusSkipped indicates the node was not run: every incoming edge was
	// dead or an upstream node failed.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final for the run.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// Result is what a completed node leaves behind for the rest of the run.
type Result struct {
	Partial state.Partial
	// Label is the branch label chosen, empty for nodes without a branch.
	Label string
}
