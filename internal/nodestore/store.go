// Package nodestore defines the storage contract for the mutable, per-run
// state of graph nodes: status, result and error. A fresh store is created for
// every run and discarded afterwards.
package nodestore

import (
	"context"

	"github.com/specialistvlad/fraudgrid/internal/node"
)

// Store is the interface for node execution state.
//
// Implementations MUST be safe for concurrent use.
type Store interface {
	// SetStatus records a node's status.
	SetStatus(ctx context.Context, name string, status node.Status) error

	// GetStatus returns a node's status, StatusPending when never set.
	GetStatus(ctx context.Context, name string) (node.Status, error)

	// SetResult stores what a completed node produced.
	SetResult(ctx context.Context, name string, result node.Result) error

	// GetResult returns a node's result and whether one was stored.
	GetResult(ctx context.Context, name string) (node.Result, bool, error)

	// SetError records why a node failed or was skipped.
	SetError(ctx context.Context, name string, nodeErr error) error

	// GetError returns the recorded error, nil when there is none.
	GetError(ctx context.Context, name string) (error, error)
}
