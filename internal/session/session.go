// Package session defines the lifecycle of a single workflow run. A session
// owns everything that must not outlive the run: the node store, the
// scheduler, the executor and the state store.
package session

import (
	"context"

	"github.com/specialistvlad/fraudgrid/internal/executor"
	"github.com/specialistvlad/fraudgrid/internal/graph"
	"github.com/specialistvlad/fraudgrid/internal/state"
	"github.com/specialistvlad/fraudgrid/internal/topologystore"
)

// SessionFactory creates sessions over a shared, validated topology.
type SessionFactory interface {
	NewSession(
		ctx context.Context,
		topology topologystore.Store,
		schema state.Schema,
		initial state.Snapshot,
	) (Session, error)
}

// Session is one run.
type Session interface {
	// ID uniquely identifies the run in logs and reports.
	ID() string
	GetExecutor() (executor.Executor, error)
	// Store is the run's state store, seeded with the initial snapshot.
	Store() *state.Store
	// Graph exposes the per-run view of the graph, mainly for inspection.
	Graph() graph.Graph
	Close(ctx context.Context) error
}
