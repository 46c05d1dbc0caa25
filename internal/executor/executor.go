// Package executor defines the interface for the workflow execution engine.
package executor

import (
	"context"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/metrics"
	"github.com/specialistvlad/fraudgrid/internal/state"
	"go.opentelemetry.io/otel/trace"
)

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 4

// Executor is responsible for orchestrating one run of a workflow graph.
// It manages concurrency, interacts with the scheduler, and folds node
// partials into the run's state store.
type Executor interface {
	// Execute runs every eligible node and returns the final state.
	Execute(ctx context.Context, store *state.Store) (state.Snapshot, error)
}

// Options tunes an executor.
type Options struct {
	// Workers bounds how many nodes run at once.
	Workers int
	// NodeTimeout fails a node that runs longer than this. Zero disables it.
	NodeTimeout time.Duration
	// Metrics receives node outcomes. May be nil.
	Metrics *metrics.Metrics
	// TracerProvider creates the run and node spans. Nil uses the global provider.
	TracerProvider trace.TracerProvider
}

// WorkerCount returns the configured pool size or the default.
func (o Options) WorkerCount() int {
	if o.Workers <= 0 {
		return DefaultWorkers
	}
	return o.Workers
}
