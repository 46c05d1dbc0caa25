package scheduler

import "context"

// Progress lists the nodes whose fate was decided by one event.
type Progress struct {
	// Ready nodes can be dispatched now, in topological order.
	Ready []string
	// Skipped nodes will never run.
	Skipped []string
}

// Scheduler decides which nodes run next.
type Scheduler interface {
	// Start returns the nodes ready at the beginning of a run.
	Start(ctx context.Context) []string

	// Complete records that a node finished with the given branch label and
	// returns what that unlocked.
	Complete(ctx context.Context, name, label string) (Progress, error)

	// Fail records that a node failed. Every node downstream of it is skipped.
	Fail(ctx context.Context, name string) []string

	// Pending returns nodes that have neither been dispatched nor skipped.
	Pending(ctx context.Context) []string
}
