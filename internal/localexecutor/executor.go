// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface.
//
// Nodes run on a bounded worker pool. A single coordinator goroutine owns the
// state store: it receives every finished partial, validates it, asks the
// scheduler what became ready and commits partials strictly in topological
// order. A node's snapshot is the fold of its ancestors' partials only, so a
// join sees the same state however its predecessors were interleaved.
package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/executor"
	"github.com/specialistvlad/fraudgrid/internal/graph"
	"github.com/specialistvlad/fraudgrid/internal/metrics"
	"github.com/specialistvlad/fraudgrid/internal/node"
	"github.com/specialistvlad/fraudgrid/internal/scheduler"
	"github.com/specialistvlad/fraudgrid/internal/state"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/specialistvlad/fraudgrid/localexecutor"

// errRunAborted marks nodes left undecided after a failure stopped the run.
var errRunAborted = errors.New("skipped, run aborted")

// Executor implements the executor.Executor interface for local execution.
type Executor struct {
	graph   graph.Graph
	sched   scheduler.Scheduler
	schema  state.Schema
	workers int
	timeout time.Duration
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// New creates a new local executor.
func New(g graph.Graph, sched scheduler.Scheduler, schema state.Schema, opts executor.Options) executor.Executor {
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Executor{
		graph:   g,
		sched:   sched,
		schema:  schema,
		workers: opts.WorkerCount(),
		timeout: opts.NodeTimeout,
		metrics: opts.Metrics,
		tracer:  tp.Tracer(tracerName),
	}
}

type job struct {
	node *node.Node
	snap state.Snapshot
}

type result struct {
	name     string
	partial  state.Partial
	label    string
	err      error
	duration time.Duration
}

// run is the coordinator's bookkeeping for one Execute call.
type run struct {
	order    []string
	base     state.Snapshot
	store    *state.Store
	cursor   int
	inflight int
	jobs     chan job
	failed   []string
	rootErr  error
	cancel   context.CancelFunc
}

// Execute runs the graph to completion and returns the committed final state.
func (e *Executor) Execute(ctx context.Context, store *state.Store) (state.Snapshot, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := e.graph.TopologicalOrder(ctx)
	if err != nil {
		return state.Snapshot{}, err
	}

	ctx, span := e.tracer.Start(ctx, "fraudgrid.run", trace.WithAttributes(
		attribute.Int("run.nodes", len(order)),
		attribute.Int("run.workers", e.workers),
	))
	defer span.End()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{
		order:  order,
		base:   store.Snapshot(),
		store:  store,
		jobs:   make(chan job, len(order)),
		cancel: cancel,
	}
	results := make(chan result, len(order))

	logger.Debug("Starting worker pool.", "workers", e.workers)
	done := make(chan struct{})
	for i := 0; i < e.workers; i++ {
		go e.worker(runCtx, r.jobs, results, done, i)
	}

	e.dispatch(ctx, r, e.sched.Start(ctx))

	for r.inflight > 0 {
		res := <-results
		r.inflight--
		e.handle(ctx, r, res)
	}
	close(r.jobs)
	for i := 0; i < e.workers; i++ {
		<-done
	}

	for _, name := range e.sched.Pending(ctx) {
		_ = e.graph.MarkSkipped(ctx, name, errRunAborted)
	}

	if r.rootErr != nil {
		span.RecordError(r.rootErr)
		span.SetStatus(codes.Error, r.rootErr.Error())
		return state.Snapshot{}, fmt.Errorf("execution failed for %s: %w", strings.Join(r.failed, ", "), r.rootErr)
	}

	if err := e.commitReady(ctx, r); err != nil {
		return state.Snapshot{}, err
	}
	logger.Debug("All nodes completed.", "commits", store.Commits())
	return store.Snapshot(), nil
}

// handle processes one finished node on the coordinator goroutine.
func (e *Executor) handle(ctx context.Context, r *run, res result) {
	logger := ctxlog.FromContext(ctx).With("node", res.name)

	if res.err == nil {
		n, _ := e.graph.Node(ctx, res.name)
		if err := e.schema.Check(res.partial, n.Writes); err != nil {
			res.err = fmt.Errorf("node '%s': %w", res.name, err)
		}
	}
	if res.err != nil {
		e.fail(ctx, r, res.name, res.err, res.duration)
		return
	}

	_ = e.graph.MarkCompleted(ctx, res.name, node.Result{Partial: res.partial, Label: res.label})
	logger.Debug("Node execution succeeded.", "label", res.label, "duration", res.duration)

	progress, err := e.sched.Complete(ctx, res.name, res.label)
	if err != nil {
		e.fail(ctx, r, res.name, err, res.duration)
		return
	}
	e.metrics.ObserveNode(res.name, metrics.OutcomeCompleted, res.duration)
	for _, name := range progress.Skipped {
		e.metrics.ObserveNode(name, metrics.OutcomeSkipped, 0)
	}

	if err := e.commitReady(ctx, r); err != nil {
		e.fail(ctx, r, res.name, err, 0)
		return
	}

	if r.rootErr != nil {
		for _, name := range progress.Ready {
			_ = e.graph.MarkSkipped(ctx, name, errRunAborted)
		}
		return
	}
	e.dispatch(ctx, r, progress.Ready)
}

// dispatch builds each ready node's snapshot and queues it for a worker.
func (e *Executor) dispatch(ctx context.Context, r *run, ready []string) {
	for _, name := range ready {
		n, ok := e.graph.Node(ctx, name)
		if !ok {
			e.fail(ctx, r, name, fmt.Errorf("node '%s' not found in topology", name), 0)
			continue
		}
		snap, err := e.snapshotFor(ctx, r, name)
		if err != nil {
			e.fail(ctx, r, name, err, 0)
			continue
		}
		_ = e.graph.MarkRunning(ctx, name)
		r.inflight++
		r.jobs <- job{node: n, snap: snap}
	}
}

// snapshotFor folds the partials of name's ancestors over the base state.
func (e *Executor) snapshotFor(ctx context.Context, r *run, name string) (state.Snapshot, error) {
	ancestors := e.graph.Ancestors(ctx, name)
	var partials []state.Partial
	for _, candidate := range r.order {
		if _, ok := ancestors[candidate]; !ok {
			continue
		}
		if res, ok := e.graph.Result(ctx, candidate); ok {
			partials = append(partials, res.Partial)
		}
	}
	return e.schema.Apply(r.base, partials...)
}

// commitReady advances the commit cursor over every node whose fate is known.
func (e *Executor) commitReady(ctx context.Context, r *run) error {
	for r.cursor < len(r.order) {
		name := r.order[r.cursor]
		status, err := e.graph.NodeStatus(ctx, name)
		if err != nil {
			return err
		}
		switch status {
		case node.StatusCompleted:
			res, _ := e.graph.Result(ctx, name)
			if err := r.store.Commit(res.Partial); err != nil {
				return fmt.Errorf("commit partial of '%s': %w", name, err)
			}
		case node.StatusSkipped:
		default:
			return nil
		}
		r.cursor++
	}
	return nil
}

// fail marks a node failed, skips everything downstream and stops dispatching.
func (e *Executor) fail(ctx context.Context, r *run, name string, err error, d time.Duration) {
	logger := ctxlog.FromContext(ctx)
	_ = e.graph.MarkFailed(ctx, name, err)
	e.metrics.ObserveNode(name, metrics.OutcomeFailed, d)

	// A cancellation caused by an earlier failure is a symptom, not a cause.
	if errors.Is(err, context.Canceled) && r.rootErr != nil {
		logger.Debug("Node stopped after run cancellation.", "node", name)
	} else {
		logger.Error("Node execution failed.", "node", name, "error", err)
		r.failed = append(r.failed, name)
		if r.rootErr == nil {
			r.rootErr = err
		}
	}
	r.cancel()

	for _, skipped := range e.sched.Fail(ctx, name) {
		e.metrics.ObserveNode(skipped, metrics.OutcomeSkipped, 0)
	}
}
