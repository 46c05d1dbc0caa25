package localexecutor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/state"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, jobs <-chan job, results chan<- result, done chan<- struct{}, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for j := range jobs {
		workerLogger := logger.With("workerID", workerID, "node", j.node.Name)
		results <- e.execute(ctx, j, workerLogger)
	}

	logger.Debug("Worker finished.", "workerID", workerID)
	done <- struct{}{}
}

// execute runs one node body, then its branch decision if it has one.
func (e *Executor) execute(ctx context.Context, j job, logger *slog.Logger) result {
	start := time.Now()
	res := result{name: j.node.Name}

	if ctx.Err() != nil {
		logger.Warn("Context canceled, skipping node execution.")
		res.err = ctx.Err()
		return res
	}
	logger.Debug("Worker picked up node for execution.")

	nodeCtx, span := e.tracer.Start(ctx, "fraudgrid.node", trace.WithAttributes(
		attribute.String("node.name", j.node.Name),
	))
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		nodeCtx, cancel = context.WithTimeout(nodeCtx, e.timeout)
		defer cancel()
	}
	nodeCtx = ctxlog.WithLogger(nodeCtx, logger)

	res.partial, res.err = invoke(nodeCtx, j)
	if res.err == nil && j.node.Branch != nil {
		post, err := e.schema.Apply(j.snap, res.partial)
		if err != nil {
			res.err = fmt.Errorf("node '%s': %w", j.node.Name, err)
		} else {
			res.label, res.err = decide(j, post)
			if res.err == nil {
				span.SetAttributes(attribute.String("node.branch", res.label))
			}
		}
	}
	res.duration = time.Since(start)

	if res.err != nil {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
		span.SetAttributes(attribute.String("node.outcome", "failed"))
	} else {
		span.SetAttributes(attribute.String("node.outcome", "completed"))
	}
	return res
}

// invoke calls the node body and gives up when its context ends, so a body
// that ignores cancellation can not hang the run.
func invoke(ctx context.Context, j job) (state.Partial, error) {
	if j.node.Fn == nil {
		return nil, fmt.Errorf("node '%s' has no function", j.node.Name)
	}

	type outcome struct {
		partial state.Partial
		err     error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("node '%s' panicked: %v", j.node.Name, r)}
			}
		}()
		p, err := j.node.Fn(ctx, j.snap)
		ch <- outcome{partial: p, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, fmt.Errorf("node '%s': %w", j.node.Name, o.err)
		}
		return o.partial, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("node '%s' did not finish: %w", j.node.Name, ctx.Err())
	}
}

// decide runs the node's branch decision, turning a panic into an error.
func decide(j job, post state.Snapshot) (label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			label, err = "", fmt.Errorf("node '%s' branch panicked: %v", j.node.Name, r)
		}
	}()
	return j.node.Branch.Decide(post), nil
}
