package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/executor"
	"github.com/specialistvlad/fraudgrid/internal/graph"
	"github.com/specialistvlad/fraudgrid/internal/inmemorystore"
	"github.com/specialistvlad/fraudgrid/internal/inmemorytopology"
	"github.com/specialistvlad/fraudgrid/internal/localsession"
	"github.com/specialistvlad/fraudgrid/internal/metrics"
	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/node"
	"github.com/specialistvlad/fraudgrid/internal/session"
	"github.com/specialistvlad/fraudgrid/internal/state"
	"github.com/specialistvlad/fraudgrid/internal/topologystore"
	"go.opentelemetry.io/otel/trace"
)

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds how many nodes run concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.opts.Workers = n }
}

// WithNodeTimeout fails any node running longer than d.
func WithNodeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.opts.NodeTimeout = d }
}

// WithMetrics records node outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.opts.Metrics = m }
}

// WithTracerProvider sets the provider for run and node spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.opts.TracerProvider = tp }
}

// WithSessionFactory replaces the in-process session factory.
func WithSessionFactory(f session.SessionFactory) Option {
	return func(e *Engine) { e.factory = f }
}

// Engine holds a workflow graph and runs it.
type Engine struct {
	schema   state.Schema
	topology topologystore.Store
	graph    *graph.Manager
	opts     executor.Options
	factory  session.SessionFactory
}

// New creates an engine over a fixed channel schema.
func New(schema state.Schema, opts ...Option) *Engine {
	topology := inmemorytopology.New()
	e := &Engine{
		schema:   schema,
		topology: topology,
		graph:    graph.New(topology, inmemorystore.New()),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.factory == nil {
		e.factory = &localsession.SessionFactory{Options: e.opts}
	}
	return e
}

// Schema returns the engine's channel schema.
func (e *Engine) Schema() state.Schema { return e.schema }

// AddNode registers a node that may write the listed channels.
func (e *Engine) AddNode(name string, fn node.Func, writes ...string) error {
	if name == "" {
		return model.NewConfigurationError("node name cannot be empty")
	}
	if fn == nil {
		return model.NewConfigurationError("node has no function", name)
	}
	for _, ch := range writes {
		if _, ok := e.schema.Channel(ch); !ok {
			return model.NewConfigurationError(fmt.Sprintf("node writes undeclared channel %q", ch), name)
		}
	}
	ctx := context.Background()
	if _, exists := e.graph.Node(ctx, name); !exists {
		if cycle := e.cycleOnRegister(ctx, name); cycle != nil {
			return &model.ConfigurationError{Reason: "cycle detected", Cycle: cycle}
		}
	}
	if err := e.graph.Register(ctx, node.New(name, fn, writes...)); err != nil {
		return model.NewConfigurationError(err.Error(), name)
	}
	return nil
}

// cycleOnRegister reports the cycle that registering name would close through
// edges declared before the node existed.
func (e *Engine) cycleOnRegister(ctx context.Context, name string) []string {
	registered := func(n string) bool {
		_, ok := e.graph.Node(ctx, n)
		return ok || n == name
	}
	for _, out := range e.graph.Outgoing(ctx, name) {
		if !registered(out.To) {
			continue
		}
		if out.To == name {
			return []string{name, name}
		}
		for _, in := range e.graph.Incoming(ctx, name) {
			if !registered(in.From) {
				continue
			}
			if path := e.graph.PathTo(ctx, out.To, in.From); path != nil {
				return append(append([]string{name}, path...), name)
			}
		}
	}
	return nil
}

// AddEdge declares that to depends on from. An edge that would close a cycle
// between registered nodes is rejected immediately.
func (e *Engine) AddEdge(from, to string) error {
	return e.connect(topologystore.Edge{From: from, To: to})
}

// AddBranch attaches a decision to from. After from runs, decide picks a
// label and only the successor routed by that label stays live.
func (e *Engine) AddBranch(from string, decide node.Decision, routes map[string]string) error {
	ctx := context.Background()
	n, ok := e.graph.Node(ctx, from)
	if !ok {
		return model.NewConfigurationError("branch on unregistered node", from)
	}
	if n.Branch != nil {
		return model.NewConfigurationError("node already has a branch", from)
	}
	if decide == nil || len(routes) == 0 {
		return model.NewConfigurationError("branch has no decision or routes", from)
	}

	branch := &node.Branch{Decide: decide, Routes: make(map[string]string, len(routes))}
	for label, target := range routes {
		if label == "" {
			return model.NewConfigurationError("branch label cannot be empty", from)
		}
		branch.Routes[label] = target
	}
	// Every route is checked before any is connected so a rejected branch
	// leaves no labelled edges behind.
	for _, label := range branch.Labels() {
		if err := e.checkCycle(ctx, topologystore.Edge{From: from, To: branch.Routes[label], Label: label}); err != nil {
			return err
		}
	}
	for _, label := range branch.Labels() {
		if err := e.graph.Connect(ctx, topologystore.Edge{From: from, To: branch.Routes[label], Label: label}); err != nil {
			return model.NewConfigurationError(err.Error(), from)
		}
	}
	n.Branch = branch
	return nil
}

func (e *Engine) connect(edge topologystore.Edge) error {
	ctx := context.Background()
	if err := e.checkCycle(ctx, edge); err != nil {
		return err
	}
	return e.graph.Connect(ctx, edge)
}

// checkCycle rejects an edge between registered nodes that would close a cycle.
func (e *Engine) checkCycle(ctx context.Context, edge topologystore.Edge) error {
	_, fromOK := e.graph.Node(ctx, edge.From)
	_, toOK := e.graph.Node(ctx, edge.To)
	if !fromOK || !toOK {
		return nil
	}
	if back := e.graph.PathTo(ctx, edge.To, edge.From); back != nil {
		return &model.ConfigurationError{Reason: "cycle detected", Cycle: append([]string{edge.From}, back...)}
	}
	return nil
}

// Validate checks the whole graph without running it.
func (e *Engine) Validate(ctx context.Context) error {
	return e.graph.Validate(ctx)
}

// Run executes the graph once. initial overrides the schema defaults for the
// channels it names.
func (e *Engine) Run(ctx context.Context, initial map[string]any) (state.Snapshot, error) {
	logger := ctxlog.FromContext(ctx)

	if err := e.Validate(ctx); err != nil {
		return state.Snapshot{}, err
	}
	for name := range initial {
		if _, ok := e.schema.Channel(name); !ok {
			return state.Snapshot{}, model.NewConfigurationError(fmt.Sprintf("initial state names undeclared channel %q", name))
		}
	}

	sess, err := e.factory.NewSession(ctx, e.topology, e.schema, e.schema.Defaults().Overlay(initial))
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() {
		if err := sess.Close(ctx); err != nil {
			logger.Error("Failed to close session.", "run_id", sess.ID(), "error", err)
		}
	}()

	ctx = ctxlog.WithLogger(ctx, logger.With("run_id", sess.ID()))
	exec, err := sess.GetExecutor()
	if err != nil {
		return state.Snapshot{}, err
	}

	final, err := exec.Execute(ctx, sess.Store())
	e.opts.Metrics.ObserveRun(err)
	return final, err
}
