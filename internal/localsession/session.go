// Package localsession wires the in-memory stores, the default scheduler and
// the local executor into a session.Session.
package localsession

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/executor"
	"github.com/specialistvlad/fraudgrid/internal/graph"
	"github.com/specialistvlad/fraudgrid/internal/inmemorystore"
	"github.com/specialistvlad/fraudgrid/internal/localexecutor"
	"github.com/specialistvlad/fraudgrid/internal/scheduler"
	"github.com/specialistvlad/fraudgrid/internal/session"
	"github.com/specialistvlad/fraudgrid/internal/state"
	"github.com/specialistvlad/fraudgrid/internal/topologystore"
)

var errClosed = errors.New("session is closed")

// SessionFactory creates in-process sessions.
type SessionFactory struct {
	Options executor.Options
}

func (f *SessionFactory) NewSession(
	ctx context.Context,
	topology topologystore.Store,
	schema state.Schema,
	initial state.Snapshot,
) (session.Session, error) {
	id := uuid.NewString()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Creating session.", "run_id", id)

	g := graph.New(topology, inmemorystore.New())
	sched, err := scheduler.New(ctx, g)
	if err != nil {
		return nil, err
	}

	return &Session{
		id:       id,
		graph:    g,
		store:    state.NewStore(schema, initial),
		executor: localexecutor.New(g, sched, schema, f.Options),
	}, nil
}

// Session is a local, in-memory run.
type Session struct {
	id       string
	graph    graph.Graph
	store    *state.Store
	executor executor.Executor
}

func (s *Session) ID() string { return s.id }

func (s *Session) GetExecutor() (executor.Executor, error) {
	if s.executor == nil {
		return nil, errClosed
	}
	return s.executor, nil
}

func (s *Session) Store() *state.Store { return s.store }

func (s *Session) Graph() graph.Graph { return s.graph }

// Close drops the run's state so nothing is carried into the next run.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Closing session.", "run_id", s.id)
	s.executor = nil
	s.store = nil
	s.graph = nil
	return nil
}
