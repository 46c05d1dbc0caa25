package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/fraudgrid/internal/node"
	"github.com/specialistvlad/fraudgrid/internal/nodestore"
)

// Store is a thread-safe, in-memory implementation of nodestore.Store.
type Store struct {
	states  sync.Map // Key: node name, Value: node.Status
	results sync.Map // Key: node name, Value: node.Result
	errors  sync.Map // Key: node name, Value: error
}

// New creates a new, empty in-memory node store.
func New() nodestore.Store {
	return &Store{}
}

func (s *Store) SetStatus(ctx context.Context, name string, status node.Status) error {
	s.states.Store(name, status)
	return nil
}

func (s *Store) GetStatus(ctx context.Context, name string) (node.Status, error) {
	status, ok := s.states.Load(name)
	if !ok {
		return node.StatusPending, nil
	}
	return status.(node.Status), nil
}

func (s *Store) SetResult(ctx context.Context, name string, result node.Result) error {
	s.results.Store(name, result)
	return nil
}

func (s *Store) GetResult(ctx context.Context, name string) (node.Result, bool, error) {
	result, ok := s.results.Load(name)
	if !ok {
		return node.Result{}, false, nil
	}
	return result.(node.Result), true, nil
}

func (s *Store) SetError(ctx context.Context, name string, nodeErr error) error {
	s.errors.Store(name, nodeErr)
	return nil
}

func (s *Store) GetError(ctx context.Context, name string) (error, error) {
	err, ok := s.errors.Load(name)
	if !ok {
		return nil, nil // If not found, there is no error.
	}
	return err.(error), nil
}
