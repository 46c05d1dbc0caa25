package state

import "sync"

// Store holds the running state of one workflow run. Only the engine writes to
// it, and only through Commit.
type Store struct {
	mu      sync.RWMutex
	schema  Schema
	current Snapshot
	commits int
}

// NewStore creates a store seeded with the initial snapshot.
func NewStore(schema Schema, initial Snapshot) *Store {
	return &Store{schema: schema, current: initial}
}

// Commit folds a partial into the running state.
func (s *Store) Commit(p Partial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.schema.Apply(s.current, p)
	if err != nil {
		return err
	}
	s.current = next
	s.commits++
	return nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Commits returns how many partials were folded in.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}
