package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/state"
	"github.com/stretchr/testify/require"
)

// Sleeper produces node bodies that sleep and record their execution times.
type Sleeper struct {
	mu             sync.Mutex
	executionTimes map[string]ExecutionRecord
	sleepDuration  time.Duration
}

// NewSleeper creates a sleeper whose nodes each run for sleep.
func NewSleeper(sleep time.Duration) *Sleeper {
	return &Sleeper{
		executionTimes: make(map[string]ExecutionRecord),
		sleepDuration:  sleep,
	}
}

// Node returns a body that sleeps, records its run under name and appends
// name to the channel called channel.
func (s *Sleeper) Node(name, channel string) func(context.Context, state.Snapshot) (state.Partial, error) {
	return func(ctx context.Context, _ state.Snapshot) (state.Partial, error) {
		startTime := time.Now()
		select {
		case <-time.After(s.sleepDuration):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		endTime := time.Now()

		s.mu.Lock()
		s.executionTimes[name] = ExecutionRecord{Start: startTime, End: endTime}
		s.mu.Unlock()
		return state.Partial{channel: []any{name}}, nil
	}
}

// Record returns the execution record of name.
func (s *Sleeper) Record(name string) (ExecutionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.executionTimes[name]
	return r, ok
}

// AssertOverlap fails the test unless a and b ran concurrently.
func (s *Sleeper) AssertOverlap(t *testing.T, a, b string) {
	t.Helper()
	ra, okA := s.Record(a)
	rb, okB := s.Record(b)
	require.True(t, okA, "node %q did not run", a)
	require.True(t, okB, "node %q did not run", b)
	require.True(t, ra.Overlaps(rb), "expected %q and %q to run concurrently", a, b)
}

// AssertOrder fails the test unless first finished before second started.
func (s *Sleeper) AssertOrder(t *testing.T, first, second string) {
	t.Helper()
	rf, okF := s.Record(first)
	rs, okS := s.Record(second)
	require.True(t, okF, "node %q did not run", first)
	require.True(t, okS, "node %q did not run", second)
	require.False(t, rs.Start.Before(rf.End), "expected %q to start after %q finished", second, first)
}
