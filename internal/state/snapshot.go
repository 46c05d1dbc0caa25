package state

import (
	"encoding/json"
	"maps"
)

// Partial is the set of channel writes a node returns.
type Partial map[string]any

// Snapshot is an immutable view of every channel at a point in time.
type Snapshot struct {
	values map[string]any
}

// NewSnapshot builds a snapshot from raw channel values.
func NewSnapshot(values map[string]any) Snapshot {
	return Snapshot{values: maps.Clone(values)}
}

// Get returns a channel value. Sequences and mappings are copied so callers
// can not mutate the snapshot through them.
func (s Snapshot) Get(name string) any {
	return cloneValue(s.values[name])
}

// Map returns a shallow copy of every channel.
func (s Snapshot) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = cloneValue(v)
	}
	return out
}

// Overlay returns a snapshot where the given values replace the current ones.
func (s Snapshot) Overlay(values map[string]any) Snapshot {
	out := maps.Clone(s.values)
	if out == nil {
		out = make(map[string]any, len(values))
	}
	for k, v := range values {
		out[k] = v
	}
	return Snapshot{values: out}
}

// MarshalJSON renders the snapshot with channels sorted by name.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		copy(out, t)
		return out
	case map[string]any:
		return maps.Clone(t)
	default:
		return v
	}
}
