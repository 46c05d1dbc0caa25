package state

import (
	"fmt"
	"slices"
)

// Channel declares a named slot in the shared state.
type Channel struct {
	Name    string
	Kind    Kind
	Default any
}

// Schema is the fixed set of channels for an engine.
type Schema struct {
	channels map[string]Channel
	order    []string
}

// NewSchema validates and indexes the channel declarations.
func NewSchema(channels ...Channel) (Schema, error) {
	s := Schema{channels: make(map[string]Channel, len(channels))}
	for _, ch := range channels {
		if ch.Name == "" {
			return Schema{}, fmt.Errorf("channel name cannot be empty")
		}
		if _, exists := s.channels[ch.Name]; exists {
			return Schema{}, fmt.Errorf("channel %q declared twice", ch.Name)
		}
		if ch.Kind < Replace || ch.Kind > Merge {
			return Schema{}, fmt.Errorf("channel %q: invalid reducer %s", ch.Name, ch.Kind)
		}
		s.channels[ch.Name] = ch
		s.order = append(s.order, ch.Name)
	}
	return s, nil
}

// MustSchema is NewSchema for static declarations; it panics on error.
func MustSchema(channels ...Channel) Schema {
	s, err := NewSchema(channels...)
	if err != nil {
		panic(err)
	}
	return s
}

// Channel looks up a channel declaration.
func (s Schema) Channel(name string) (Channel, bool) {
	ch, ok := s.channels[name]
	return ch, ok
}

// Defaults returns the snapshot every run starts from.
func (s Schema) Defaults() Snapshot {
	values := make(map[string]any, len(s.order))
	for _, name := range s.order {
		values[name] = cloneValue(s.channels[name].Default)
	}
	return Snapshot{values: values}
}

// Check verifies a partial only writes channels in allowed.
func (s Schema) Check(p Partial, allowed []string) error {
	for name := range p {
		if _, ok := s.channels[name]; !ok {
			return fmt.Errorf("write to undeclared channel %q", name)
		}
		if !slices.Contains(allowed, name) {
			return fmt.Errorf("write to channel %q not declared by the node", name)
		}
	}
	return nil
}

// Apply folds partials into base in the given order and returns a new
// snapshot. base is left untouched.
func (s Schema) Apply(base Snapshot, partials ...Partial) (Snapshot, error) {
	values := make(map[string]any, len(base.values))
	for k, v := range base.values {
		values[k] = v
	}
	for _, p := range partials {
		for name := range p {
			if _, ok := s.channels[name]; !ok {
				return Snapshot{}, fmt.Errorf("write to undeclared channel %q", name)
			}
		}
		// Channels are folded in declaration order so errors are reported deterministically.
		for _, name := range s.order {
			update, ok := p[name]
			if !ok {
				continue
			}
			reduced, err := s.channels[name].Kind.Reducer()(values[name], update)
			if err != nil {
				return Snapshot{}, fmt.Errorf("channel %q: %w", name, err)
			}
			values[name] = reduced
		}
	}
	return Snapshot{values: values}, nil
}
