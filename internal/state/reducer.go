package state

import (
	"fmt"
	"maps"
)

// Kind selects a channel's reducer.
type Kind int

const (
	// Replace overwrites the channel value.
	Replace Kind = iota
	// Append concatenates sequences, preserving order.
	Append
	// Merge performs a shallow right-biased union of mappings.
	Merge
)

func (k Kind) String() string {
	switch k {
	case Replace:
		return "replace"
	case Append:
		return "append"
	case Merge:
		return "merge"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Reducer folds an update into the current channel value.
type Reducer func(old, update any) (any, error)

// Reducer returns the reducer for the kind.
func (k Kind) Reducer() Reducer {
	switch k {
	case Append:
		return appendReducer
	case Merge:
		return mergeReducer
	default:
		return replaceReducer
	}
}

func replaceReducer(_, update any) (any, error) {
	return update, nil
}

// appendReducer concatenates []any values. Any other update is appended as a
// single element.
func appendReducer(old, update any) (any, error) {
	var current []any
	switch t := old.(type) {
	case nil:
	case []any:
		current = t
	default:
		return nil, fmt.Errorf("append: existing value has type %T, want []any", old)
	}

	var items []any
	switch t := update.(type) {
	case nil:
		return cloneSlice(current), nil
	case []any:
		items = t
	default:
		items = []any{update}
	}

	out := make([]any, 0, len(current)+len(items))
	out = append(out, current...)
	out = append(out, items...)
	return out, nil
}

func mergeReducer(old, update any) (any, error) {
	var current map[string]any
	switch t := old.(type) {
	case nil:
	case map[string]any:
		current = t
	default:
		return nil, fmt.Errorf("merge: existing value has type %T, want map[string]any", old)
	}

	incoming, ok := update.(map[string]any)
	if !ok && update != nil {
		return nil, fmt.Errorf("merge: update has type %T, want map[string]any", update)
	}

	out := make(map[string]any, len(current)+len(incoming))
	maps.Copy(out, current)
	maps.Copy(out, incoming)
	return out, nil
}

func cloneSlice(s []any) []any {
	if s == nil {
		return []any{}
	}
	out := make([]any, len(s))
	copy(out, s)
	return out
}
