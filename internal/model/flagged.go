// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"encoding/json"
	"fmt"
)

// Flagged is a transaction annotated with the rules that fired on it.
type Flagged struct {
	Record    Record
	RiskScore float64
	Reasons   []string
}

// Fields flattens the record and its annotations into one mapping.
func (f Flagged) Fields() map[string]any {
	out := make(map[string]any, len(f.Record)+2)
	for k, v := range f.Record {
		out[k] = v
	}
	out["risk_score"] = f.RiskScore
	reasons := make([]string, len(f.Reasons))
	copy(reasons, f.Reasons)
	out["reasons"] = reasons
	return out
}

func (f Flagged) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Fields())
}

func (f Flagged) MarshalYAML() (any, error) {
	return f.Fields(), nil
}

// FlaggedFrom converts an append-sequence channel value into flagged records.
// Sentinels are not flagged records; callers check for them first.
func FlaggedFrom(v any) ([]Flagged, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []Flagged:
		return t, nil
	case []any:
		out := make([]Flagged, 0, len(t))
		for i, item := range t {
			switch f := item.(type) {
			case Flagged:
				out = append(out, f)
			case []Flagged:
				out = append(out, f...)
			default:
				return nil, fmt.Errorf("flagged record %d: unexpected type %T", i, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected flagged records type %T", v)
	}
}
