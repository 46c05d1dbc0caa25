// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports a malformed workflow graph.
type ConfigurationError struct {
	Reason string
	// Nodes lists the node names involved, if any.
	Nodes []string
	// Cycle is the offending path for cycle errors, first node repeated at the end.
	Cycle []string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error: ")
	b.WriteString(e.Reason)
	if len(e.Cycle) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Cycle, " -> "))
	} else if len(e.Nodes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Nodes, ", "))
	}
	return b.String()
}

// NewConfigurationError builds a ConfigurationError for the given nodes.
func NewConfigurationError(reason string, nodes ...string) *ConfigurationError {
	return &ConfigurationError{Reason: reason, Nodes: nodes}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// SourceError reports a single ingestion source that could not be loaded.
type SourceError struct {
	Source string
	Kind   string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %q (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ComputationError is the {"error": ...} sentinel a stage writes into its
// channel when it cannot interpret its input.
type ComputationError struct {
	Stage   string `json:"stage,omitempty" yaml:"stage,omitempty"`
	Message string `json:"error" yaml:"error"`
}

func (e ComputationError) Error() string {
	if e.Stage == "" {
		return e.Message
	}
	return e.Stage + ": " + e.Message
}

// Sentinel renders the error as the mapping placed into merge-mapping channels.
func (e ComputationError) Sentinel() map[string]any {
	m := map[string]any{"error": e.Message}
	if e.Stage != "" {
		m["stage"] = e.Stage
	}
	return m
}

// AsSentinel extracts a ComputationError from a channel value. It recognises
// both the typed value and its mapping form.
func AsSentinel(v any) (ComputationError, bool) {
	switch t := v.(type) {
	case ComputationError:
		return t, true
	case *ComputationError:
		if t != nil {
			return *t, true
		}
	case map[string]any:
		raw, ok := t["error"]
		if !ok {
			return ComputationError{}, false
		}
		ce := ComputationError{Message: fmt.Sprint(raw)}
		if stage, ok := t["stage"].(string); ok {
			ce.Stage = stage
		}
		return ce, true
	}
	return ComputationError{}, false
}

// FirstSentinel returns the first sentinel found among values.
func FirstSentinel(values ...any) (ComputationError, bool) {
	for _, v := range values {
		if ce, ok := AsSentinel(v); ok {
			return ce, true
		}
		if items, ok := v.([]any); ok {
			if ce, ok := FirstSentinel(items...); ok {
				return ce, true
			}
		}
	}
	return ComputationError{}, false
}
