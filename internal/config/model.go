package config

import (
	"fmt"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/source"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration.
type Model struct {
	Sources []source.Descriptor
	// Accounts maps an account to the countries it usually transacts from.
	Accounts map[string][]string
	Analyst  Analyst
	Output   Output
	Engine   Engine
}

// Analyst selects the analysis delegate.
type Analyst struct {
	Kind    string
	URL     string
	Headers map[string]string
}

// Output controls where the final report goes.
type Output struct {
	// Dir receives the report files. Empty disables file output.
	Dir string
	// Formats lists the files to write: json, yaml, txt.
	Formats       []string
	SocketIOURL   string
	SocketIOEvent string
}

// Engine tunes graph execution.
type Engine struct {
	Workers     int
	NodeTimeout time.Duration
}

// DefaultFormats are written when a configuration names none.
var DefaultFormats = []string{"json", "txt"}

// DefaultSocketIOEvent is the event name the report is published under.
const DefaultSocketIOEvent = "fraud_report"

// NewModel returns an empty model with defaults applied.
func NewModel() *Model {
	return &Model{Accounts: make(map[string][]string)}
}

// Merge folds other into m. Sources and accounts accumulate; blocks that
// configure a single thing are replaced when other sets them.
func (m *Model) Merge(other *Model) error {
	for _, s := range other.Sources {
		if err := m.AddSource(s); err != nil {
			return err
		}
	}
	for account, countries := range other.Accounts {
		m.Accounts[account] = append(m.Accounts[account], countries...)
	}
	if other.Analyst.Kind != "" || other.Analyst.URL != "" {
		m.Analyst = other.Analyst
	}
	if other.Output.Dir != "" || len(other.Output.Formats) > 0 || other.Output.SocketIOURL != "" {
		m.Output = other.Output
	}
	if other.Engine.Workers != 0 {
		m.Engine.Workers = other.Engine.Workers
	}
	if other.Engine.NodeTimeout != 0 {
		m.Engine.NodeTimeout = other.Engine.NodeTimeout
	}
	return nil
}

// AddSource appends a source, rejecting a second source with the same kind
// and name.
func (m *Model) AddSource(d source.Descriptor) error {
	if d.Kind == "" {
		return fmt.Errorf("source %q has no kind", d.Name)
	}
	for _, existing := range m.Sources {
		if existing.Kind == d.Kind && existing.Name == d.Name {
			return fmt.Errorf("duplicate source %s %q", d.Kind, d.Name)
		}
	}
	m.Sources = append(m.Sources, d)
	return nil
}

// Finalize applies defaults that depend on the whole model.
func (m *Model) Finalize() {
	if len(m.Output.Formats) == 0 {
		m.Output.Formats = append([]string(nil), DefaultFormats...)
	}
	if m.Output.SocketIOEvent == "" {
		m.Output.SocketIOEvent = DefaultSocketIOEvent
	}
}

// ParseDuration parses an optional duration setting.
func ParseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, s)
	}
	return d, nil
}
