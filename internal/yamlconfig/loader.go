// Package yamlconfig implements config.Loader for YAML files.
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/fraudgrid/internal/config"
	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/source"
	"gopkg.in/yaml.v3"
)

// file mirrors the layout of a YAML configuration file.
type file struct {
	Engine struct {
		Workers     int    `yaml:"workers"`
		NodeTimeout string `yaml:"node_timeout"`
	} `yaml:"engine"`
	Analyst struct {
		Kind    string            `yaml:"kind"`
		URL     string            `yaml:"url"`
		Headers map[string]string `yaml:"headers"`
	} `yaml:"analyst"`
	Output struct {
		Dir           string   `yaml:"dir"`
		Formats       []string `yaml:"formats"`
		SocketIOURL   string   `yaml:"socketio_url"`
		SocketIOEvent string   `yaml:"socketio_event"`
	} `yaml:"output"`
	Accounts map[string][]string `yaml:"accounts"`
	Sources  []source.Descriptor `yaml:"sources"`
}

// Loader reads configuration from YAML files.
type Loader struct{}

// NewLoader creates a YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads each path in order and merges the results.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	if len(paths) == 0 {
		return nil, errors.New("no configuration paths given")
	}

	model := config.NewModel()
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration path %s does not exist", path)
			}
			return nil, err
		}
		part, err := decode(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
		}
		if err := model.Merge(part); err != nil {
			return nil, fmt.Errorf("in %s: %w", path, err)
		}
	}
	model.Finalize()

	logger.Debug("YAML loading complete.", "sources", len(model.Sources), "accounts", len(model.Accounts))
	return model, nil
}

func decode(raw []byte) (*config.Model, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	timeout, err := config.ParseDuration("node_timeout", f.Engine.NodeTimeout)
	if err != nil {
		return nil, err
	}

	m := config.NewModel()
	m.Engine = config.Engine{Workers: f.Engine.Workers, NodeTimeout: timeout}
	m.Analyst = config.Analyst{Kind: f.Analyst.Kind, URL: f.Analyst.URL, Headers: f.Analyst.Headers}
	m.Output = config.Output{
		Dir:           f.Output.Dir,
		Formats:       f.Output.Formats,
		SocketIOURL:   f.Output.SocketIOURL,
		SocketIOEvent: f.Output.SocketIOEvent,
	}
	for account, countries := range f.Accounts {
		m.Accounts[account] = countries
	}
	for _, d := range f.Sources {
		if err := m.AddSource(d); err != nil {
			return nil, err
		}
	}
	return m, nil
}
