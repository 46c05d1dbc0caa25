package hcl

import (
	"context"
	"fmt"

	"github.com/specialistvlad/fraudgrid/internal/config"
	"github.com/specialistvlad/fraudgrid/internal/source"
)

// translate converts one decoded file into a partial model.
func (l *Loader) translate(ctx context.Context, root *fileRoot) (*config.Model, error) {
	m := config.NewModel()

	if e := root.Engine; e != nil {
		timeout, err := config.ParseDuration("node_timeout", e.NodeTimeout)
		if err != nil {
			return nil, err
		}
		m.Engine = config.Engine{Workers: e.Workers, NodeTimeout: timeout}
	}
	if a := root.Analyst; a != nil {
		m.Analyst = config.Analyst{Kind: a.Kind, URL: a.URL, Headers: a.Headers}
	}
	if o := root.Output; o != nil {
		m.Output = config.Output{
			Dir:           o.Dir,
			Formats:       o.Formats,
			SocketIOURL:   o.SocketIOURL,
			SocketIOEvent: o.SocketIOEvent,
		}
	}
	for _, a := range root.Accounts {
		m.Accounts[a.ID] = append(m.Accounts[a.ID], a.Countries...)
	}
	for _, s := range root.Sources {
		d, err := l.translateSource(ctx, s)
		if err != nil {
			return nil, err
		}
		if err := m.AddSource(d); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// translateSource converts a `source` block into a descriptor.
func (l *Loader) translateSource(ctx context.Context, s *sourceBlock) (source.Descriptor, error) {
	d := source.Descriptor{
		Kind:    s.Kind,
		Name:    s.Name,
		Path:    s.Path,
		URL:     s.URL,
		Headers: s.Headers,
		Driver:  s.Driver,
		DSN:     s.DSN,
		Query:   s.Query,
	}
	if isExprDefined(ctx, s.Records, "records") {
		records, err := recordsFromExpr(s.Records)
		if err != nil {
			return source.Descriptor{}, fmt.Errorf("source %s %q: %w", s.Kind, s.Name, err)
		}
		d.Records = records
	}
	return d, nil
}
