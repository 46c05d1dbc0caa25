// Package source loads transaction records from the places a run is told to
// look: CSV and JSON files, HTTP endpoints, SQL databases and records given
// inline in the configuration.
//
// Every failure is reported as a *model.SourceError. Callers log it and skip
// the source; one bad source never stops a run.
package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/model"
)

// Supported source kinds.
const (
	KindCSV    = "csv"
	KindJSON   = "json"
	KindHTTP   = "http"
	KindSQL    = "sql"
	KindInline = "inline"
)

// Descriptor tells a loader where records come from.
type Descriptor struct {
	Kind string `json:"kind" yaml:"kind"`
	Name string `json:"name" yaml:"name"`
	// Path is a file for csv, json and sqlite sources.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// URL is the endpoint of an http source.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Headers are sent with http requests.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Driver is "sqlite" or "postgres" for sql sources.
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Query  string `json:"query,omitempty" yaml:"query,omitempty"`
	// Records are used verbatim by inline sources.
	Records []model.Record `json:"records,omitempty" yaml:"records,omitempty"`
}

// Label names the descriptor in logs and errors.
func (d Descriptor) Label() string {
	if d.Name != "" {
		return d.Name
	}
	for _, s := range []string{d.Path, d.URL, d.DSN} {
		if s != "" {
			return s
		}
	}
	return d.Kind
}

// Result is what one source produced.
type Result struct {
	Data    []model.Record
	Columns []string
}

// Loader loads one kind of source.
type Loader interface {
	Load(ctx context.Context, d Descriptor) (Result, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, d Descriptor) (Result, error)

func (f LoaderFunc) Load(ctx context.Context, d Descriptor) (Result, error) { return f(ctx, d) }

// Registry maps source kinds to loaders.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

// NewRegistry creates a registry with every built-in loader.
func NewRegistry() *Registry {
	r := &Registry{loaders: make(map[string]Loader)}
	r.Register(KindCSV, LoaderFunc(loadCSV))
	r.Register(KindJSON, LoaderFunc(loadJSONFile))
	r.Register(KindHTTP, NewHTTPLoader(nil))
	r.Register(KindSQL, LoaderFunc(loadSQL))
	r.Register(KindInline, LoaderFunc(loadInline))
	return r
}

// Register adds or replaces the loader for a kind.
func (r *Registry) Register(kind string, l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[kind] = l
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.loaders))
	for k := range r.loaders {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Load loads one source. Any failure is returned as a *model.SourceError.
func (r *Registry) Load(ctx context.Context, d Descriptor) (Result, error) {
	r.mu.RLock()
	l, ok := r.loaders[d.Kind]
	r.mu.RUnlock()
	if !ok {
		return Result{}, &model.SourceError{Source: d.Label(), Kind: d.Kind, Err: fmt.Errorf("unsupported source kind, want one of %v", r.Kinds())}
	}

	res, err := l.Load(ctx, d)
	if err != nil {
		return Result{}, &model.SourceError{Source: d.Label(), Kind: d.Kind, Err: err}
	}
	if len(res.Columns) == 0 {
		res.Columns = columnsOf(res.Data)
	}
	return res, nil
}

// Batch is the combined output of several sources.
type Batch struct {
	Data    []model.Record
	Columns []string
	// Loaded names the sources that succeeded, in order.
	Loaded []string
	// Failures holds the sources that were skipped.
	Failures []*model.SourceError
}

// LoadAll loads every descriptor in order. Failing sources are logged and
// skipped; the records of the others are concatenated in descriptor order.
func (r *Registry) LoadAll(ctx context.Context, descriptors []Descriptor) Batch {
	logger := ctxlog.FromContext(ctx)
	var b Batch
	for _, d := range descriptors {
		res, err := r.Load(ctx, d)
		if err != nil {
			var srcErr *model.SourceError
			if !errors.As(err, &srcErr) {
				srcErr = &model.SourceError{Source: d.Label(), Kind: d.Kind, Err: err}
			}
			logger.Warn("Source failed, skipping.", "source", srcErr.Source, "kind", srcErr.Kind, "error", srcErr.Err)
			b.Failures = append(b.Failures, srcErr)
			continue
		}
		logger.Info("Source loaded.", "source", d.Label(), "kind", d.Kind, "records", len(res.Data))
		b.Data = append(b.Data, res.Data...)
		for _, c := range res.Columns {
			if !slices.Contains(b.Columns, c) {
				b.Columns = append(b.Columns, c)
			}
		}
		b.Loaded = append(b.Loaded, d.Label())
	}
	return b
}

// columnsOf lists record keys, each record's keys sorted, in first-seen order.
func columnsOf(records []model.Record) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range records {
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// recordsFromJSON accepts an array of objects, {"data": [...]} or an
// {"error": ...} payload, which is reported as a failure.
func recordsFromJSON(v any) ([]model.Record, error) {
	if m, ok := v.(map[string]any); ok {
		if msg, failed := m["error"]; failed {
			return nil, fmt.Errorf("source reported error: %v", msg)
		}
		inner, ok := m["data"]
		if !ok {
			return nil, fmt.Errorf("object payload has no data key")
		}
		v = inner
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("payload is %T, want an array of objects", v)
	}
	out := make([]model.Record, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d is %T, want an object", i, item)
		}
		out = append(out, model.Record(m))
	}
	return out, nil
}
