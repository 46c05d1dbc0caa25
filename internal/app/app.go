package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/fraudgrid/internal/analysis"
	"github.com/specialistvlad/fraudgrid/internal/config"
	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/engine"
	"github.com/specialistvlad/fraudgrid/internal/fraud"
	"github.com/specialistvlad/fraudgrid/internal/metrics"
	"github.com/specialistvlad/fraudgrid/internal/pipeline"
	"github.com/specialistvlad/fraudgrid/internal/report"
	"github.com/specialistvlad/fraudgrid/internal/source"
	"go.opentelemetry.io/otel"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	model      *config.Model
	metrics    *metrics.Metrics
	engine     *engine.Engine
	writer     *report.Writer
	publisher  *report.SocketPublisher
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the
// configuration file through the loader matching its extension and builds
// the pipeline graph.
func NewApp(outW io.Writer, appConfig *Config, loaders config.Loaders) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	loader, err := loaders.ForPath(appConfig.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfgModel, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "sources", len(cfgModel.Sources))

	analyst, err := analysis.New(cfgModel.Analyst.Kind, cfgModel.Analyst.URL, cfgModel.Analyst.Headers)
	if err != nil {
		return nil, fmt.Errorf("invalid analyst configuration: %w", err)
	}

	m := metrics.New()
	opts := []engine.Option{engine.WithTracerProvider(otel.GetTracerProvider())}
	if workers := firstPositive(appConfig.WorkerCount, cfgModel.Engine.Workers); workers > 0 {
		opts = append(opts, engine.WithWorkers(workers))
	}
	if timeout := firstPositive(appConfig.NodeTimeout, cfgModel.Engine.NodeTimeout); timeout > 0 {
		opts = append(opts, engine.WithNodeTimeout(timeout))
	}

	eng, err := pipeline.Build(pipeline.Deps{
		Sources: source.NewRegistry(),
		Analyst: analyst,
		Known:   fraud.KnownLocations(cfgModel.Accounts),
		Metrics: m,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	if err := eng.Validate(ctx); err != nil {
		return nil, err
	}
	logger.Debug("Pipeline graph built and validated.")

	a := &App{
		ctx:     ctx,
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		model:   cfgModel,
		metrics: m,
		engine:  eng,
	}
	if dir := firstNonEmpty(appConfig.OutDir, cfgModel.Output.Dir); dir != "" {
		a.writer = &report.Writer{Dir: dir, Formats: cfgModel.Output.Formats}
	}
	if cfgModel.Output.SocketIOURL != "" {
		a.publisher = &report.SocketPublisher{URL: cfgModel.Output.SocketIOURL, Event: cfgModel.Output.SocketIOEvent}
	}
	return a, nil
}

// Metrics returns the application's metrics. This is primarily for testing.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func firstPositive[T ~int | ~int64](values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
