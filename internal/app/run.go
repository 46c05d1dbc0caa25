package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/pipeline"
)

// Run executes the pipeline once, prints the readable report and persists
// the structured one.
func (a *App) Run(ctx context.Context) (model.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer func() { _ = a.closeHealthCheckServer() }()

	a.logger.Info("🚀 Starting pipeline run...", "sources", len(a.model.Sources))
	rep, _, err := pipeline.Run(ctx, a.engine, a.model.Sources)
	if err != nil {
		return model.Report{}, fmt.Errorf("execution failed: %w", err)
	}
	if rep.Error != nil {
		a.logger.Warn("Report carries an upstream computation error.", "stage", rep.Error.Stage, "error", rep.Error.Message)
	}
	a.logger.Info("🏁 Pipeline run finished.", "flagged", len(rep.FraudData), "accounts", len(rep.RiskReport.Accounts))

	fmt.Fprintln(a.outW, rep.Readable)

	if a.writer != nil {
		if _, err := a.writer.Write(ctx, rep); err != nil {
			return rep, fmt.Errorf("failed to write reports: %w", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, rep); err != nil {
			return rep, fmt.Errorf("failed to publish report: %w", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return rep, nil
}
