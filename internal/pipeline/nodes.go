package pipeline

import (
	"context"
	"errors"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/fraud"
	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/risk"
	"github.com/specialistvlad/fraudgrid/internal/state"
	"github.com/specialistvlad/fraudgrid/internal/supervisor"
)

type nodes struct {
	deps Deps
}

func (n *nodes) ingest(ctx context.Context, snap state.Snapshot) (state.Partial, error) {
	descriptors, err := descriptorsFrom(snap.Get(ChannelSources))
	if err != nil {
		ce := model.ComputationError{Stage: NodeIngest, Message: err.Error()}
		return state.Partial{ChannelTransactionData: ce.Sentinel()}, nil
	}

	batch := n.deps.Sources.LoadAll(ctx, descriptors)
	for _, f := range batch.Failures {
		n.deps.Metrics.ObserveSourceFailure(f.Kind)
	}
	ctxlog.FromContext(ctx).Info("Ingestion finished.",
		"records", len(batch.Data), "loaded", len(batch.Loaded), "failed", len(batch.Failures))

	data := batch.Data
	if data == nil {
		data = []model.Record{}
	}
	columns := batch.Columns
	if columns == nil {
		columns = []string{}
	}
	loaded := batch.Loaded
	if loaded == nil {
		loaded = []string{}
	}
	return state.Partial{ChannelTransactionData: map[string]any{
		KeyData:    data,
		KeyColumns: columns,
		KeySources: loaded,
	}}, nil
}

func (n *nodes) analyze(ctx context.Context, snap state.Snapshot) (state.Partial, error) {
	td, _ := snap.Get(ChannelTransactionData).(map[string]any)
	if _, ok := model.AsSentinel(td); ok {
		return state.Partial{}, nil
	}
	records, err := model.RecordsFrom(td[KeyData])
	if err != nil {
		return analysisFailed(err), nil
	}

	out, err := n.deps.Analyst.Analyze(ctx, records)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		ctxlog.FromContext(ctx).Warn("Analysis failed, storing sentinel.", "error", err)
		return analysisFailed(err), nil
	}
	return state.Partial{ChannelTransactionData: map[string]any{KeyAnalysis: out}}, nil
}

func analysisFailed(err error) state.Partial {
	var ce model.ComputationError
	if !errors.As(err, &ce) {
		ce = model.ComputationError{Stage: NodeAnalyze, Message: err.Error()}
	}
	return state.Partial{ChannelTransactionData: map[string]any{KeyAnalysis: ce.Sentinel()}}
}

// detectInput returns the records to score, or the sentinel to forward.
func detectInput(snap state.Snapshot, stage string) ([]model.Record, *model.ComputationError) {
	td, _ := snap.Get(ChannelTransactionData).(map[string]any)
	if ce, ok := model.AsSentinel(td); ok {
		return nil, &ce
	}
	records, err := model.RecordsFrom(td[KeyData])
	if err != nil {
		return nil, &model.ComputationError{Stage: stage, Message: err.Error()}
	}
	return records, nil
}

func (n *nodes) detectFraud(ctx context.Context, snap state.Snapshot) (state.Partial, error) {
	records, ce := detectInput(snap, NodeDetectFraud)
	if ce != nil {
		return state.Partial{ChannelFraudData: []any{*ce}}, nil
	}

	flagged, err := fraud.Detect(records, n.deps.Known)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Fraud detection could not interpret input.", "error", err)
		return state.Partial{ChannelFraudData: []any{model.ComputationError{Stage: NodeDetectFraud, Message: err.Error()}}}, nil
	}

	items := make([]any, len(flagged))
	for i, f := range flagged {
		items[i] = f
		for _, reason := range f.Reasons {
			n.deps.Metrics.ObserveRule(reason)
		}
	}
	ctxlog.FromContext(ctx).Info("Fraud detection finished.", "records", len(records), "flagged", len(flagged))
	return state.Partial{ChannelFraudData: items}, nil
}

func (n *nodes) analyzeRisk(ctx context.Context, snap state.Snapshot) (state.Partial, error) {
	records, ce := detectInput(snap, NodeAnalyzeRisk)
	if ce != nil {
		return state.Partial{ChannelRiskReport: ce.Sentinel()}, nil
	}

	flagged, err := fraud.Detect(records, n.deps.Known)
	if err != nil {
		ce := model.ComputationError{Stage: NodeAnalyzeRisk, Message: err.Error()}
		return state.Partial{ChannelRiskReport: ce.Sentinel()}, nil
	}

	report := risk.Report(flagged)
	items := make([]any, len(flagged))
	for i, f := range flagged {
		items[i] = f
	}
	ctxlog.FromContext(ctx).Debug("Risk analysis finished.", "accounts", len(report.Accounts))
	return state.Partial{
		ChannelFraudData: items,
		ChannelRiskReport: map[string]any{
			KeyAccounts:     report.Accounts,
			KeyPresentation: report.Presentation,
		},
	}, nil
}

func (n *nodes) supervise(ctx context.Context, snap state.Snapshot) (state.Partial, error) {
	td, _ := snap.Get(ChannelTransactionData).(map[string]any)
	rr, _ := snap.Get(ChannelRiskReport).(map[string]any)
	items, _ := snap.Get(ChannelFraudData).([]any)

	var flagged []model.Flagged
	var sentinels []any
	for _, item := range items {
		if _, ok := model.AsSentinel(item); ok {
			sentinels = append(sentinels, item)
			continue
		}
		fs, err := model.FlaggedFrom([]any{item})
		if err != nil {
			sentinels = append(sentinels, model.ComputationError{Stage: NodeSupervise, Message: err.Error()})
			continue
		}
		flagged = append(flagged, fs...)
	}

	records, _ := model.RecordsFrom(td[KeyData])
	report := supervisor.Compose(td, flagged)
	out := state.Partial{}

	if ce, ok := model.FirstSentinel(append([]any{td, rr}, sentinels...)...); ok {
		ctxlog.FromContext(ctx).Warn("Forwarding upstream computation error.", "stage", ce.Stage, "error", ce.Message)
		report.Error = &ce
	}
	if _, ok := model.AsSentinel(rr); !ok {
		out[ChannelRiskReport] = map[string]any{
			KeyAccounts:     report.RiskReport.Accounts,
			KeyPresentation: report.RiskReport.Presentation,
		}
	}
	out[ChannelFinalReport] = report

	ctxlog.FromContext(ctx).Info("Supervisor composed final report.",
		"transactions", len(records), "flagged", len(report.FraudData), "accounts", len(report.RiskReport.Accounts))
	return out, nil
}
