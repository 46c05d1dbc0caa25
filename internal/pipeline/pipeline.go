// Package pipeline wires the fraud analysis workflow onto the graph engine.
//
// The graph has five nodes:
//
//	ingest --analyze--> analyze --> detect_fraud --> supervise
//	   |                   \------> analyze_risk --> supervise
//	   \------empty------------------------------> supervise
//
// ingest loads every configured source and routes to analyze when it found
// records, or straight to supervise when it did not. detect_fraud and
// analyze_risk run in parallel off the same analysed data and both append to
// fraud_data; supervise is the join that reconciles their output.
//
// Stages that cannot interpret their input place a model.ComputationError
// sentinel into their channel instead of failing the run. Every downstream
// stage checks for a sentinel first and forwards it unchanged.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/fraudgrid/internal/analysis"
	"github.com/specialistvlad/fraudgrid/internal/engine"
	"github.com/specialistvlad/fraudgrid/internal/fraud"
	"github.com/specialistvlad/fraudgrid/internal/metrics"
	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/source"
	"github.com/specialistvlad/fraudgrid/internal/state"
)

// Channel names.
const (
	ChannelSources         = "transaction_data_sources"
	ChannelTransactionData = "transaction_data"
	ChannelFraudData       = "fraud_data"
	ChannelRiskReport      = "risk_report"
	ChannelFinalReport     = "final_report"
)

// Node names.
const (
	NodeIngest      = "ingest"
	NodeAnalyze     = "analyze"
	NodeDetectFraud = "detect_fraud"
	NodeAnalyzeRisk = "analyze_risk"
	NodeSupervise   = "supervise"
)

// Branch labels of the ingest node.
const (
	LabelAnalyze = "analyze"
	LabelEmpty   = "empty"
)

// Keys of the transaction_data and risk_report mappings.
const (
	KeyData         = "data"
	KeyColumns      = "columns"
	KeySources      = "sources"
	KeyAnalysis     = "analysis"
	KeyAccounts     = "accounts"
	KeyPresentation = "presentation"
)

// Schema returns the channel schema of the pipeline state.
func Schema() state.Schema {
	return state.MustSchema(
		state.Channel{Name: ChannelSources, Kind: state.Append, Default: []any{}},
		state.Channel{Name: ChannelTransactionData, Kind: state.Merge, Default: map[string]any{}},
		state.Channel{Name: ChannelFraudData, Kind: state.Append, Default: []any{}},
		state.Channel{Name: ChannelRiskReport, Kind: state.Merge, Default: map[string]any{}},
		state.Channel{Name: ChannelFinalReport, Kind: state.Replace},
	)
}

// Deps are the collaborators the pipeline nodes call into.
type Deps struct {
	Sources *source.Registry
	Analyst analysis.Analyst
	// Known maps accounts to the countries they usually transact from.
	Known   fraud.KnownLocations
	Metrics *metrics.Metrics
}

// Build registers the pipeline's nodes and edges on a new engine.
func Build(deps Deps, opts ...engine.Option) (*engine.Engine, error) {
	if deps.Sources == nil {
		deps.Sources = source.NewRegistry()
	}
	if deps.Analyst == nil {
		deps.Analyst = analysis.Stats{}
	}
	if deps.Metrics != nil {
		deps.Metrics.PresetRules(fraud.Reasons...)
		opts = append(opts, engine.WithMetrics(deps.Metrics))
	}

	n := &nodes{deps: deps}
	e := engine.New(Schema(), opts...)

	steps := []struct {
		name   string
		fn     func(context.Context, state.Snapshot) (state.Partial, error)
		writes []string
	}{
		{NodeIngest, n.ingest, []string{ChannelTransactionData}},
		{NodeAnalyze, n.analyze, []string{ChannelTransactionData}},
		{NodeDetectFraud, n.detectFraud, []string{ChannelFraudData}},
		{NodeAnalyzeRisk, n.analyzeRisk, []string{ChannelFraudData, ChannelRiskReport}},
		{NodeSupervise, n.supervise, []string{ChannelFinalReport, ChannelRiskReport}},
	}
	for _, s := range steps {
		if err := e.AddNode(s.name, s.fn, s.writes...); err != nil {
			return nil, err
		}
	}

	if err := e.AddBranch(NodeIngest, routeIngest, map[string]string{
		LabelAnalyze: NodeAnalyze,
		LabelEmpty:   NodeSupervise,
	}); err != nil {
		return nil, err
	}
	for _, edge := range [][2]string{
		{NodeAnalyze, NodeDetectFraud},
		{NodeAnalyze, NodeAnalyzeRisk},
		{NodeDetectFraud, NodeSupervise},
		{NodeAnalyzeRisk, NodeSupervise},
	} {
		if err := e.AddEdge(edge[0], edge[1]); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Initial returns the initial state for a run over descriptors.
func Initial(descriptors []source.Descriptor) map[string]any {
	items := make([]any, len(descriptors))
	for i, d := range descriptors {
		items[i] = d
	}
	return map[string]any{ChannelSources: items}
}

// Run executes the pipeline once and returns the final report together with
// the final state.
func Run(ctx context.Context, e *engine.Engine, descriptors []source.Descriptor) (model.Report, state.Snapshot, error) {
	final, err := e.Run(ctx, Initial(descriptors))
	if err != nil {
		return model.Report{}, final, err
	}
	report, ok := final.Get(ChannelFinalReport).(model.Report)
	if !ok {
		return model.Report{}, final, errors.New("run finished without a final report")
	}
	return report, final, nil
}

func routeIngest(snap state.Snapshot) string {
	td, _ := snap.Get(ChannelTransactionData).(map[string]any)
	records, err := model.RecordsFrom(td[KeyData])
	if err != nil || len(records) == 0 {
		return LabelEmpty
	}
	return LabelAnalyze
}

func descriptorsFrom(v any) ([]source.Descriptor, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("sources have type %T, want a list", v)
	}
	out := make([]source.Descriptor, 0, len(items))
	for i, item := range items {
		switch d := item.(type) {
		case source.Descriptor:
			out = append(out, d)
		case *source.Descriptor:
			out = append(out, *d)
		default:
			return nil, fmt.Errorf("source %d has type %T, want a source descriptor", i, item)
		}
	}
	return out, nil
}
