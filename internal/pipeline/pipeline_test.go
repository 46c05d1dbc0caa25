package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/fraudgrid/internal/analysis"
	"github.com/specialistvlad/fraudgrid/internal/fraud"
	"github.com/specialistvlad/fraudgrid/internal/metrics"
	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/source"
	"github.com/specialistvlad/fraudgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingAnalyst struct{}

func (failingAnalyst) Analyze(context.Context, []model.Record) (any, error) {
	return nil, errors.New("analyst unavailable")
}

func build(t *testing.T, deps Deps) func(...source.Descriptor) (model.Report, map[string]any) {
	t.Helper()
	e, err := Build(deps)
	require.NoError(t, err)
	return func(descriptors ...source.Descriptor) (model.Report, map[string]any) {
		report, final, err := Run(context.Background(), e, descriptors)
		require.NoError(t, err)
		return report, final.Map()
	}
}

func TestRun_SkipsFailingSource(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := metrics.New()
	run := build(t, Deps{Metrics: m})
	first := testutil.Inline("first", testutil.Tx("T1", "A1", "2024-01-01", 10, ""), testutil.Tx("T2", "A1", "2024-01-02", 20, ""))
	broken := source.Descriptor{Kind: source.KindCSV, Name: "broken", Path: "/nonexistent/tx.csv"}
	second := testutil.Inline("second", testutil.Tx("T3", "A2", "2024-01-03", 30, ""))

	// --- Act ---
	_, final := run(first, broken, second)

	// --- Assert ---
	td := final[ChannelTransactionData].(map[string]any)
	records := td[KeyData].([]model.Record)
	assert.Equal(t, []string{"T1", "T2", "T3"}, testutil.IDs(records))
	assert.Equal(t, []string{"first", "second"}, td[KeySources])
	assert.Contains(t, td, KeyAnalysis)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.SourceFailures.WithLabelValues(source.KindCSV)))
}

func TestRun_SameDayDuplicates(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := metrics.New()
	run := build(t, Deps{Metrics: m})
	src := testutil.Inline("tx",
		testutil.Tx("T1", "A1", "2024-03-01", 500, ""),
		testutil.Tx("T2", "A1", "2024-03-01", 500, ""),
	)

	// --- Act ---
	report, final := run(src)

	// --- Assert ---
	require.Len(t, report.FraudData, 2, "both branches flag the pair, supervisor keeps one copy each")
	for _, f := range report.FraudData {
		assert.InDelta(t, 0.8, f.RiskScore, 1e-9)
		assert.Equal(t, []string{fraud.ReasonDuplicate}, f.Reasons)
	}
	require.Len(t, report.RiskReport.Accounts, 1)
	assert.Equal(t, "A1", report.RiskReport.Accounts[0].AccountID)
	assert.Equal(t, 2, report.RiskReport.Accounts[0].TotalFlagged)
	assert.Nil(t, report.Error)

	rr := final[ChannelRiskReport].(map[string]any)
	accounts := rr[KeyAccounts].([]model.AccountSummary)
	assert.Equal(t, 2, accounts[0].TotalFlagged)

	assert.Len(t, final[ChannelFraudData].([]any), 4, "fraud_data holds both branches' contributions before dedup")
	assert.Equal(t, 2.0, promtest.ToFloat64(m.Flagged.WithLabelValues(fraud.ReasonDuplicate)))

	want := "Account A1 has 2 flagged transactions:\n" +
		"  - ID: T1, Amount: 500, Date: 2024-03-01, Risk Score: 0.8, Reasons: Duplicate transaction same day\n" +
		"  - ID: T2, Amount: 500, Date: 2024-03-01, Risk Score: 0.8, Reasons: Duplicate transaction same day"
	assert.Equal(t, want, report.Readable)
}

func TestRun_ForeignLocationUsesKnownCountries(t *testing.T) {
	t.Parallel()

	run := build(t, Deps{Known: fraud.KnownLocations{"A1": {"US"}}})
	report, _ := run(testutil.Inline("tx",
		testutil.Tx("T1", "A1", "2024-03-01", 2500, "FR"),
		testutil.Tx("T2", "A2", "2024-03-01", 10, "FR"),
	))

	require.Len(t, report.FraudData, 1)
	assert.Equal(t, "T1", report.FraudData[0].Record.ID())
	assert.InDelta(t, 1.3, report.FraudData[0].RiskScore, 1e-9)
	assert.Equal(t, []string{fraud.ReasonHighAmount, fraud.ReasonForeignLocation}, report.FraudData[0].Reasons)
	assert.Equal(t, 62, report.RiskReport.Presentation["A1"])
}

func TestRun_NoRecordsRoutesStraightToSupervisor(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	m := metrics.New()
	run := build(t, Deps{Metrics: m})

	// --- Act ---
	report, final := run(source.Descriptor{Kind: source.KindJSON, Name: "gone", Path: "/nonexistent.json"})

	// --- Assert ---
	assert.Empty(t, report.FraudData)
	assert.Equal(t, "No flagged transactions.", report.Readable)
	assert.NotContains(t, final[ChannelTransactionData], KeyAnalysis)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.NodeExecutions.WithLabelValues(NodeAnalyze, metrics.OutcomeSkipped)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.NodeExecutions.WithLabelValues(NodeSupervise, metrics.OutcomeCompleted)))
}

func TestRun_AnalystFailureBecomesSentinel(t *testing.T) {
	t.Parallel()

	run := build(t, Deps{Analyst: failingAnalyst{}})
	report, final := run(testutil.Inline("tx", testutil.Tx("T1", "A1", "2024-03-01", 2500, "")))

	td := final[ChannelTransactionData].(map[string]any)
	ce, ok := model.AsSentinel(td[KeyAnalysis])
	require.True(t, ok)
	assert.Equal(t, NodeAnalyze, ce.Stage)
	assert.Equal(t, "analyst unavailable", ce.Message)
	assert.Len(t, report.FraudData, 1, "detection does not depend on the analysis output")
}

func TestRun_UninterpretableRecordsForwardSentinel(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	run := build(t, Deps{})
	bad := model.Record{model.FieldTransactionID: "T1", model.FieldAccountID: "A1", model.FieldAmount: 10.0}

	// --- Act ---
	report, final := run(testutil.Inline("tx", bad))

	// --- Assert ---
	require.NotNil(t, report.Error)
	assert.Contains(t, report.Error.Message, "date")
	assert.Empty(t, report.FraudData)

	rr := final[ChannelRiskReport].(map[string]any)
	ce, ok := model.AsSentinel(rr)
	require.True(t, ok, "supervisor forwards the risk sentinel unchanged")
	assert.Equal(t, NodeAnalyzeRisk, ce.Stage)

	fd := final[ChannelFraudData].([]any)
	require.Len(t, fd, 1)
	fdErr, ok := model.AsSentinel(fd[0])
	require.True(t, ok)
	assert.Equal(t, NodeDetectFraud, fdErr.Stage)
}

func TestRun_NonFiniteCSVAmountsForwardSentinel(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "tx.csv")
	csv := "transaction_id,account_id,date,amount,fee\n" +
		"T1,A1,2024-01-01,500,1\n" +
		"T2,A1,2024-01-01,NaN,NaN\n" +
		"T3,A1,2024-01-01,NaN,2\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))
	run := build(t, Deps{Analyst: analysis.Stats{}})

	// --- Act ---
	report, final := run(source.Descriptor{Kind: source.KindCSV, Name: "tx", Path: path})

	// --- Assert ---
	require.NotNil(t, report.Error)
	assert.Contains(t, report.Error.Message, "amount")
	assert.Empty(t, report.FraudData)

	fd := final[ChannelFraudData].([]any)
	require.Len(t, fd, 1)
	_, ok := model.AsSentinel(fd[0])
	assert.True(t, ok)

	stats := report.Transactions[KeyAnalysis].(map[string]any)["stats"].(map[string]any)
	assert.NotContains(t, stats, model.FieldAmount, "a column holding NaN is not numeric")
	assert.NotContains(t, stats, "fee")

	_, err := json.Marshal(report)
	require.NoError(t, err)
}

func TestRun_StatsAnalysisIsFlattened(t *testing.T) {
	t.Parallel()

	run := build(t, Deps{Analyst: analysis.Stats{}})
	report, final := run(testutil.Inline("tx", testutil.Tx("T1", "A1", "2024-03-01", 100, ""), testutil.Tx("T2", "A1", "2024-03-02", 300, "")))

	wrapped := final[ChannelTransactionData].(map[string]any)[KeyAnalysis].(map[string]any)
	assert.Contains(t, wrapped, "data", "the channel keeps the analyst output verbatim")

	flat := report.Transactions[KeyAnalysis].(map[string]any)
	assert.Equal(t, 2, flat["rows"])
	stats := flat["stats"].(map[string]any)
	assert.InDelta(t, 200.0, stats[model.FieldAmount].(analysis.ColumnStats).Mean, 1e-9)
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	run := build(t, Deps{Known: fraud.KnownLocations{"A1": {"US"}}})
	descriptors := []source.Descriptor{
		testutil.Inline("a",
			testutil.Tx("T1", "A1", "2024-03-01", 2500, "FR"),
			testutil.Tx("T2", "A2", "2024-03-01", 500, ""),
			testutil.Tx("T3", "A2", "2024-03-01", 500, ""),
		),
		testutil.Inline("b", testutil.Tx("T4", "A3", "2024-03-02", 9000, "DE")),
	}

	encode := func() string {
		_, final := run(descriptors...)
		raw, err := json.Marshal(final)
		require.NoError(t, err)
		return string(raw)
	}

	// --- Act ---
	first := encode()

	// --- Assert ---
	for range 10 {
		if diff := cmp.Diff(first, encode()); diff != "" {
			t.Fatalf("final state differs between runs (-first +next):\n%s", diff)
		}
	}
}

func TestBuild_GraphIsValid(t *testing.T) {
	t.Parallel()

	e, err := Build(Deps{})
	require.NoError(t, err)
	assert.NoError(t, e.Validate(context.Background()))
}

func TestBuild_ExportsEveryRuleCounter(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	_, err := Build(Deps{Metrics: m})
	require.NoError(t, err)

	assert.Equal(t, len(fraud.Reasons), promtest.CollectAndCount(m.Flagged))
	for _, reason := range fraud.Reasons {
		assert.Zero(t, promtest.ToFloat64(m.Flagged.WithLabelValues(reason)))
	}
}
