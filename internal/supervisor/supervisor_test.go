package supervisor

import (
	"fmt"
	"testing"

	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "T1", DedupKey(model.Record{"transaction_id": "T1", "payment_id": "P1"}))
	assert.Equal(t, "P1", DedupKey(model.Record{"payment_id": "P1"}))
	assert.Equal(t, "A1_2024-01-01_500", DedupKey(model.Record{"account_id": "A1", "date": "2024-01-01", "amount": 500.0}))
}

func TestDedup_FirstWinsAndBackfills(t *testing.T) {
	// --- Arrange ---
	in := []model.Flagged{
		{Record: model.Record{"transaction_id": "T1", "amount": 1.0}, RiskScore: 0.7},
		{Record: model.Record{"payment_id": "P1"}, RiskScore: 0.8},
		{Record: model.Record{"transaction_id": "T1", "amount": 2.0}, RiskScore: 1.5},
		{Record: model.Record{"account_id": "A1", "date": "2024-01-01", "amount": 500.0}, RiskScore: 0.8},
		{Record: model.Record{"payment_id": "P1", "amount": 3.0}, RiskScore: 0.8},
	}

	// --- Act ---
	out := Dedup(in)

	// --- Assert ---
	require.Len(t, out, 3)
	assert.Equal(t, 1.0, out[0].Record["amount"], "first occurrence must win")
	assert.Equal(t, "P1", out[1].Record["transaction_id"])
	assert.Equal(t, "A1_2024-01-01_500", out[2].Record["transaction_id"])
	assert.NotContains(t, in[1].Record, "transaction_id", "input must not be mutated")
}

func TestDedup_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		in := make([]model.Flagged, n)
		for i := range in {
			r := model.Record{
				"account_id": rapid.SampledFrom([]string{"A1", "A2"}).Draw(t, "account"),
				"date":       rapid.SampledFrom([]string{"2024-01-01", "2024-01-02"}).Draw(t, "date"),
				"amount":     float64(rapid.IntRange(1, 3).Draw(t, "amount")),
			}
			switch rapid.IntRange(0, 2).Draw(t, "id kind") {
			case 0:
				r["transaction_id"] = fmt.Sprintf("T%d", rapid.IntRange(0, 5).Draw(t, "tid"))
			case 1:
				r["payment_id"] = fmt.Sprintf("P%d", rapid.IntRange(0, 5).Draw(t, "pid"))
			}
			in[i] = model.Flagged{Record: r, RiskScore: 0.8, Reasons: []string{"Duplicate transaction same day"}}
		}

		once := Dedup(in)
		twice := Dedup(once)

		if !assert.ObjectsAreEqual(once, twice) {
			t.Fatalf("dedup not idempotent:\nonce:  %v\ntwice: %v", once, twice)
		}
		for _, f := range once {
			if f.Record.Text("transaction_id") == "" {
				t.Fatalf("record without transaction_id after dedup: %v", f.Record)
			}
		}
	})
}

func TestFlatten(t *testing.T) {
	nested := map[string]any{"data": map[string]any{"data": map[string]any{"data": "narrative"}}}
	assert.Equal(t, "narrative", Flatten(nested))

	stats := map[string]any{"stats": 1}
	assert.Equal(t, stats, Flatten(map[string]any{"data": stats}))
	assert.Equal(t, 42, Flatten(42))
	assert.Nil(t, Flatten(map[string]any{"data": nil}))
}

func TestFlatten_TerminatesAtAnyDepth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		depth := rapid.IntRange(0, 50).Draw(t, "depth")
		var v any = map[string]any{"summary": "done"}
		for i := 0; i < depth; i++ {
			v = map[string]any{"data": v}
		}

		out := Flatten(v)

		if m, ok := out.(map[string]any); ok {
			if _, has := m["data"]; has {
				t.Fatalf("flattened value still wraps data: %v", m)
			}
		}
	})
}

func TestFlattenAnalysis(t *testing.T) {
	in := map[string]any{"data": []any{1}, "analysis": map[string]any{"data": map[string]any{"rows": 2}}}

	out := FlattenAnalysis(in)

	assert.Equal(t, map[string]any{"rows": 2}, out["analysis"])
	assert.Equal(t, []any{1}, out["data"], "transaction data itself is not unwrapped")
	assert.Equal(t, map[string]any{"data": map[string]any{"rows": 2}}, in["analysis"])
}

func TestReadable(t *testing.T) {
	// --- Arrange ---
	report := Compose(map[string]any{}, []model.Flagged{
		{Record: model.Record{"transaction_id": "T1", "account_id": "A1", "amount": 500.0, "date": "2024-01-01"}, RiskScore: 0.8, Reasons: []string{"Duplicate transaction same day"}},
		{Record: model.Record{"transaction_id": "T9", "account_id": "B2", "amount": 2500.0, "date": "2024-01-03"}, RiskScore: 1.3, Reasons: []string{"High amount transaction", "Foreign location detected"}},
		{Record: model.Record{"transaction_id": "T2", "account_id": "A1", "amount": 500.0, "date": "2024-01-01"}, RiskScore: 0.8, Reasons: []string{"Duplicate transaction same day"}},
	})

	// --- Assert ---
	want := "Account A1 has 2 flagged transactions:\n" +
		"  - ID: T1, Amount: 500, Date: 2024-01-01, Risk Score: 0.8, Reasons: Duplicate transaction same day\n" +
		"  - ID: T2, Amount: 500, Date: 2024-01-01, Risk Score: 0.8, Reasons: Duplicate transaction same day\n" +
		"Account B2 has 1 flagged transactions:\n" +
		"  - ID: T9, Amount: 2500, Date: 2024-01-03, Risk Score: 1.3, Reasons: High amount transaction, Foreign location detected"
	assert.Equal(t, want, report.Readable)
	assert.Equal(t, 2, report.RiskReport.Accounts[0].TotalFlagged)
}

func TestReadable_Empty(t *testing.T) {
	assert.Equal(t, "No flagged transactions.", Readable(nil))
}
