// Package supervisor reconciles what the parallel stages of a run produced:
// it deduplicates flagged records, flattens wrapped analysis output and
// composes the final structured and human-readable report.
package supervisor

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/specialistvlad/fraudgrid/internal/risk"
)

// AnalysisKey is the transaction-data key holding analysis output.
const AnalysisKey = "analysis"

// DedupKey identifies a flagged record: transaction_id, then payment_id, then
// "{account_id}_{date}_{amount}".
func DedupKey(r model.Record) string {
	if id := r.Text(model.FieldTransactionID); id != "" {
		return id
	}
	if id := r.Text(model.FieldPaymentID); id != "" {
		return id
	}
	return fmt.Sprintf("%s_%s_%s", r.Text(model.FieldAccountID), r.Text(model.FieldDate), r.Text(model.FieldAmount))
}

// Dedup keeps the first record for every key. Kept records without a
// transaction_id get one backfilled from their key. Dedup(Dedup(x)) equals
// Dedup(x).
func Dedup(flagged []model.Flagged) []model.Flagged {
	seen := make(map[string]struct{}, len(flagged))
	out := make([]model.Flagged, 0, len(flagged))
	for _, f := range flagged {
		key := DedupKey(f.Record)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if f.Record.Text(model.FieldTransactionID) == "" {
			f.Record = f.Record.Clone()
			f.Record[model.FieldTransactionID] = key
		}
		out = append(out, f)
	}
	return out
}

// Flatten unwraps {"data": ...} layers until the value is no longer a
// mapping with a data key.
func Flatten(v any) any {
	for {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		inner, ok := m["data"]
		if !ok {
			return v
		}
		v = inner
	}
}

// FlattenAnalysis returns a copy of the transaction data with its analysis
// entry flattened.
func FlattenAnalysis(transactions map[string]any) map[string]any {
	out := maps.Clone(transactions)
	if out == nil {
		out = map[string]any{}
	}
	if analysis, ok := out[AnalysisKey]; ok {
		out[AnalysisKey] = Flatten(analysis)
	}
	return out
}

// Compose runs the reconciliation steps in order and builds the final report.
func Compose(transactions map[string]any, flagged []model.Flagged) model.Report {
	deduped := Dedup(flagged)
	report := risk.Report(deduped)
	return model.Report{
		Transactions: FlattenAnalysis(transactions),
		FraudData:    deduped,
		RiskReport:   report,
		Readable:     Readable(report.Accounts),
	}
}

// Readable renders one header line per account followed by one indented line
// per flagged transaction.
func Readable(accounts []model.AccountSummary) string {
	if len(accounts) == 0 {
		return "No flagged transactions."
	}

	var b strings.Builder
	for _, a := range accounts {
		fmt.Fprintf(&b, "Account %s has %d flagged transactions:\n", a.AccountID, a.TotalFlagged)
		for _, f := range a.Transactions {
			fmt.Fprintf(&b, "  - ID: %s, Amount: %s, Date: %s, Risk Score: %s, Reasons: %s\n",
				f.Record.ID(),
				f.Record.Text(model.FieldAmount),
				f.Record.Text(model.FieldDate),
				strconv.FormatFloat(f.RiskScore, 'f', -1, 64),
				strings.Join(f.Reasons, ", "),
			)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
