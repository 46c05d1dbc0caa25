// Package risk aggregates flagged transactions into a per-account report.
package risk

import (
	"math"

	"github.com/specialistvlad/fraudgrid/internal/fraud"
	"github.com/specialistvlad/fraudgrid/internal/model"
)

// PresentationCap is the top of the human-facing score scale.
const PresentationCap = 100

// Aggregate groups flagged records by account. Accounts appear in the order
// they are first seen and each keeps its records in input order.
func Aggregate(flagged []model.Flagged) []model.AccountSummary {
	index := make(map[string]int)
	var out []model.AccountSummary
	for _, f := range flagged {
		account := f.Record.AccountID()
		i, ok := index[account]
		if !ok {
			i = len(out)
			index[account] = i
			out = append(out, model.AccountSummary{AccountID: account})
		}
		out[i].Transactions = append(out[i].Transactions, f)
		out[i].TotalFlagged++
	}
	return out
}

// Presentation maps each account to a 0-100 score derived from its riskiest
// transaction. It is a display scale only and never feeds back into the
// additive scores of the rule engine.
func Presentation(accounts []model.AccountSummary) map[string]int {
	out := make(map[string]int, len(accounts))
	for _, a := range accounts {
		var top float64
		for _, f := range a.Transactions {
			top = math.Max(top, f.RiskScore)
		}
		score := int(math.Round(top / fraud.MaxScore * PresentationCap))
		out[a.AccountID] = min(score, PresentationCap)
	}
	return out
}

// Report builds the risk report for a batch of flagged records.
func Report(flagged []model.Flagged) model.RiskReport {
	accounts := Aggregate(flagged)
	return model.RiskReport{Accounts: accounts, Presentation: Presentation(accounts)}
}
