// Package fraud implements the deterministic rule engine that scores
// transactions. Rules are fixed constants; each rule that fires adds its
// weight to the record's score and its reason to the record's reasons.
package fraud

import (
	"fmt"
	"math"
	"strings"

	"github.com/specialistvlad/fraudgrid/internal/model"
)

// Rule weights and thresholds.
const (
	HighAmountThreshold   = 2000.0
	HighAmountWeight      = 0.7
	DuplicateWeight       = 0.8
	ForeignLocationWeight = 0.6

	// MaxScore is the score of a record every rule fires on.
	MaxScore = HighAmountWeight + DuplicateWeight + ForeignLocationWeight
)

// Rule reasons, in evaluation order.
const (
	ReasonHighAmount      = "High amount transaction"
	ReasonDuplicate       = "Duplicate transaction same day"
	ReasonForeignLocation = "Foreign location detected"
)

// Reasons lists every rule reason in evaluation order.
var Reasons = []string{ReasonHighAmount, ReasonDuplicate, ReasonForeignLocation}

// KnownLocations maps an account to the countries it has historically
// transacted from. Accounts without an entry are never flagged for location.
type KnownLocations map[string][]string

// Knows reports whether the account has a known-location history.
func (k KnownLocations) Knows(account string) bool {
	return len(k[account]) > 0
}

// Allows reports whether country is among the account's known countries.
func (k KnownLocations) Allows(account, country string) bool {
	for _, c := range k[account] {
		if strings.EqualFold(strings.TrimSpace(c), country) {
			return true
		}
	}
	return false
}

type fields struct {
	id      string
	account string
	date    string
	amount  float64
}

// dupKey groups records that may be same-day duplicates of each other.
func (f fields) dupKey() string {
	return f.account + "\x00" + f.date + "\x00" + model.Stringify(f.amount)
}

// Detect scores every record and returns, in input order, those whose score
// is above zero. A record missing account_id, amount or date makes the whole
// batch uninterpretable and is reported as an error.
func Detect(records []model.Record, known KnownLocations) ([]model.Flagged, error) {
	parsed := make([]fields, len(records))
	groups := make(map[string][]int)
	for i, r := range records {
		f, err := extract(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		parsed[i] = f
		groups[f.dupKey()] = append(groups[f.dupKey()], i)
	}

	var flagged []model.Flagged
	for i, r := range records {
		f := parsed[i]
		var score float64
		var reasons []string

		if f.amount > HighAmountThreshold {
			score += HighAmountWeight
			reasons = append(reasons, ReasonHighAmount)
		}
		if hasDuplicate(i, f, groups[f.dupKey()], parsed) {
			score += DuplicateWeight
			reasons = append(reasons, ReasonDuplicate)
		}
		if country := r.Country(); known.Knows(f.account) && country != "" && !known.Allows(f.account, country) {
			score += ForeignLocationWeight
			reasons = append(reasons, ReasonForeignLocation)
		}

		if score > 0 {
			flagged = append(flagged, model.Flagged{
				Record:    r.Clone(),
				RiskScore: round(score),
				Reasons:   reasons,
			})
		}
	}
	return flagged, nil
}

func extract(r model.Record) (fields, error) {
	account := r.AccountID()
	if account == "" {
		return fields{}, fmt.Errorf("record %q: missing %s", r.ID(), model.FieldAccountID)
	}
	amount, err := r.Amount()
	if err != nil {
		return fields{}, err
	}
	date, err := r.Date()
	if err != nil {
		return fields{}, err
	}
	return fields{id: r.ID(), account: account, date: date, amount: amount}, nil
}

// hasDuplicate reports whether another record in the group carries a
// different identity. Records without any id are distinct from everything.
func hasDuplicate(i int, f fields, group []int, parsed []fields) bool {
	for _, j := range group {
		if j == i {
			continue
		}
		if f.id == "" || parsed[j].id != f.id {
			return true
		}
	}
	return false
}

// round trims floating point noise from summed weights.
func round(score float64) float64 {
	return math.Round(score*100) / 100
}
