package fraud

import (
	"fmt"
	"testing"

	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func rec(id, account, date string, amount any, extra ...string) model.Record {
	r := model.Record{
		model.FieldTransactionID: id,
		model.FieldAccountID:     account,
		model.FieldDate:          date,
		model.FieldAmount:        amount,
	}
	if len(extra) > 0 {
		r[model.FieldCountry] = extra[0]
	}
	return r
}

func TestDetect_Rules(t *testing.T) {
	t.Parallel()

	known := KnownLocations{"A1": {"US", "CA"}}

	testCases := []struct {
		name        string
		records     []model.Record
		wantIDs     []string
		wantScores  []float64
		wantReasons [][]string
	}{
		{
			name:    "below every threshold is not flagged",
			records: []model.Record{rec("T1", "A1", "2024-01-01", 2000.0, "US")},
		},
		{
			name:        "high amount",
			records:     []model.Record{rec("T1", "A2", "2024-01-01", 2500.0)},
			wantIDs:     []string{"T1"},
			wantScores:  []float64{0.7},
			wantReasons: [][]string{{ReasonHighAmount}},
		},
		{
			name: "duplicates are compared pairwise, not just adjacent",
			records: []model.Record{
				rec("T1", "A2", "2024-01-01", 500.0),
				rec("T2", "A2", "2024-01-02", 500.0),
				rec("T3", "A2", "2024-01-01", "500"),
			},
			wantIDs:     []string{"T1", "T3"},
			wantScores:  []float64{0.8, 0.8},
			wantReasons: [][]string{{ReasonDuplicate}, {ReasonDuplicate}},
		},
		{
			name: "same transaction id is not a duplicate of itself",
			records: []model.Record{
				rec("T1", "A2", "2024-01-01", 500.0),
				rec("T1", "A2", "2024-01-01", 500.0),
			},
		},
		{
			name:        "foreign location for an account with history",
			records:     []model.Record{rec("T1", "A1", "2024-01-01", 10.0, "FR"), rec("T2", "A1", "2024-01-01", 11.0, "us")},
			wantIDs:     []string{"T1"},
			wantScores:  []float64{0.6},
			wantReasons: [][]string{{ReasonForeignLocation}},
		},
		{
			name:    "accounts without history are exempt from location",
			records: []model.Record{rec("T1", "A9", "2024-01-01", 10.0, "FR")},
		},
		{
			name: "every rule sums without a cap",
			records: []model.Record{
				rec("T1", "A1", "2024-01-01", 3000.0, "FR"),
				rec("T2", "A1", "2024-01-01", 3000.0, "FR"),
			},
			wantIDs:     []string{"T1", "T2"},
			wantScores:  []float64{2.1, 2.1},
			wantReasons: [][]string{Reasons, Reasons},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flagged, err := Detect(tc.records, known)
			require.NoError(t, err)

			require.Len(t, flagged, len(tc.wantIDs))
			for i, f := range flagged {
				assert.Equal(t, tc.wantIDs[i], f.Record.ID())
				assert.Equal(t, tc.wantScores[i], f.RiskScore)
				assert.Equal(t, tc.wantReasons[i], f.Reasons)
			}
		})
	}
}

func TestDetect_MissingFieldIsAnError(t *testing.T) {
	_, err := Detect([]model.Record{{model.FieldTransactionID: "T1", model.FieldAccountID: "A1", model.FieldDate: "2024-01-01"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing amount")

	_, err = Detect([]model.Record{rec("T1", "", "2024-01-01", 1.0)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing account_id")
}

func TestDetect_NonFiniteAmountIsAnError(t *testing.T) {
	records := []model.Record{
		rec("T2", "A1", "2024-01-01", "NaN"),
		rec("T3", "A1", "2024-01-01", "NaN"),
	}

	flagged, err := Detect(records, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
	assert.Nil(t, flagged, "NaN amounts are never same-day duplicates of each other")
}

func TestDetect_DoesNotMutateInput(t *testing.T) {
	records := []model.Record{rec("T1", "A1", "2024-01-01", 2500.0)}
	flagged, err := Detect(records, nil)
	require.NoError(t, err)

	flagged[0].Record["amount"] = 0.0
	assert.Equal(t, 2500.0, records[0]["amount"])
	assert.NotContains(t, records[0], "risk_score")
}

func TestDetect_SameDayDuplicatesAt500(t *testing.T) {
	// --- Arrange ---
	records := []model.Record{
		rec("T1", "A1", "2024-03-01", 500.0),
		rec("T2", "A1", "2024-03-01", 500.0),
	}

	// --- Act ---
	flagged, err := Detect(records, KnownLocations{})

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, flagged, 2)
	for _, f := range flagged {
		assert.Equal(t, 0.8, f.RiskScore)
		assert.Equal(t, []string{ReasonDuplicate}, f.Reasons)
	}
}

// genRecords draws records that never trigger the location rule.
func genRecords(t *rapid.T) []model.Record {
	n := rapid.IntRange(0, 20).Draw(t, "n")
	records := make([]model.Record, n)
	for i := range records {
		records[i] = rec(
			fmt.Sprintf("T%d", i),
			rapid.SampledFrom([]string{"A1", "A2", "A3"}).Draw(t, "account"),
			rapid.SampledFrom([]string{"2024-01-01", "2024-01-02"}).Draw(t, "date"),
			float64(rapid.SampledFrom([]int{100, 500, 2500, 5000}).Draw(t, "amount")),
		)
	}
	return records
}

func TestDetect_HighAmountAloneScoresPointSeven(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := genRecords(t)
		// A unique account and date guarantee no duplicate hit.
		lone := rec("LONE", "SOLO", "2030-12-31", rapid.Float64Range(2000.01, 1e6).Draw(t, "big"))
		pos := rapid.IntRange(0, len(records)).Draw(t, "pos")
		records = append(records[:pos], append([]model.Record{lone}, records[pos:]...)...)

		flagged, err := Detect(records, nil)
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range flagged {
			if f.Record.ID() == "LONE" {
				if f.RiskScore != 0.7 || len(f.Reasons) != 1 || f.Reasons[0] != ReasonHighAmount {
					t.Fatalf("lone high amount flagged as %v %v", f.RiskScore, f.Reasons)
				}
				return
			}
		}
		t.Fatal("lone high amount record not flagged")
	})
}

func TestDetect_DuplicatePairsAreBothFlagged(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		records := genRecords(t)
		flagged, err := Detect(records, nil)
		if err != nil {
			t.Fatal(err)
		}
		byID := map[string]model.Flagged{}
		for _, f := range flagged {
			byID[f.Record.ID()] = f
		}

		for i := range records {
			for j := range records {
				if i == j {
					continue
				}
				a, b := records[i], records[j]
				if a.AccountID() != b.AccountID() || a.Text("date") != b.Text("date") || a["amount"] != b["amount"] {
					continue
				}
				for _, r := range []model.Record{a, b} {
					f, ok := byID[r.ID()]
					if !ok {
						t.Fatalf("duplicate %s not flagged", r.ID())
					}
					found := false
					for _, reason := range f.Reasons {
						found = found || reason == ReasonDuplicate
					}
					if !found {
						t.Fatalf("duplicate %s missing duplicate reason: %v", r.ID(), f.Reasons)
					}
				}
			}
		}
	})
}

func TestDetect_FlaggedAlwaysHaveReasons(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		flagged, err := Detect(genRecords(t), nil)
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range flagged {
			if f.RiskScore <= 0 || len(f.Reasons) == 0 {
				t.Fatalf("flagged record %s has score %v and reasons %v", f.Record.ID(), f.RiskScore, f.Reasons)
			}
		}
	})
}
