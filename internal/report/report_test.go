package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() model.Report {
	f := model.Flagged{
		Record:    model.Record{"transaction_id": "T1", "account_id": "A1", "amount": 2500.0, "date": "2024-01-01"},
		RiskScore: 0.7,
		Reasons:   []string{"High amount transaction"},
	}
	return model.Report{
		Transactions: map[string]any{"sources": []string{"inline"}},
		FraudData:    []model.Flagged{f},
		RiskReport: model.RiskReport{
			Accounts:     []model.AccountSummary{{AccountID: "A1", TotalFlagged: 1, Transactions: []model.Flagged{f}}},
			Presentation: map[string]int{"A1": 33},
		},
		Readable: "Account A1 has 1 flagged transactions:\n  - ID: T1, Amount: 2500, Date: 2024-01-01, Risk Score: 0.7, Reasons: High amount transaction",
	}
}

func TestWriter_WritesEveryFormat(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := filepath.Join(t.TempDir(), "out")
	w := &Writer{Dir: dir, Formats: []string{FormatJSON, FormatYAML, FormatText}}

	// --- Act ---
	paths, err := w.Write(context.Background(), sampleReport())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "report.json"),
		filepath.Join(dir, "report.yaml"),
		filepath.Join(dir, "report.txt"),
	}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	fraud := decoded["fraud_data"].([]any)[0].(map[string]any)
	assert.Equal(t, "T1", fraud["transaction_id"], "flagged records are flattened")
	assert.InDelta(t, 0.7, fraud["risk_score"], 1e-9)

	raw, err = os.ReadFile(paths[1])
	require.NoError(t, err)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(raw, &fromYAML))
	assert.Contains(t, fromYAML, "readable_report")

	raw, err = os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Equal(t, sampleReport().Readable+"\n", string(raw))
}

func TestWriter_UnsupportedFormatWritesNothing(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	w := &Writer{Dir: dir, Formats: []string{FormatJSON, "pdf"}}

	_, err := w.Write(context.Background(), sampleReport())

	assert.ErrorContains(t, err, `unsupported report format "pdf"`)
	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPayload(t *testing.T) {
	t.Parallel()

	payload, err := Payload(sampleReport())

	require.NoError(t, err)
	assert.Contains(t, payload, "transactions")
	rr := payload["risk_report"].(map[string]any)
	accounts := rr["accounts"].([]any)
	assert.Equal(t, "A1", accounts[0].(map[string]any)["account_id"])
	assert.NotContains(t, payload, "error")
}

func TestSocketPublisher_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		p       SocketPublisher
		wantErr string
	}{
		{name: "no event", p: SocketPublisher{URL: "http://localhost:1"}, wantErr: "no event name"},
		{name: "no host", p: SocketPublisher{URL: "localhost", Event: "fraud_report"}, wantErr: "needs a scheme and host"},
		{name: "unparseable", p: SocketPublisher{URL: "http://[::1", Event: "fraud_report"}, wantErr: "failed to parse URL"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.p.Publish(context.Background(), sampleReport())
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}
