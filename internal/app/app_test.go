package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/fraudgrid/internal/fraud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{ConfigPath: "pipeline.hcl", WorkerCount: 2}},
		{name: "missing path", cfg: Config{}, wantErr: "ConfigPath"},
		{name: "negative workers", cfg: Config{ConfigPath: "p.hcl", WorkerCount: -1}, wantErr: "WorkerCount"},
		{name: "negative timeout", cfg: Config{ConfigPath: "p.hcl", NodeTimeout: -time.Second}, wantErr: "NodeTimeout"},
		{name: "port out of range", cfg: Config{ConfigPath: "p.hcl", HealthcheckPort: 70000}, wantErr: "HealthcheckPort"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg, *cfg)
		})
	}
}

func TestApp_RunEndToEnd(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	writeFile(t, dir, "ledger.csv", "transaction_id,account_id,amount,date,country\n"+
		"T1,A1,500,2024-03-01,US\n"+
		"T2,A1,500,2024-03-01,US\n"+
		"T3,A2,2500,2024-03-02,FR\n")
	outDir := filepath.Join(dir, "out")
	cfgPath := writeFile(t, dir, "pipeline.yaml", `
accounts:
  A2: [US]
output:
  formats: [json, txt]
sources:
  - kind: csv
    name: ledger
    path: `+filepath.Join(dir, "ledger.csv")+`
  - kind: csv
    name: missing
    path: `+filepath.Join(dir, "missing.csv")+`
`)
	a, logs := SetupAppTest(t, &Config{ConfigPath: cfgPath, OutDir: outDir, LogFormat: "json"})

	// --- Act ---
	rep, err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, rep.RiskReport.Accounts, 2)
	assert.Equal(t, "A1", rep.RiskReport.Accounts[0].AccountID)
	assert.Equal(t, 2, rep.RiskReport.Accounts[0].TotalFlagged)
	assert.Equal(t, []string{fraud.ReasonHighAmount, fraud.ReasonForeignLocation}, rep.RiskReport.Accounts[1].Transactions[0].Reasons)

	assert.Contains(t, logs.String(), "Account A1 has 2 flagged transactions:")
	assert.Contains(t, logs.String(), "Source failed, skipping.")

	raw, err := os.ReadFile(filepath.Join(outDir, "report.json"))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded["fraud_data"], 3)
	assert.FileExists(t, filepath.Join(outDir, "report.txt"))
	assert.NoFileExists(t, filepath.Join(outDir, "report.yaml"))

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics().SourceFailures.WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics().Runs.WithLabelValues("success")))
}

func TestApp_HCLConfig(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "pipeline.hcl", `
engine {
  workers = 1
}

source "inline" "sample" {
  records = [
    { transaction_id = "T1", account_id = "A9", amount = 9000, date = "2024-05-01" },
  ]
}
`)
	a, logs := SetupAppTest(t, &Config{ConfigPath: cfgPath})

	// --- Act ---
	rep, err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, rep.FraudData, 1)
	assert.InDelta(t, 0.7, rep.FraudData[0].RiskScore, 1e-9)
	assert.Contains(t, logs.String(), "Account A9 has 1 flagged transactions:")
}

func TestNewApp_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testCases := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "unknown extension", path: writeFile(t, dir, "pipeline.toml", ""), wantErr: "no configuration loader"},
		{name: "invalid hcl", path: writeFile(t, dir, "bad.hcl", `source "csv" {`), wantErr: "failed to load configuration"},
		{name: "bad analyst", path: writeFile(t, dir, "analyst.yaml", "analyst:\n  kind: oracle\n"), wantErr: "invalid analyst configuration"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewApp(io.Discard, &Config{ConfigPath: tc.path}, DefaultLoaders())
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestHealthMux(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "pipeline.yaml", "sources: []\n")
	a, _ := SetupAppTest(t, &Config{ConfigPath: cfgPath})
	_, err := a.Run(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(a.healthMux())
	t.Cleanup(srv.Close)

	// --- Act ---
	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	metricsResp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()

	// --- Assert ---
	assert.Equal(t, http.StatusOK, health.StatusCode)
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `fraudgrid_runs_total{result="success"} 1`)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}
