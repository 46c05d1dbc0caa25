package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		want     *app.Config
		wantExit bool
		wantErr  string
	}{
		{
			name: "positional path with defaults",
			args: []string{"pipeline.hcl"},
			want: &app.Config{ConfigPath: "pipeline.hcl", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "every flag",
			args: []string{"-c", "conf.yaml", "--log-format", "JSON", "--log-level", "debug", "--workers", "3",
				"--node-timeout", "30s", "--healthcheck-port", "8080", "--out-dir", "out"},
			want: &app.Config{ConfigPath: "conf.yaml", LogFormat: "json", LogLevel: "debug", WorkerCount: 3,
				NodeTimeout: 30 * time.Second, HealthcheckPort: 8080, OutDir: "out"},
		},
		{name: "flag wins over positional", args: []string{"--config", "a.hcl", "b.hcl"}, want: &app.Config{ConfigPath: "a.hcl", LogFormat: "text", LogLevel: "info"}},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no path", args: []string{}, wantExit: true},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag: --bogus"},
		{name: "bad format", args: []string{"--log-format", "xml", "a.hcl"}, wantErr: "invalid log-format"},
		{name: "bad level", args: []string{"--log-level", "trace", "a.hcl"}, wantErr: "invalid log-level"},
		{name: "negative workers", args: []string{"--workers", "-1", "a.hcl"}, wantErr: "WorkerCount"},
		{name: "too many args", args: []string{"a.hcl", "b.hcl"}, wantErr: "accepts at most 1 arg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, "")
			t.Setenv(EnvLogFormat, "")
			var out bytes.Buffer

			cfg, shouldExit, err := Parse(tc.args, &out)

			if tc.wantErr != "" {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, shouldExit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.want, cfg)
		})
	}
}

func TestParse_EnvironmentDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "json")

	cfg, _, err := Parse([]string{"pipeline.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	cfg, _, err = Parse([]string{"--log-level", "error", "pipeline.hcl"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel, "flags override the environment")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(&ExitError{Code: 2}))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}
