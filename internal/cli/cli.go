package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/app"
	"github.com/spf13/cobra"
)

// Environment variables that provide defaults for logging flags.
const (
	EnvLogLevel  = "FRAUDGRID_LOG_LEVEL"
	EnvLogFormat = "FRAUDGRID_LOG_FORMAT"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const longHelp = `FraudGrid - rule-based fraud scoring over a parallel workflow graph.

Loads transactions from the sources named in CONFIG_PATH, scores them with
the fraud rules, aggregates risk per account and prints a readable report.

CONFIG_PATH is a .hcl file, a .yaml file or a directory of .hcl files.`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		configPath  string
		healthPort  int
		logFormat   string
		logLevel    string
		workers     int
		nodeTimeout time.Duration
		outDir      string
		parsed      bool
	)

	cmd := &cobra.Command{
		Use:           "fraudgrid [flags] [CONFIG_PATH]",
		Short:         "Score transactions for fraud and report risk per account",
		Long:          longHelp,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			if configPath == "" && len(positional) > 0 {
				configPath = positional[0]
			}
			parsed = true
			return nil
		},
	}
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to the configuration file or directory.")
	flags.IntVar(&healthPort, "healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	flags.StringVar(&logFormat, "log-format", envOr(EnvLogFormat, "text"), "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&logLevel, "log-level", envOr(EnvLogLevel, "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.IntVar(&workers, "workers", 0, "Number of concurrent workers. 0 uses the configuration file or the default.")
	flags.DurationVar(&nodeTimeout, "node-timeout", 0, "Fail any node running longer than this. 0 uses the configuration file.")
	flags.StringVar(&outDir, "out-dir", "", "Directory for report files. Overrides the configuration file.")

	if err := cmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if !parsed {
		// Help was printed.
		return nil, true, nil
	}
	slog.Debug("Arguments parsed successfully.")

	if configPath == "" {
		slog.Debug("No configuration path provided, printing usage and exiting.")
		_ = cmd.Usage()
		return nil, true, nil
	}

	logFormat = strings.ToLower(logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel = strings.ToLower(logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath:      configPath,
		HealthcheckPort: healthPort,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		WorkerCount:     workers,
		NodeTimeout:     nodeTimeout,
		OutDir:          outDir,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
