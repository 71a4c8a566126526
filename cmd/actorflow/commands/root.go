package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/actorflow/actorflow/pkg/telemetry"
)

var (
	// Global flags
	logLevel      string
	logFormat     string
	metricsAddr   string
	traceExporter string
	otlpEndpoint  string

	// appVersion is reported in traces and metrics.
	appVersion = "dev"
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	appVersion = version

	rootCmd := &cobra.Command{
		Use:   "actorflow",
		Short: "actorflow - declarative actor-graph pipelines",
		Long: `actorflow runs record-processing pipelines described as a graph of actors.

A workflow document (YAML, JSON, CUE, HCL or XML) declares actors, their
properties and how they are wired. Running the workflow pulls records from
the sources through every actor to the sinks.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("ACTORFLOW_LOG_LEVEL", "info"), "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", envOr("ACTORFLOW_LOG_FORMAT", "console"), "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", envOr("ACTORFLOW_METRICS_ADDR", ""), "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&traceExporter, "trace-exporter", envOr("ACTORFLOW_TRACE_EXPORTER", "none"), "trace exporter (none, stdout, otlp)")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", envOr("ACTORFLOW_OTLP_ENDPOINT", ""), "OTLP collector endpoint")

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newTypesCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, buildDate))

	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// telemetryConfig builds the telemetry settings selected by the global flags.
func telemetryConfig() *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = appVersion
	cfg.Logging.Level = logLevel
	cfg.Logging.Format = logFormat
	cfg.Metrics.ListenAddress = metricsAddr

	if traceExporter != "" && traceExporter != "none" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = traceExporter
		cfg.Tracing.Endpoint = otlpEndpoint
	}
	return cfg
}

// newTelemetry creates the telemetry bundle and starts the metrics server
// when one is configured.
func newTelemetry(ctx context.Context) (*telemetry.Telemetry, error) {
	tel, err := telemetry.NewTelemetry(telemetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	tel.Metrics.StartMetricsServer(ctx, tel.Logger)
	return tel, nil
}
