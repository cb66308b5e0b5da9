package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/internal/pipeline"
	"github.com/ratepipe/ratepipe/pkg/config"
	"github.com/ratepipe/ratepipe/pkg/connector/core"
	"github.com/ratepipe/ratepipe/pkg/connector/registry"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/logger"
	"github.com/ratepipe/ratepipe/pkg/metrics"
	"github.com/ratepipe/ratepipe/pkg/models"
	"github.com/ratepipe/ratepipe/pkg/observability"
	"github.com/ratepipe/ratepipe/pkg/transform"

	// Import all available connectors to register them
	_ "github.com/ratepipe/ratepipe/pkg/connector/destinations/json"
	_ "github.com/ratepipe/ratepipe/pkg/connector/destinations/postgresql"
	_ "github.com/ratepipe/ratepipe/pkg/connector/destinations/sqlite"
	_ "github.com/ratepipe/ratepipe/pkg/connector/sources/nbrb"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds state shared by all commands of one invocation.
type app struct {
	configFile  string
	logLevel    string
	logFormat   string
	timeout     time.Duration
	metricsFile string
	trace       bool

	cfg      *config.Config
	log      *zap.Logger
	metrics  *metrics.Collector
	shutdown observability.ShutdownFunc
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "ratepipe",
		Short: "ratepipe - currency rates ETL and superstore reporting",
		Long: `ratepipe fetches the official exchange rates published by the National Bank
of the Republic of Belarus, normalizes them to a per-unit rate and stores them.
It also loads the Sample Superstore dataset into PostgreSQL and produces reports.

Every setting has a default; "ratepipe run" needs no configuration at all.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log encoding (json, console)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Overall command timeout (0 = none)")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the command")
	root.PersistentFlags().BoolVar(&a.trace, "trace", false, "Print pipeline spans to stderr")

	root.AddCommand(
		newRunCmd(a),
		newListCmd(),
		newVersionCmd(),
		newConfigCmd(a),
		newSuperstoreCmd(a),
	)
	return root
}

// setup loads configuration and installs the logger and tracer.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to load configuration")
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Encoding = a.logFormat
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	a.log = logger.Get().With(zap.String("component", "ratepipe-cli"), zap.String("command", cmd.Name()))

	a.shutdown, err = observability.Initialize(observability.TracingConfig{
		Enabled:        a.trace,
		ServiceName:    "ratepipe",
		ServiceVersion: version,
		Writer:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize tracing")
	}
	a.metrics = metrics.NewCollector()
	return nil
}

// execute runs fn under the command timeout and flushes telemetry afterwards.
func (a *app) execute(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err != nil {
		a.log.Error("command failed",
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
	}

	if a.shutdown != nil {
		if serr := a.shutdown(context.Background()); serr != nil {
			a.log.Warn("failed to flush traces", zap.Error(serr))
		}
	}
	if a.metricsFile != "" {
		if merr := a.metrics.WriteTextfile(a.metricsFile); merr != nil && err == nil {
			err = merr
		}
	}
	_ = logger.Sync()
	return err
}

func newRunCmd(a *app) *cobra.Command {
	var source, destination string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the currency rates pipeline",
		Long: `Fetch the daily NBRB rates, keep USD, EUR, RUB and CNY, add the per-unit rate
and replace the destination table.

Example:
  ratepipe run
  ratepipe run --destination postgresql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if source == "" {
				source = a.cfg.Rates.Source
			}
			if destination == "" {
				destination = a.cfg.Rates.Destination
			}
			return a.execute(cmd, func(ctx context.Context) error {
				return a.runRates(ctx, source, destination)
			})
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Source connector (default from config: nbrb)")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Destination connector (default from config: sqlite)")
	return cmd
}

func (a *app) runRates(ctx context.Context, sourceName, destinationName string) error {
	src, err := registry.CreateSource(sourceName, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to create source connector '%s': %w", sourceName, err)
	}
	dst, err := registry.CreateDestination(destinationName, a.cfg)
	if err != nil {
		_ = core.CloseAll(src)
		return fmt.Errorf("failed to create destination connector '%s': %w", destinationName, err)
	}
	defer func() {
		if err := core.CloseAll(src, dst); err != nil {
			a.log.Warn("failed to close connectors", zap.Error(err))
		}
	}()

	a.log.Info("starting rates pipeline",
		zap.String("source", sourceName),
		zap.String("destination", destinationName),
		zap.Strings("currencies", transform.AllowedCodes()))

	p := pipeline.New[models.RateRecord, models.NormalizedRateRecord]("rates", src, transform.NewRateNormalizer(logger.Get()), dst,
		pipeline.WithLogger(logger.Get()),
		pipeline.WithMetrics(a.metrics))
	return p.Run(ctx)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available connectors",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available Source Connectors:")
			for _, info := range registry.ListSources() {
				fmt.Fprintf(out, "  - %-12s %s\n", info.Name, info.Description)
			}
			fmt.Fprintln(out, "\nAvailable Destination Connectors:")
			for _, info := range registry.ListDestinations() {
				fmt.Fprintf(out, "  - %-12s %s\n", info.Name, info.Description)
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ratepipe v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML (secrets masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.WriteYAML(cmd.OutOrStdout(), a.cfg)
		},
	}
}
