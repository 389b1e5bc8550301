package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/picmoney/data-cleaner/pkg/cleaner"
	"github.com/picmoney/data-cleaner/pkg/config"
	"github.com/picmoney/data-cleaner/pkg/connector"
	"github.com/picmoney/data-cleaner/pkg/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "picmoney-clean",
	Short: "Clean the PicMoney source extracts",
	Long: `picmoney-clean reads the four PicMoney CSV extracts (players, transactions,
pedestrians and stores), repairs and normalizes their values and writes one
cleaned CSV per dataset.

All settings come from the environment, optionally seeded from the file named
by ENV_FILE (default .env).`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// newLogger builds the process logger from the configured level and format
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zapCfg.Encoding = format
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// buildJobs creates one job per selected dataset
func buildJobs(cfg *config.Config) []pipeline.DatasetJob {
	datasets := cfg.SelectedDatasets()
	jobs := make([]pipeline.DatasetJob, 0, len(datasets))
	for i := range datasets {
		ds := datasets[i]
		jobs = append(jobs, pipeline.NewDatasetJob(ds, cfg.SourcePath(&ds), cfg.OutputPath(&ds)))
	}
	return jobs
}

// runnerOptions maps the enabled sinks onto runner options, leaving
// disabled sinks as nil interfaces
func runnerOptions(cfg *config.Config, runID string, sinks *connector.Sinks) pipeline.Options {
	opts := pipeline.Options{
		RunID:       runID,
		WorkerCount: cfg.WorkerPoolSize,
		Verify:      cfg.VerifyOutput,
	}
	if sinks.Audit != nil {
		opts.Audit = sinks.Audit
	}
	if sinks.Export != nil {
		opts.Export = sinks.Export
	}
	return opts
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.New().String()
	logger = logger.With(zap.String("runId", runID))

	logger.Info("Starting PicMoney data cleaning",
		zap.String("inputDir", cfg.InputDir),
		zap.String("outputDir", cfg.OutputDir),
		zap.Strings("datasets", cfg.Datasets),
		zap.String("encoding", cfg.InputEncoding),
		zap.Bool("sqliteExport", cfg.SQLite != nil),
		zap.Bool("postgresAudit", cfg.Postgres != nil))

	sinks, err := connector.NewConnectorFactory(cfg, logger).CreateSinks(ctx)
	if err != nil {
		logger.Error("Failed to create sinks", zap.Error(err))
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("Failed to close sinks", zap.Error(err))
		}
	}()

	dataCleaner, err := cleaner.NewDataCleaner(logger, cleaner.Options{
		Encoding:       cfg.InputEncoding,
		RunID:          runID,
		KeepOperations: sinks.Audit != nil,
	})
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(dataCleaner, logger, runnerOptions(cfg, runID, sinks))
	if err != nil {
		return err
	}

	_, runErr := runner.Run(ctx, buildJobs(cfg))
	fmt.Fprint(os.Stdout, runner.Metrics().GenerateMetricsReport())
	if runErr != nil {
		return fmt.Errorf("cleaning run %s failed: %w", runID, runErr)
	}

	logger.Info("PicMoney data cleaning completed")
	return nil
}
