package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tpcxai-loader/internal/config"
	"tpcxai-loader/internal/loader"
	"tpcxai-loader/internal/manifest"
	"tpcxai-loader/internal/metrics"
	"tpcxai-loader/internal/metrics/datadog"
	"tpcxai-loader/internal/storage"

	// register all backends with the storage factory; --backend picks one.
	_ "tpcxai-loader/internal/storage/all"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the CLI and returns the process exit code. SIGINT/SIGTERM
// cancel the run, which rolls the import back.
func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("An error occurred")
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var verbose bool

	cmd := &cobra.Command{
		Use:   "tpcxai-loader",
		Short: "Load TPCx-AI generated data into a relational database",
		Long: `Loads the training, serving and scoring partitions of a TPCx-AI data set
into the train, serve and score schemas. Table DDL runs first; every declared
file is deduplicated on its primary key and bulk-copied; index DDL runs last.
The import is all-or-nothing.

Settings come from flags, then environment variables, then defaults.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogging(cmd.ErrOrStderr(), verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runLoad(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	config.AddFlags(cmd.Flags())
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
	if err := config.Bind(v, cmd.Flags()); err != nil {
		panic(err)
	}

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the loader version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tpcxai-loader version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}

func configureLogging(w io.Writer, verbose bool) {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func runLoad(ctx context.Context, cfg config.Config, out io.Writer) error {
	runID := uuid.NewString()
	logger := log.WithField("run_id", runID)

	logger.Infof("Looking for data at %s", cfg.DataRoot)
	logger.WithFields(log.Fields{
		"backend":     cfg.Backend,
		"tables_sql":  cfg.TablesSQL,
		"indexes_sql": cfg.IndexesSQL,
		"manifest":    cfg.Manifest,
	}).Debugf("config: %+v", cfg.Redacted())

	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return err
	}

	closeMetrics := setupMetrics(cfg, runID, logger)
	defer closeMetrics()

	repo, err := storage.New(ctx, storage.Config{
		Kind:    cfg.Backend,
		DSN:     cfg.DSN,
		Schemas: m.Schemas(),
	})
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}
	defer repo.Close()

	rep, err := loader.Run(ctx, repo, loader.Options{
		DataRoot:   cfg.DataRoot,
		TablesSQL:  cfg.TablesSQL,
		IndexesSQL: cfg.IndexesSQL,
		Manifest:   m,
		TempDir:    cfg.TempDir,
		RunID:      runID,
		Logger:     log.StandardLogger(),
	})
	if werr := rep.WriteTable(out); werr != nil {
		logger.WithError(werr).Warn("write report")
	}
	return err
}

// setupMetrics installs the configured metrics backend and returns its
// shutdown func. Backend failures fall back to the nop backend.
func setupMetrics(cfg config.Config, runID string, logger log.FieldLogger) func() {
	switch cfg.MetricsBackend {
	case "datadog":
		tags := datadog.ParseTagsCSV(cfg.MetricsTags)
		tags = append(tags, "run_id:"+runID, "scale_factor:"+cfg.ScaleFactor, "backend:"+cfg.Backend)

		// Not the run context: the final flush must still go out after a
		// canceled run.
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName:    "tpcxai-loader",
			Tags:       tags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Warn("metrics: failed to init datadog backend; using nop")
			return func() {}
		}
		logger.WithField("tags", tags).Info("metrics: backend=datadog")
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logger.WithError(err).Warn("metrics: datadog close/flush error")
			}
			metrics.SetBackend(nil)
		}

	case "", "none":
		logger.Debug("metrics: disabled")
		return func() {}

	default:
		logger.Warnf("metrics: unknown backend %q; metrics disabled", cfg.MetricsBackend)
		return func() {}
	}
}
