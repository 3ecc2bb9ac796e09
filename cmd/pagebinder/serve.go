package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagebinder/internal/config"
	"github.com/nao1215/pagebinder/internal/log"
	"github.com/nao1215/pagebinder/internal/pipeline"
	"github.com/nao1215/pagebinder/internal/server"
)

// drainTimeout bounds how long serve waits for running jobs on shutdown.
const drainTimeout = 2 * time.Minute

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept crawl jobs over HTTP",
		Long: `Serve starts the job submission API.

Endpoints:
  POST /scrape     {"url": ..., "ssa": ..., "site_id": ..., "domain_name": ...}
                   Accepts a job and answers 202 with its id. The job runs in
                   the background and uploads to the destination configured
                   for the domain.
  GET  /jobs       Lists recent jobs (requires the job ledger).
  GET  /jobs/{id}  Returns one job.
  GET  /health     Liveness probe.

On SIGINT or SIGTERM the listener closes first; queued and running jobs get
a grace period to finish.

Examples:
  # Serve on the default address
  pagebinder serve

  # Serve on a custom port with four concurrent jobs
  pagebinder serve -l :9000 --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addJobFlags(cmd)

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address the API listens on")
	cmd.Flags().Int("concurrency", config.DefaultJobConcurrency,
		"Number of jobs run at once")
	cmd.Flags().Int("queue-size", 100,
		"Number of accepted jobs that may wait for a worker")
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if cfg.ListenAddress, err = flags.GetString("listen"); err != nil {
		return err
	}
	if cfg.JobConcurrency, err = flags.GetInt("concurrency"); err != nil {
		return err
	}
	queueSize, err := flags.GetInt("queue-size")
	if err != nil {
		return err
	}
	jsonLog, err := flags.GetBool("json-log")
	if err != nil {
		return err
	}

	var logger *slog.Logger
	if jsonLog {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	} else {
		logger = log.NewSecureLoggerWithLevel(cmd.ErrOrStderr(), log.Level(cfg.Verbose, slog.LevelInfo))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg, queueSize, logger)
}

// runServe serves the API until ctx is cancelled, then drains the job queue.
func runServe(ctx context.Context, cfg *config.Config, queueSize int, logger *slog.Logger) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	if len(cfg.Settings.Destinations) == 0 {
		logger.Warn("no upload destinations configured; every submission will be rejected")
	}

	store, err := openStore(cfg.DBDir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Jobs outlive the listener so they can finish during the drain.
	dispatcher := pipeline.NewDispatcher(context.WithoutCancel(ctx), a.pipelineFactory(a.destinationSink), store,
		pipeline.WithDispatcherLogger(logger),
		pipeline.WithConcurrency(cfg.JobConcurrency),
		pipeline.WithQueueSize(queueSize),
	)

	srv := server.NewServer(dispatcher, store, cfg.Settings, server.WithLogger(logger))
	serveErr := srv.ListenAndServe(ctx, cfg.ListenAddress)
	if serveErr != nil {
		logger.Error("api stopped", "error", serveErr)
	}

	logger.Info("waiting for jobs to finish", "timeout", drainTimeout)
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		logger.Warn("jobs cancelled before finishing", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("api server: %w", serveErr)
	}
	return nil
}
