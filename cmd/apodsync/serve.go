package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skyops/apodsync/pkg/api"
	"github.com/skyops/apodsync/pkg/pipeline"
	"github.com/skyops/apodsync/pkg/scheduler"
	"github.com/skyops/apodsync/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daily scheduler and trigger API",
	Long: `Start the long-running service: the daily scheduler fires the
pipeline once per UTC day, and the trigger API accepts manual runs and
reports per-node results.`,
	RunE: serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Set up context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	st := store.NewStore(log, &cfg.Database)
	if err := st.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	p, err := buildPipeline(ctx, cfg, st)
	if err != nil {
		return err
	}

	history := pipeline.NewHistory(0)

	var sched scheduler.Scheduler
	if cfg.Schedule.Enabled {
		sched = scheduler.New(log, &cfg.Schedule, p, history)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
	}

	srv := api.NewServer(log, &cfg.Server, p, st, history)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}

	// Wait for shutdown signal.
	sig := <-sigCh
	log.WithField("signal", sig).Info("Shutting down")
	cancel()

	if err := srv.Stop(); err != nil {
		log.WithError(err).Warn("Failed to stop api server")
	}

	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop scheduler")
		}
	}

	if err := st.Stop(); err != nil {
		log.WithError(err).Warn("Failed to stop store")
	}

	return nil
}
