package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skyops/apodsync/pkg/archive"
	"github.com/skyops/apodsync/pkg/config"
	"github.com/skyops/apodsync/pkg/nasa"
	"github.com/skyops/apodsync/pkg/pipeline"
	"github.com/skyops/apodsync/pkg/store"
)

var runDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once for a logical date",
	Long: `Execute the four-node pipeline (ensure-schema, extract, transform,
load) for a single logical date and print the per-node result. Rerunning
for the same date replaces the stored row in place.`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runDate, "date", "",
		"logical date to run for (YYYY-MM-DD, default: today UTC)")
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logicalDate := runDate
	if logicalDate == "" {
		logicalDate = time.Now().UTC().Format(pipeline.DateLayout)
	}

	if _, err := time.Parse(pipeline.DateLayout, logicalDate); err != nil {
		return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", logicalDate)
	}

	// Set up context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	st := store.NewStore(log, &cfg.Database)
	if err := st.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	defer func() {
		if err := st.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop store")
		}
	}()

	p, err := buildPipeline(ctx, cfg, st)
	if err != nil {
		return err
	}

	result := p.Run(ctx, logicalDate)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	fmt.Println(string(out))

	if !result.Succeeded() {
		return fmt.Errorf("run for %s %s: %s",
			result.LogicalDate, result.Status, result.Error)
	}

	return nil
}

// loadConfig loads and validates the configuration, then applies the
// configured log level unless --log-level was set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("config file is required (use --config)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if !cmd.Flags().Changed("log-level") {
		if level, err := logrus.ParseLevel(cfg.Global.LogLevel); err == nil {
			log.SetLevel(level)
		}
	}

	return cfg, nil
}

// buildPipeline wires the extractor, store, and optional archiver into
// a pipeline.
func buildPipeline(
	ctx context.Context, cfg *config.Config, st store.Store,
) (*pipeline.Pipeline, error) {
	client := nasa.NewClient(log, &cfg.NASA)
	p := pipeline.New(log, &cfg.Pipeline, client, st)

	if cfg.Archive.Enabled {
		archiver, err := archive.NewS3Archiver(log, &cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("initializing archiver: %w", err)
		}

		if err := archiver.Preflight(ctx); err != nil {
			return nil, fmt.Errorf("archive preflight: %w", err)
		}

		p.AttachArchiver(archiver)
	}

	return p, nil
}
