package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/queue"
	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/selection"
)

var (
	workerConfigPath string
	workerFlags      config.Config
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume selection requests from RabbitMQ",
	Long: `Runs selection for every run_id published on the selection queue, storing plans in the database
and publishing processing/completed/failed updates on the selection_updates exchange.`,
	RunE: runWorker,
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <run_id>",
	Short: "Publish a selection request for a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnqueue,
}

func init() {
	for _, cmd := range []*cobra.Command{workerCmd, enqueueCmd} {
		cmd.Flags().StringVar(&workerConfigPath, "config", "", "Path to a config file (json, yaml or toml)")
		cmd.Flags().StringVar(&workerFlags.AMQPURL, "amqp-url", "", "RabbitMQ URL (defaults to AMQP_URL)")
		cmd.Flags().StringVar(&workerFlags.Queue, "queue", "", "Queue name (default "+queue.DefaultQueue+")")
	}
	workerCmd.Flags().StringVar(&workerFlags.DatabaseURL, "db-url", "", "Database URL (defaults to DATABASE_URL)")
	workerCmd.Flags().StringVar(&workerFlags.SelectionConfig, "selection-config", "", "Selection config for every run")
	workerCmd.Flags().IntVar(&workerFlags.WorkerConcurrency, "concurrency", 0, "Runs processed in parallel (default 4)")

	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(enqueueCmd)
}

func resolveQueueConfig() (config.Config, error) {
	cfg, err := resolveConfig(workerConfigPath, workerFlags)
	if err != nil {
		return cfg, err
	}
	cfg = cfg.MergeWithDefaults(config.Config{Queue: queue.DefaultQueue, WorkerConcurrency: 4})
	if cfg.AMQPURL == "" {
		return cfg, fmt.Errorf("AMQP_URL not set (set AMQP_URL environment variable or use --amqp-url flag)")
	}
	return cfg, nil
}

func runWorker(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	cfg, err := resolveQueueConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(baseContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	consumer := queue.NewConsumer(queue.ConsumerConfig{
		URL:         cfg.AMQPURL,
		Queue:       cfg.Queue,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      log,
	}, selectionHandler(svc.db, pipeline.RunOptions{
		Config:     svc.selection,
		ConfigHash: svc.configHash,
		Embedder:   svc.embedder,
		Logger:     log,
	}))

	return consumer.Run(ctx)
}

// selectionHandler runs one stored run, marking failures retrying cannot fix
func selectionHandler(store pipeline.Store, opts pipeline.RunOptions) queue.Handler {
	return func(ctx context.Context, req queue.Request) error {
		_, err := pipeline.RunSelection(ctx, store, req.RunID, opts)
		return classify(err)
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var missing *db.MissingArtifactError
	var invalid *schemas.ValidationError
	switch {
	case errors.Is(err, selection.ErrInvalidInput),
		errors.As(err, &missing),
		errors.As(err, &invalid):
		return queue.Permanent(err)
	}
	return err
}

func runEnqueue(_ *cobra.Command, args []string) error {
	cfg, err := resolveQueueConfig()
	if err != nil {
		return err
	}
	if err := queue.Enqueue(cfg.AMQPURL, cfg.Queue, args[0]); err != nil {
		return fmt.Errorf("failed to enqueue run %s: %w", args[0], err)
	}
	newLogger().Info("enqueued selection request", zap.String("run_id", args[0]), zap.String("queue", cfg.Queue))
	return nil
}
