package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/server"
)

var (
	serveConfigPath string
	serveFlags      config.Config
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that creates and serves selection plans for runs stored in the database.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a config file (json, yaml or toml)")
	serveCmd.Flags().IntVar(&serveFlags.Port, "port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().StringVar(&serveFlags.DatabaseURL, "db-url", "", "Database URL (defaults to DATABASE_URL)")
	serveCmd.Flags().StringVar(&serveFlags.SelectionConfig, "selection-config", "", "Selection config used when a request carries none")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	cfg, err := resolveConfig(serveConfigPath, serveFlags)
	if err != nil {
		return err
	}
	cfg = cfg.MergeWithDefaults(config.Config{Port: 8080})

	ctx, stop := signal.NotifyContext(baseContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := openServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv := server.New(svc.db, server.Config{
		Port:       cfg.Port,
		Logger:     log,
		Selection:  svc.selection,
		ConfigHash: svc.configHash,
		Embedder:   svc.embedder,
	})

	return srv.Start(ctx)
}

func baseContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
