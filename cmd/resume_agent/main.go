// Package main provides the resume_agent CLI: selection runs from files, plan
// inspection, the HTTP API and the queue worker.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/logger"
)

var (
	logDebug bool
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "resume_agent",
	Short: "Resume Tailor selection engine",
	Long:  "Resume Tailor picks the bullets, projects and awards that best cover a job's requirements under a fixed space budget, and reports what it could not cover.",
	// Errors are printed once by main
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	return logger.NewOrNop(logJSON, logDebug)
}

// resolveConfig merges flag values over the --config file and the environment,
// in that order of precedence
func resolveConfig(path string, flags config.Config) (config.Config, error) {
	merged := flags
	if path != "" {
		fileCfg, err := config.LoadConfig(path)
		if err != nil {
			return merged, fmt.Errorf("failed to load config: %w", err)
		}
		merged = merged.MergeWithDefaults(*fileCfg)
		merged.Verbose = flags.Verbose || fileCfg.Verbose
	}
	merged = merged.MergeWithDefaults(config.FromEnv())

	if err := merged.Validate(); err != nil {
		return merged, err
	}
	return merged, nil
}
