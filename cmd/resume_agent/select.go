package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/embeddings"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/selection"
	"github.com/jonathan/resume-tailor/internal/types"
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select bullets for a job from local input files",
	Long: `Reads the job rubric, master resume, evidence scores and relevance matrix, selects the bullets
that best cover the job's requirements under the configured budgets, and writes the selection plan.

Configuration can be loaded from a file using --config. Command-line flags override config file values,
which override environment variables.`,
	RunE: runSelect,
}

var (
	selectConfigPath string
	selectFlags      config.Config
	selectJobText    string
	selectRunID      string
	selectOut        string
	selectDebugOut   string
	selectEmbed      bool
)

func init() {
	selectCmd.Flags().StringVar(&selectConfigPath, "config", "", "Path to a config file (json, yaml or toml)")

	selectCmd.Flags().StringVarP(&selectFlags.Rubric, "rubric", "r", "", "Path to jd_rubric.json")
	selectCmd.Flags().StringVar(&selectFlags.MasterResume, "resume", "", "Path to the master resume JSON")
	selectCmd.Flags().StringVarP(&selectFlags.Evidence, "evidence", "e", "", "Path to evidence_scores.json")
	selectCmd.Flags().StringVar(&selectFlags.Relevance, "relevance", "", "Path to relevance_matrix.json")
	selectCmd.Flags().StringVar(&selectFlags.Embeddings, "embeddings", "", "Path to cached bullet embeddings")
	selectCmd.Flags().StringVar(&selectFlags.SelectionConfig, "selection-config", "", "Path to a selection config (defaults used if empty)")
	selectCmd.Flags().StringVar(&selectJobText, "job-text", "", "Path to the raw job text, hashed into the plan")
	selectCmd.Flags().StringVar(&selectRunID, "run-id", "", "Run ID (generated when empty)")
	selectCmd.Flags().StringVarP(&selectOut, "out", "o", "", "Output path for the selection plan (stdout if empty)")
	selectCmd.Flags().StringVar(&selectDebugOut, "debug-out", "", "Output path for the selection debug report")
	selectCmd.Flags().BoolVar(&selectEmbed, "embed", false, "Compute bullet embeddings with Gemini when none are given")
	selectCmd.Flags().StringVar(&selectFlags.APIKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	selectCmd.Flags().StringVar(&selectFlags.EmbeddingModel, "embedding-model", "", "Gemini embedding model")
	selectCmd.Flags().StringVar(&selectFlags.DatabaseURL, "db-url", "", "Store inputs and plan in this database (optional)")
	selectCmd.Flags().BoolVarP(&selectFlags.Verbose, "verbose", "v", false, "Print a plan summary to stderr")

	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, _ []string) error {
	ctx := baseContext(cmd)
	log := newLogger()
	defer func() { _ = log.Sync() }()

	cfg, err := resolveConfig(selectConfigPath, selectFlags)
	if err != nil {
		return err
	}

	in, err := loadFileInputs(ctx, cfg, selectJobText)
	if err != nil {
		return err
	}
	in.RunID = selectRunID
	if in.RunID == "" {
		in.RunID = uuid.NewString()
	}
	if in.Config == nil {
		def := config.DefaultSelection()
		in.Config = &def
	}
	if in.ConfigHash == "" {
		if in.ConfigHash, err = config.HashSelection(in.Config); err != nil {
			return err
		}
	}

	if selectEmbed && in.Embeddings == nil {
		in.Embeddings = embedResume(ctx, cfg, in.Resume, log)
	}

	result, err := selection.SelectPlan(ctx, in, selection.WithLogger(log))
	if err != nil {
		return fmt.Errorf("selection failed: %w", err)
	}
	if err := schemas.ValidatePlan(result.Plan); err != nil {
		return fmt.Errorf("plan failed schema validation: %w", err)
	}

	if cfg.DatabaseURL != "" {
		if err := storeRun(ctx, cfg.DatabaseURL, in, result, log); err != nil {
			return err
		}
	}

	if err := writeJSON(selectOut, result.Plan); err != nil {
		return err
	}
	if selectDebugOut != "" {
		if err := writeJSON(selectDebugOut, result.Debug); err != nil {
			return err
		}
	}

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stderr)
		printer.PrintRubric(in.Rubric)
		printer.PrintSelectionPlan(result.Plan)
		printer.PrintSelectionNotes(result.Plan.SelectionNotes)
	}
	if selectOut != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Selection plan written to %s (run: %s)\n", selectOut, in.RunID)
	}
	return nil
}

// embedResume computes bullet embeddings, returning nil so selection falls
// back to lexical similarity when the provider is unavailable
func embedResume(ctx context.Context, cfg config.Config, resume *types.MasterResume, log *zap.Logger) *types.BulletEmbeddings {
	client, err := embeddings.NewClient(ctx, embeddings.DefaultConfig().WithModel(cfg.EmbeddingModel), cfg.APIKey)
	if err != nil {
		log.Warn("embeddings unavailable, using lexical similarity", zap.Error(err))
		return nil
	}
	defer func() { _ = client.Close() }()

	embedded, err := embeddings.EmbedBullets(ctx, client, resume)
	if err != nil {
		log.Warn("embedding failed, using lexical similarity", zap.Error(err))
		return nil
	}
	return embedded
}

// storeRun saves the run's inputs as artifacts and its plan, so the API and
// worker can serve it later
func storeRun(ctx context.Context, databaseURL string, in selection.Inputs, result *selection.Result, log *zap.Logger) error {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}

	artifacts := []struct {
		step    string
		content any
		present bool
	}{
		{db.StepRubric, in.Rubric, true},
		{db.StepMasterResume, in.Resume, true},
		{db.StepEvidenceScores, in.Evidence, in.Evidence != nil},
		{db.StepRelevanceMatrix, in.Relevance, in.Relevance != nil},
		{db.StepEmbeddings, in.Embeddings, in.Embeddings != nil},
		{db.StepJobText, in.JobText, in.JobText != ""},
	}
	for _, a := range artifacts {
		if !a.present {
			continue
		}
		if err := database.SaveArtifact(ctx, in.RunID, a.step, db.CategoryInput, a.content); err != nil {
			return fmt.Errorf("failed to save %s: %w", a.step, err)
		}
	}

	stored, err := database.SaveSelectionPlan(ctx, result.Plan, result.Debug.ConfigHash)
	if err != nil {
		return fmt.Errorf("failed to save selection plan: %w", err)
	}
	if !stored {
		log.Warn("a plan for this run already exists, keeping the stored plan", zap.String("run_id", in.RunID))
		return nil
	}
	if err := database.SaveArtifact(ctx, in.RunID, db.StepSelectionDebug, db.CategorySelection, result.Debug); err != nil {
		return fmt.Errorf("failed to save selection debug: %w", err)
	}
	log.Info("stored selection run", zap.String("run_id", in.RunID))
	return nil
}
