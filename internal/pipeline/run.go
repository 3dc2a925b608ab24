// Package pipeline orchestrates one selection run against stored artifacts:
// load inputs, embed bullets when needed, select, validate and persist.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/embeddings"
	"github.com/jonathan/resume-tailor/internal/schemas"
	"github.com/jonathan/resume-tailor/internal/selection"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Store is the persistence the pipeline needs. *db.DB implements it.
type Store interface {
	LoadRunInputs(ctx context.Context, runID string) (*db.RunInputs, error)
	SaveArtifact(ctx context.Context, runID, step, category string, content any) error
	SaveSelectionPlan(ctx context.Context, plan *types.SelectionPlan, configHash string) (bool, error)
	GetSelectionPlan(ctx context.Context, runID string) (*types.SelectionPlan, error)
}

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for one selection run
type RunOptions struct {
	// Config defaults to the built-in selection config when nil
	Config     *types.SelectionConfig
	ConfigHash string
	// Embedder computes bullet embeddings for runs that have none stored. Optional.
	Embedder   embeddings.Embedder
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// Outcome is the result of RunSelection
type Outcome struct {
	Plan *types.SelectionPlan
	// Debug is nil when the plan already existed and selection was skipped
	Debug *selection.Debug
	// Created is false when a plan for the run was already stored
	Created bool
}

func (o RunOptions) emit(runID, step, message string) {
	if o.OnProgress != nil {
		o.OnProgress(ProgressEvent{Step: step, Message: message, RunID: runID})
	}
}

// RunSelection builds and stores the selection plan for runID. Plans are immutable:
// when the run already has a plan it is returned unchanged and nothing is recomputed.
func RunSelection(ctx context.Context, store Store, runID string, opts RunOptions) (*Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", runID))

	existing, err := store.GetSelectionPlan(ctx, runID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("selection plan already stored")
		return &Outcome{Plan: existing}, nil
	}

	opts.emit(runID, "load_inputs", "Loading run artifacts")
	stored, err := store.LoadRunInputs(ctx, runID)
	if err != nil {
		return nil, err
	}

	if stored.Embeddings == nil && opts.Embedder != nil {
		opts.emit(runID, "embed_bullets", "Embedding resume bullets")
		vectors, err := embeddings.EmbedBullets(ctx, opts.Embedder, stored.Resume)
		if err != nil {
			// Redundancy falls back to lexical similarity without vectors.
			logger.Warn("bullet embedding failed", zap.Error(err))
		} else {
			stored.Embeddings = vectors
			if err := store.SaveArtifact(ctx, runID, db.StepEmbeddings, db.CategoryInput, vectors); err != nil {
				logger.Warn("failed to cache bullet embeddings", zap.Error(err))
			}
		}
	}

	opts.emit(runID, "select_plan", "Selecting bullets")
	result, err := selection.SelectPlan(ctx, selection.Inputs{
		RunID:      runID,
		Rubric:     stored.Rubric,
		Resume:     stored.Resume,
		Evidence:   stored.Evidence,
		Relevance:  stored.Relevance,
		Embeddings: stored.Embeddings,
		Config:     opts.Config,
		ConfigHash: opts.ConfigHash,
		JobText:    stored.JobText,
	}, selection.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidatePlan(result.Plan); err != nil {
		return nil, fmt.Errorf("selection plan failed schema validation: %w", err)
	}

	opts.emit(runID, "save_plan", "Saving selection plan")
	created, err := store.SaveSelectionPlan(ctx, result.Plan, result.Debug.ConfigHash)
	if err != nil {
		return nil, err
	}
	if !created {
		// Another worker stored a plan first; that plan wins.
		winner, err := store.GetSelectionPlan(ctx, runID)
		if err != nil {
			return nil, err
		}
		logger.Info("selection plan stored concurrently, keeping first write")
		return &Outcome{Plan: winner}, nil
	}

	if err := store.SaveArtifact(ctx, runID, db.StepSelectionDebug, db.CategorySelection, result.Debug); err != nil {
		logger.Warn("failed to save selection debug", zap.Error(err))
	}

	logger.Info("selection run complete",
		zap.Int("must_covered", result.Plan.Coverage.MustCovered),
		zap.Int("must_total", result.Plan.Coverage.MustTotal))
	return &Outcome{Plan: result.Plan, Debug: &result.Debug, Created: true}, nil
}
