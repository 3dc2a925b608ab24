package db

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-tailor/internal/types"
)

// RunInputs holds the upstream artifacts of one run. Optional artifacts are nil when absent.
type RunInputs struct {
	Rubric     *types.Rubric
	Resume     *types.MasterResume
	Evidence   *types.EvidenceScores
	Relevance  *types.RelevanceMatrix
	Embeddings *types.BulletEmbeddings
	JobText    string
}

// MissingArtifactError reports a required artifact that has not been stored for a run
type MissingArtifactError struct {
	RunID string
	Step  string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("run %s has no %s artifact", e.RunID, e.Step)
}

// getJSON decodes the artifact for step into dst and reports whether it was present
func (db *DB) getJSON(ctx context.Context, runID, step string, dst any) (bool, error) {
	content, err := db.GetArtifact(ctx, runID, step)
	if err != nil {
		return false, err
	}
	if content == nil {
		return false, nil
	}
	if err := json.Unmarshal(content, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", step, err)
	}
	return true, nil
}

// GetRubricByRunID loads the job rubric for a run
func (db *DB) GetRubricByRunID(ctx context.Context, runID string) (*types.Rubric, error) {
	var rubric types.Rubric
	ok, err := db.getJSON(ctx, runID, StepRubric, &rubric)
	if err != nil || !ok {
		return nil, err
	}
	return &rubric, nil
}

// GetMasterResumeByRunID loads the master resume for a run
func (db *DB) GetMasterResumeByRunID(ctx context.Context, runID string) (*types.MasterResume, error) {
	var resume types.MasterResume
	ok, err := db.getJSON(ctx, runID, StepMasterResume, &resume)
	if err != nil || !ok {
		return nil, err
	}
	return &resume, nil
}

// GetEvidenceByRunID loads evidence scores for a run
func (db *DB) GetEvidenceByRunID(ctx context.Context, runID string) (*types.EvidenceScores, error) {
	var evidence types.EvidenceScores
	ok, err := db.getJSON(ctx, runID, StepEvidenceScores, &evidence)
	if err != nil || !ok {
		return nil, err
	}
	return &evidence, nil
}

// GetRelevanceByRunID loads the relevance matrix for a run
func (db *DB) GetRelevanceByRunID(ctx context.Context, runID string) (*types.RelevanceMatrix, error) {
	var matrix types.RelevanceMatrix
	ok, err := db.getJSON(ctx, runID, StepRelevanceMatrix, &matrix)
	if err != nil || !ok {
		return nil, err
	}
	return &matrix, nil
}

// GetEmbeddingsByRunID loads cached bullet embeddings for a run
func (db *DB) GetEmbeddingsByRunID(ctx context.Context, runID string) (*types.BulletEmbeddings, error) {
	var embeddings types.BulletEmbeddings
	ok, err := db.getJSON(ctx, runID, StepEmbeddings, &embeddings)
	if err != nil || !ok {
		return nil, err
	}
	return &embeddings, nil
}

// LoadRunInputs loads every artifact a selection run needs, concurrently.
// The rubric and master resume are required; the rest degrade to nil.
func (db *DB) LoadRunInputs(ctx context.Context, runID string) (*RunInputs, error) {
	var in RunInputs
	g, gCtx := errgroup.WithContext(ctx)

	// Each goroutine writes a distinct field, so no lock is needed.
	g.Go(func() (err error) {
		in.Rubric, err = db.GetRubricByRunID(gCtx, runID)
		return err
	})
	g.Go(func() (err error) {
		in.Resume, err = db.GetMasterResumeByRunID(gCtx, runID)
		return err
	})
	g.Go(func() (err error) {
		in.Evidence, err = db.GetEvidenceByRunID(gCtx, runID)
		return err
	})
	g.Go(func() (err error) {
		in.Relevance, err = db.GetRelevanceByRunID(gCtx, runID)
		return err
	})
	g.Go(func() (err error) {
		in.Embeddings, err = db.GetEmbeddingsByRunID(gCtx, runID)
		return err
	})
	g.Go(func() error {
		var text string
		ok, err := db.getJSON(gCtx, runID, StepJobText, &text)
		if ok {
			in.JobText = text
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if in.Rubric == nil {
		return nil, &MissingArtifactError{RunID: runID, Step: StepRubric}
	}
	if in.Resume == nil {
		return nil, &MissingArtifactError{RunID: runID, Step: StepMasterResume}
	}
	return &in, nil
}
