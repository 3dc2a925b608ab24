package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/selection"
	"github.com/jonathan/resume-tailor/internal/types"
)

// readJSON decodes the file at path into v
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v indented to path, or to stdout when path is empty
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// loadFileInputs reads the run inputs named in cfg concurrently.
// Rubric and master resume are required; the rest are optional.
func loadFileInputs(ctx context.Context, cfg config.Config, jobTextPath string) (selection.Inputs, error) {
	var in selection.Inputs
	if cfg.Rubric == "" {
		return in, fmt.Errorf("--rubric is required")
	}
	if cfg.MasterResume == "" {
		return in, fmt.Errorf("--resume is required")
	}

	in.Rubric = &types.Rubric{}
	in.Resume = &types.MasterResume{}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { return readJSON(cfg.Rubric, in.Rubric) })
	g.Go(func() error { return readJSON(cfg.MasterResume, in.Resume) })
	if cfg.Evidence != "" {
		in.Evidence = &types.EvidenceScores{}
		g.Go(func() error { return readJSON(cfg.Evidence, in.Evidence) })
	}
	if cfg.Relevance != "" {
		in.Relevance = &types.RelevanceMatrix{}
		g.Go(func() error { return readJSON(cfg.Relevance, in.Relevance) })
	}
	if cfg.Embeddings != "" {
		in.Embeddings = &types.BulletEmbeddings{}
		g.Go(func() error { return readJSON(cfg.Embeddings, in.Embeddings) })
	}
	if cfg.SelectionConfig != "" {
		g.Go(func() error {
			sel, hash, err := config.LoadSelection(cfg.SelectionConfig)
			if err != nil {
				return err
			}
			in.Config, in.ConfigHash = sel, hash
			return nil
		})
	}
	if jobTextPath != "" {
		g.Go(func() error {
			data, err := os.ReadFile(jobTextPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", jobTextPath, err)
			}
			in.JobText = string(data)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return selection.Inputs{}, err
	}
	return in, nil
}
