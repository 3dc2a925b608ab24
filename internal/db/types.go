package db

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactStep constants for the artifacts a selection run reads and writes
const (
	StepRubric          = "jd_rubric"
	StepMasterResume    = "master_resume"
	StepEvidenceScores  = "evidence_scores"
	StepRelevanceMatrix = "relevance_matrix"
	StepEmbeddings      = "bullet_embeddings"
	StepJobText         = "job_text"
	StepSelectionDebug  = "selection_debug"
)

// Artifact categories
const (
	CategoryInput     = "input"
	CategorySelection = "selection"
)

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredPlan is a persisted selection plan row
type StoredPlan struct {
	RunID      string    `json:"run_id"`
	PlanHash   string    `json:"plan_hash"`
	ConfigHash string    `json:"config_hash"`
	Plan       []byte    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS artifacts (
		id UUID PRIMARY KEY,
		run_id TEXT NOT NULL,
		step TEXT NOT NULL,
		category TEXT,
		content JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (run_id, step)
	)`,
	`CREATE TABLE IF NOT EXISTS selection_plans (
		run_id TEXT PRIMARY KEY,
		plan_hash TEXT NOT NULL,
		config_hash TEXT NOT NULL,
		plan JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts (run_id)`,
}
