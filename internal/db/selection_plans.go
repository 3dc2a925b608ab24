package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/types"
)

// SaveSelectionPlan persists a plan keyed by its run ID. The first write for a run wins:
// saving again is a no-op and reports stored=false, so retried deliveries never overwrite a plan.
// configHash is the hash the run recorded for its config; when empty it is computed from plan.Config.
func (db *DB) SaveSelectionPlan(ctx context.Context, plan *types.SelectionPlan, configHash string) (stored bool, err error) {
	row, err := newPlanRow(plan, configHash)
	if err != nil {
		return false, err
	}

	tag, err := db.pool.Exec(ctx,
		`INSERT INTO selection_plans (run_id, plan_hash, config_hash, plan)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id) DO NOTHING`,
		row.RunID, row.PlanHash, row.ConfigHash, row.Plan,
	)
	if err != nil {
		return false, fmt.Errorf("failed to save selection plan: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// newPlanRow builds the selection_plans row for plan
func newPlanRow(plan *types.SelectionPlan, configHash string) (*StoredPlan, error) {
	if plan == nil || plan.RunID == "" {
		return nil, fmt.Errorf("selection plan must have a run_id")
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal selection plan: %w", err)
	}
	if configHash == "" {
		if configHash, err = config.HashSelection(&plan.Config); err != nil {
			return nil, err
		}
	}
	return &StoredPlan{
		RunID:      plan.RunID,
		PlanHash:   config.HashBytes(data),
		ConfigHash: configHash,
		Plan:       data,
	}, nil
}

// GetStoredPlan retrieves the raw plan row for a run, or nil when no plan exists
func (db *DB) GetStoredPlan(ctx context.Context, runID string) (*StoredPlan, error) {
	var sp StoredPlan
	err := db.pool.QueryRow(ctx,
		`SELECT run_id, plan_hash, config_hash, plan, created_at
		 FROM selection_plans WHERE run_id = $1`,
		runID,
	).Scan(&sp.RunID, &sp.PlanHash, &sp.ConfigHash, &sp.Plan, &sp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get selection plan: %w", err)
	}
	return &sp, nil
}

// GetSelectionPlan loads the decoded plan for a run, or nil when no plan exists
func (db *DB) GetSelectionPlan(ctx context.Context, runID string) (*types.SelectionPlan, error) {
	sp, err := db.GetStoredPlan(ctx, runID)
	if err != nil || sp == nil {
		return nil, err
	}

	var plan types.SelectionPlan
	if err := json.Unmarshal(sp.Plan, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selection plan: %w", err)
	}
	return &plan, nil
}

// ListPlanRunIDs returns the run IDs with a stored plan, newest first
func (db *DB) ListPlanRunIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT run_id FROM selection_plans ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list selection plans: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
