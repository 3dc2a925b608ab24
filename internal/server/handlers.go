package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/pipeline"
	"github.com/jonathan/resume-tailor/internal/selection"
	"github.com/jonathan/resume-tailor/internal/types"
)

// maxRequestBody bounds the size of a selection-plan request body
const maxRequestBody = 1 << 20

var validate = validator.New()

// runPath carries the path parameters shared by the run routes
type runPath struct {
	RunID string `validate:"required,max=128,printascii,excludesall=/?#"`
}

// listRunsQuery carries the query parameters of GET /runs
type listRunsQuery struct {
	Limit int `validate:"min=0,max=500"`
}

// SelectionPlanRequest is the optional body of POST /runs/{run_id}/selection-plan
type SelectionPlanRequest struct {
	// Config overrides the server's selection config for this run
	Config json.RawMessage `json:"config,omitempty"`
}

// SelectionPlanResponse wraps a plan with whether this request created it
type SelectionPlanResponse struct {
	Created bool                 `json:"created"`
	Plan    *types.SelectionPlan `json:"plan"`
}

// RunListResponse lists the runs that have a stored plan, newest first
type RunListResponse struct {
	RunIDs []string `json:"run_ids"`
}

// ArtifactListResponse lists the artifacts stored for a run
type ArtifactListResponse struct {
	RunID     string               `json:"run_id"`
	Artifacts []db.ArtifactSummary `json:"artifacts"`
}

func (s *Server) runID(r *http.Request) (string, error) {
	p := runPath{RunID: r.PathValue("run_id")}
	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return "", &ErrValidation{Field: "run_id", Message: "failed '" + fieldErrs[0].Tag() + "' check"}
		}
		return "", &ErrValidation{Field: "run_id", Message: err.Error()}
	}
	return p.RunID, nil
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.errorResponse(w, status, err.Error())
}

// handleCreateSelectionPlan builds the plan for a run from its stored artifacts.
// It returns 201 when the plan is new and 200 with the stored plan otherwise.
func (s *Server) handleCreateSelectionPlan(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var req SelectionPlanRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		s.fail(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.fail(w, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
			return
		}
	}

	cfg, hash := s.selection, s.configHash
	if len(req.Config) > 0 {
		cfg, hash, err = config.ParseSelection(req.Config)
		if err != nil {
			var cfgErr *config.SelectionValidationError
			if errors.As(err, &cfgErr) {
				s.fail(w, err)
				return
			}
			s.fail(w, &ErrValidation{Field: "config", Message: err.Error()})
			return
		}
	}

	outcome, err := pipeline.RunSelection(r.Context(), s.store, runID, pipeline.RunOptions{
		Config:     cfg,
		ConfigHash: hash,
		Embedder:   s.embedder,
		Logger:     s.logger,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	status := http.StatusOK
	if outcome.Created {
		status = http.StatusCreated
	}
	s.jsonResponse(w, status, SelectionPlanResponse{Created: outcome.Created, Plan: outcome.Plan})
}

// handleGetSelectionPlan returns the stored plan for a run
func (s *Server) handleGetSelectionPlan(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	plan, err := s.store.GetSelectionPlan(r.Context(), runID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if plan == nil {
		s.fail(w, &ErrNotFound{RunID: runID, Resource: "selection plan"})
		return
	}
	s.jsonResponse(w, http.StatusOK, plan)
}

// handleGetInsights returns the display summary derived from a run's plan and rubric
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	plan, err := s.store.GetSelectionPlan(r.Context(), runID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if plan == nil {
		s.fail(w, &ErrNotFound{RunID: runID, Resource: "selection plan"})
		return
	}

	rubric, err := s.store.GetRubricByRunID(r.Context(), runID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, selection.BuildInsights(plan, rubric))
}

// handleListRuns returns the runs with a stored plan. limit defaults to 50.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	var q listRunsQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.fail(w, &ErrValidation{Field: "limit", Message: "must be an integer"})
			return
		}
		q.Limit = n
	}
	if err := validate.Struct(q); err != nil {
		s.fail(w, &ErrValidation{Field: "limit", Message: "must be between 0 and 500"})
		return
	}

	ids, err := s.store.ListPlanRunIDs(r.Context(), q.Limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.jsonResponse(w, http.StatusOK, RunListResponse{RunIDs: ids})
}

// handleListArtifacts returns the artifacts stored for a run, without their content
func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	artifacts, err := s.store.ListArtifacts(r.Context(), runID)
	if err != nil {
		s.fail(w, err)
		return
	}
	if len(artifacts) == 0 {
		s.fail(w, &ErrNotFound{RunID: runID, Resource: "artifacts"})
		return
	}
	s.jsonResponse(w, http.StatusOK, ArtifactListResponse{RunID: runID, Artifacts: artifacts})
}

// handleDeleteRun removes a run's artifacts and plan
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runID(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("deleted run", zap.String("run_id", runID))
	w.WriteHeader(http.StatusNoContent)
}
