package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/selection"
	"github.com/jonathan/resume-tailor/internal/server/ratelimit"
	"github.com/jonathan/resume-tailor/internal/types"
)

type mockStore struct {
	mu        sync.Mutex
	inputs    map[string]*db.RunInputs
	plans     map[string]*types.SelectionPlan
	artifacts map[string][]db.ArtifactSummary
	lastLimit int
	pingErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		inputs:    map[string]*db.RunInputs{},
		plans:     map[string]*types.SelectionPlan{},
		artifacts: map[string][]db.ArtifactSummary{},
	}
}

func (m *mockStore) LoadRunInputs(_ context.Context, runID string) (*db.RunInputs, error) {
	in, ok := m.inputs[runID]
	if !ok {
		return nil, &db.MissingArtifactError{RunID: runID, Step: db.StepRubric}
	}
	cp := *in
	return &cp, nil
}

func (m *mockStore) SaveArtifact(_ context.Context, runID, step, category string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[runID] = append(m.artifacts[runID], db.ArtifactSummary{
		ID: uuid.New(), Step: step, Category: category, CreatedAt: time.Now(),
	})
	return nil
}

func (m *mockStore) SaveSelectionPlan(_ context.Context, plan *types.SelectionPlan, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[plan.RunID]; ok {
		return false, nil
	}
	m.plans[plan.RunID] = plan
	return true, nil
}

func (m *mockStore) GetSelectionPlan(_ context.Context, runID string) (*types.SelectionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.plans[runID], nil
}

func (m *mockStore) GetRubricByRunID(_ context.Context, runID string) (*types.Rubric, error) {
	if in, ok := m.inputs[runID]; ok {
		return in.Rubric, nil
	}
	return nil, nil
}

func (m *mockStore) ListPlanRunIDs(_ context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	var ids []string
	for id := range m.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *mockStore) ListArtifacts(_ context.Context, runID string) ([]db.ArtifactSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.artifacts[runID], nil
}

func (m *mockStore) DeleteRun(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, hasInputs := m.inputs[runID]
	_, hasPlan := m.plans[runID]
	if !hasInputs && !hasPlan && len(m.artifacts[runID]) == 0 {
		return fmt.Errorf("%w: %s", db.ErrRunNotFound, runID)
	}
	delete(m.inputs, runID)
	delete(m.plans, runID)
	delete(m.artifacts, runID)
	return nil
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func seedRun(m *mockStore, runID string) {
	m.inputs[runID] = &db.RunInputs{
		Rubric: &types.Rubric{
			Requirements: []types.Requirement{
				{ReqID: "R1", Type: types.RequirementMust, Weight: 1, Text: "Go services"},
				{ReqID: "R2", Type: types.RequirementMust, Weight: 1, Text: "Kubernetes operations"},
			},
			TopKeywords: []string{"go", "kubernetes"},
		},
		Resume: &types.MasterResume{
			Parents: []types.Parent{{ID: "exp1", Type: types.ParentExperience}},
			Bullets: []types.CandidateBullet{
				{BulletID: "b1", ParentID: "exp1", ParentType: types.ParentExperience, Text: "Built Go services"},
			},
		},
		Evidence: &types.EvidenceScores{Bullets: []types.EvidenceScore{{BulletID: "b1", Score: 0.9, Tier: types.TierStrong}}},
		Relevance: &types.RelevanceMatrix{PerRequirementTopBullets: map[string][]types.ScoredBullet{
			"R1": {{BulletID: "b1", Score: 0.9}},
		}},
	}
	for _, step := range []string{db.StepRubric, db.StepMasterResume, db.StepEvidenceScores, db.StepRelevanceMatrix} {
		m.artifacts[runID] = append(m.artifacts[runID], db.ArtifactSummary{
			ID: uuid.New(), Step: step, Category: db.CategoryInput, CreatedAt: time.Now(),
		})
	}
}

func newTestServer(store *mockStore) *Server {
	return New(store, Config{RateLimit: &ratelimit.Config{Enabled: false}})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	store := newMockStore()
	s := newTestServer(store)

	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])

	store.pingErr = errors.New("connection refused")
	w = do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestCreateSelectionPlan(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_1")
	s := newTestServer(store)

	w := do(t, s, http.MethodPost, "/runs/run_1/selection-plan", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp SelectionPlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Created)
	assert.Equal(t, "run_1", resp.Plan.RunID)
	assert.Equal(t, 1, resp.Plan.Coverage.MustCovered)

	// Plans are immutable: a second POST returns the stored plan.
	w = do(t, s, http.MethodPost, "/runs/run_1/selection-plan", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Created)
}

func TestCreateSelectionPlan_ConfigOverride(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_1")
	s := newTestServer(store)

	body := `{"config": {
		"config_version": "custom_v2",
		"budgets": {"experience_bullets_min": 0, "experience_bullets_max": 1, "project_bullets_min": 0,
			"project_bullets_max": 0, "award_lines_min": 0, "award_lines_max": 0,
			"per_role_caps": {"most_recent": 1, "next": 1, "older": 1}, "max_bullets_per_requirement": 1},
		"thresholds": {"must_min_rel": 0.3, "nice_min_rel": 0.3, "cover_threshold": 0.4,
			"redundancy": {"hard_block": 0.9, "penalty_start": 0.8}},
		"weights": {"edge": {"w_rel": 0.6, "w_evd": 0.35, "w_red": 0.2, "w_risk": 0.15},
			"fill": {"alpha": 0.5, "beta": 0.3, "gamma": 0.2}}
	}}`
	w := do(t, s, http.MethodPost, "/runs/run_1/selection-plan", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp SelectionPlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "custom_v2", resp.Plan.Config.ConfigVersion)
}

func TestCreateSelectionPlan_Errors(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_bad")
	store.inputs["run_bad"].Rubric.Requirements[1].Weight = -1
	s := newTestServer(store)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"missing artifacts", "/runs/unknown/selection-plan", "", http.StatusNotFound},
		{"invalid json", "/runs/run_bad/selection-plan", "{not json", http.StatusBadRequest},
		{"unknown config field", "/runs/run_bad/selection-plan", `{"config": {"bogus": 1}}`, http.StatusBadRequest},
		{"invalid rubric", "/runs/run_bad/selection-plan", "", http.StatusUnprocessableEntity},
		{"run id too long", "/runs/" + strings.Repeat("x", 129) + "/selection-plan", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
	assert.Empty(t, store.plans)
}

func TestGetSelectionPlan(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_1")
	s := newTestServer(store)

	w := do(t, s, http.MethodGet, "/runs/run_1/selection-plan", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	do(t, s, http.MethodPost, "/runs/run_1/selection-plan", "")

	w = do(t, s, http.MethodGet, "/runs/run_1/selection-plan", "")
	require.Equal(t, http.StatusOK, w.Code)
	var plan types.SelectionPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, types.SelectionPlanVersion, plan.Version)
}

func TestGetInsights(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_1")
	s := newTestServer(store)

	w := do(t, s, http.MethodGet, "/runs/run_1/insights", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	do(t, s, http.MethodPost, "/runs/run_1/selection-plan", "")

	w = do(t, s, http.MethodGet, "/runs/run_1/insights", "")
	require.Equal(t, http.StatusOK, w.Code)

	var insights selection.Insights
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &insights))
	assert.Equal(t, "run_1", insights.RunID)
	assert.Equal(t, []string{"Kubernetes operations"}, insights.UncoveredRequirements)
	assert.Equal(t, []string{"go", "kubernetes"}, insights.TopKeywords)
	require.NotNil(t, insights.CoveragePercent)
	assert.Equal(t, 35, *insights.CoveragePercent)
}

func TestListRuns(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_a")
	seedRun(store, "run_b")
	s := newTestServer(store)

	w := do(t, s, http.MethodGet, "/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp RunListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotNil(t, resp.RunIDs)
	assert.Empty(t, resp.RunIDs)

	do(t, s, http.MethodPost, "/runs/run_a/selection-plan", "")
	do(t, s, http.MethodPost, "/runs/run_b/selection-plan", "")

	w = do(t, s, http.MethodGet, "/runs?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"run_a"}, resp.RunIDs)
	assert.Equal(t, 1, store.lastLimit)

	for _, limit := range []string{"abc", "-1", "501"} {
		w = do(t, s, http.MethodGet, "/runs?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
}

func TestListArtifacts(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_1")
	s := newTestServer(store)

	w := do(t, s, http.MethodGet, "/runs/unknown/artifacts", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	do(t, s, http.MethodPost, "/runs/run_1/selection-plan", "")

	w = do(t, s, http.MethodGet, "/runs/run_1/artifacts", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp ArtifactListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "run_1", resp.RunID)

	steps := make([]string, 0, len(resp.Artifacts))
	for _, a := range resp.Artifacts {
		steps = append(steps, a.Step)
	}
	assert.Contains(t, steps, db.StepRubric)
	assert.Contains(t, steps, db.StepSelectionDebug)
}

func TestDeleteRun(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_1")
	s := newTestServer(store)
	do(t, s, http.MethodPost, "/runs/run_1/selection-plan", "")

	w := do(t, s, http.MethodDelete, "/runs/run_1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())

	w = do(t, s, http.MethodGet, "/runs/run_1/selection-plan", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/runs/run_1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "run not found")
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer(newMockStore())

	w := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))

	w = do(t, s, http.MethodOptions, "/runs/run_1/selection-plan", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len(), "OPTIONS response should have empty body")
}

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	s := newTestServer(newMockStore())

	called := false
	handler := s.withLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRateLimit(t *testing.T) {
	store := newMockStore()
	seedRun(store, "run_1")
	s := New(store, Config{RateLimit: &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Hour,
	}})
	defer s.rateLimiter.Stop()

	for i := 0; i < 2; i++ {
		w := do(t, s, http.MethodGet, "/runs/run_1/selection-plan", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := do(t, s, http.MethodGet, "/runs/run_1/selection-plan", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestServerStart_StopsOnCancel(t *testing.T) {
	s := New(newMockStore(), Config{Port: 0, RateLimit: &ratelimit.Config{Enabled: false}})
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
