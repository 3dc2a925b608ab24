package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Inputs are the resolved, read-only inputs of one selection run.
// Evidence, Relevance and Embeddings may be nil; missing data degrades the plan instead of failing it.
type Inputs struct {
	RunID      string
	Rubric     *types.Rubric
	Resume     *types.MasterResume
	Evidence   *types.EvidenceScores
	Relevance  *types.RelevanceMatrix
	Embeddings *types.BulletEmbeddings
	// Config defaults to config.DefaultSelection when nil
	Config *types.SelectionConfig
	// ConfigHash is the hash of the raw config bytes, when the config was loaded from a file
	ConfigHash string
	// JobText is hashed for job_extracted_hash when the rubric carries no raw_text_hash
	JobText string
}

// Debug describes how a run reached its plan. It is not part of the plan.
type Debug struct {
	OrderedRequirements []string       `json:"ordered_requirements"`
	CandidateCounts     map[string]int `json:"candidate_counts"`
	ConfigHash          string         `json:"config_hash"`
	DurationMS          int64          `json:"duration_ms"`
}

// Result is the output of SelectPlan
type Result struct {
	Plan  *types.SelectionPlan
	Debug Debug
}

type options struct {
	logger *zap.Logger
}

// Option configures SelectPlan
type Option func(*options)

// WithLogger sets the logger used for per-decision debug logs
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// SelectPlan runs guard, cover and fill selection and assembles the plan.
// Cancellation is only observed before any state is created; once selection
// starts it runs to completion. Malformed input returns an *InputError.
func SelectPlan(ctx context.Context, in Inputs, opts ...Option) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With(zap.String("run_id", in.RunID))

	if in.Config == nil {
		cfg := config.DefaultSelection()
		in.Config = &cfg
	}
	if err := validateInputs(&in); err != nil {
		return nil, err
	}

	configHash := in.ConfigHash
	if configHash == "" {
		h, err := config.HashSelection(in.Config)
		if err != nil {
			return nil, &Error{Message: "failed to hash selection config", Cause: err}
		}
		configHash = h
	}

	start := time.Now()
	a := newAllocation(&in, logger)
	a.runGuards()
	a.runCover()
	a.runFill()

	plan, err := a.assemble(&in)
	if err != nil {
		return nil, err
	}

	debug := Debug{
		OrderedRequirements: make([]string, 0, len(a.ordered)),
		CandidateCounts:     a.candidateCounts(),
		ConfigHash:          configHash,
		DurationMS:          time.Since(start).Milliseconds(),
	}
	for _, req := range a.ordered {
		debug.OrderedRequirements = append(debug.OrderedRequirements, req.ReqID)
	}

	logger.Info("selection plan built",
		zap.Int("selected", len(a.items)),
		zap.Int("must_covered", plan.Coverage.MustCovered),
		zap.Int("must_total", plan.Coverage.MustTotal),
		zap.Int("nice_covered", plan.Coverage.NiceCovered),
		zap.Int("nice_total", plan.Coverage.NiceTotal),
		zap.Int64("duration_ms", debug.DurationMS))

	return &Result{Plan: plan, Debug: debug}, nil
}

func (a *allocation) assemble(in *Inputs) (*types.SelectionPlan, error) {
	masterHash, err := resumeHash(in)
	if err != nil {
		return nil, err
	}
	rubricHash := in.Rubric.RubricHash
	if rubricHash == "" {
		if rubricHash, err = hashJSON(in.Rubric); err != nil {
			return nil, &Error{Message: "failed to hash rubric", Cause: err}
		}
	}
	jobHash := in.Rubric.JobMeta.RawTextHash
	if jobHash == "" && in.JobText != "" {
		jobHash = config.HashBytes([]byte(in.JobText))
	}
	embeddingModel := ""
	if in.Relevance != nil {
		embeddingModel = in.Relevance.EmbeddingModel
	}
	if embeddingModel == "" && in.Embeddings != nil {
		embeddingModel = in.Embeddings.Model
	}

	selected := types.SelectedItems{
		WorkExperience: []types.SelectedItem{},
		Projects:       []types.SelectedItem{},
		Awards:         []types.SelectedItem{},
	}
	parentIndex := in.Resume.ParentIndex()
	for _, item := range a.items {
		switch item.ParentType.Section() {
		case types.SectionWorkExperience:
			selected.WorkExperience = append(selected.WorkExperience, *item)
		case types.SectionProjects:
			selected.Projects = append(selected.Projects, *item)
		case types.SectionAwards:
			selected.Awards = append(selected.Awards, *item)
		}
	}
	orders := make(map[string]int, len(a.candidates))
	for _, c := range a.candidates {
		orders[c.bullet.BulletID] = c.bullet.Order
	}
	for _, section := range [][]types.SelectedItem{selected.WorkExperience, selected.Projects, selected.Awards} {
		sortSection(section, parentIndex, orders)
	}

	notes := types.SelectionNotes{
		DroppedDueToRedundancy: nonNil(a.droppedRedundant),
		DroppedDueToBudget:     nonNil(a.droppedBudget),
		MissingEvidence:        a.missingEvidence,
		BudgetShortfalls:       a.budget.Shortfalls(),
	}

	return &types.SelectionPlan{
		RunID:            in.RunID,
		Version:          types.SelectionPlanVersion,
		MasterResumeHash: masterHash,
		JobExtractedHash: jobHash,
		RubricHash:       rubricHash,
		EmbeddingModel:   embeddingModel,
		Config:           *in.Config,
		Coverage:         a.buildCoverage(in.Rubric),
		Selected:         selected,
		BudgetsUsed:      a.budget.Used(),
		SelectionNotes:   notes,
	}, nil
}

// sortSection orders items the way they appear in the master resume
func sortSection(items []types.SelectedItem, parentIndex, orders map[string]int) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := parentIndex[items[i].ParentID], parentIndex[items[j].ParentID]
		if pi != pj {
			return pi < pj
		}
		oi, oj := orders[items[i].BulletID], orders[items[j].BulletID]
		if oi != oj {
			return oi < oj
		}
		return items[i].BulletID < items[j].BulletID
	})
}

func resumeHash(in *Inputs) (string, error) {
	if in.Evidence != nil && in.Evidence.ResumeHash != "" {
		h := in.Evidence.ResumeHash
		if !strings.HasPrefix(h, "sha256:") {
			h = "sha256:" + h
		}
		return h, nil
	}
	h, err := hashJSON(in.Resume)
	if err != nil {
		return "", &Error{Message: "failed to hash master resume", Cause: err}
	}
	return h, nil
}

func hashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return config.HashBytes(data), nil
}

// PlanHash returns the sha256 of a plan's JSON encoding. Identical inputs give identical hashes.
func PlanHash(plan *types.SelectionPlan) (string, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("failed to marshal selection plan: %w", err)
	}
	return config.HashBytes(data), nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
