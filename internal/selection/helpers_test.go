package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/types"
)

// fixture builds selection inputs one piece at a time
type fixture struct {
	rubric     *types.Rubric
	resume     *types.MasterResume
	evidence   *types.EvidenceScores
	relevance  *types.RelevanceMatrix
	embeddings *types.BulletEmbeddings
	cfg        *types.SelectionConfig
}

func newFixture() *fixture {
	cfg := config.DefaultSelection()
	cfg.Budgets.ExperienceBulletsMin = 0
	cfg.Budgets.TargetResumeWordsMin = 0
	return &fixture{
		rubric:     &types.Rubric{Version: "rubric_v1"},
		resume:     &types.MasterResume{ID: "resume_1"},
		evidence:   &types.EvidenceScores{ResumeHash: "abc123"},
		relevance:  &types.RelevanceMatrix{PerRequirementTopBullets: map[string][]types.ScoredBullet{}},
		embeddings: &types.BulletEmbeddings{},
		cfg:        &cfg,
	}
}

func (f *fixture) must(id string, weight float64) *fixture {
	f.rubric.Requirements = append(f.rubric.Requirements, types.Requirement{
		ReqID: id, Type: types.RequirementMust, Weight: weight, Text: "requirement " + id,
	})
	return f
}

func (f *fixture) nice(id string, weight float64) *fixture {
	f.rubric.Requirements = append(f.rubric.Requirements, types.Requirement{
		ReqID: id, Type: types.RequirementNice, Weight: weight, Text: "requirement " + id,
	})
	return f
}

func (f *fixture) parent(id string, parentType types.ParentType) *fixture {
	f.resume.Parents = append(f.resume.Parents, types.Parent{ID: id, Type: parentType, Company: "Company " + id})
	return f
}

// bullet adds a bullet under parentID with the given evidence score and tier
func (f *fixture) bullet(id, parentID, text string, order int, score float64, tier types.Tier) *fixture {
	parentType := types.ParentExperience
	for _, p := range f.resume.Parents {
		if p.ID == parentID {
			parentType = p.Type
		}
	}
	f.resume.Bullets = append(f.resume.Bullets, types.CandidateBullet{
		BulletID: id, ParentType: parentType, ParentID: parentID, Text: text, Order: order,
	})
	f.evidence.Bullets = append(f.evidence.Bullets, types.EvidenceScore{
		BulletID: id, Score: score, Tier: tier,
	})
	return f
}

func (f *fixture) rel(reqID, bulletID string, score float64) *fixture {
	f.relevance.PerRequirementTopBullets[reqID] = append(f.relevance.PerRequirementTopBullets[reqID],
		types.ScoredBullet{BulletID: bulletID, Score: score})
	return f
}

func (f *fixture) vector(bulletID string, v ...float64) *fixture {
	f.embeddings.Bullets = append(f.embeddings.Bullets, types.BulletVector{BulletID: bulletID, Vector: v})
	return f
}

func (f *fixture) inputs() Inputs {
	return Inputs{
		RunID:      "run_test",
		Rubric:     f.rubric,
		Resume:     f.resume,
		Evidence:   f.evidence,
		Relevance:  f.relevance,
		Embeddings: f.embeddings,
		Config:     f.cfg,
	}
}

func (f *fixture) run(t *testing.T) *types.SelectionPlan {
	t.Helper()
	result, err := SelectPlan(context.Background(), f.inputs())
	require.NoError(t, err)
	require.NotNil(t, result.Plan)
	return result.Plan
}

func selectedIDs(plan *types.SelectionPlan) []string {
	ids := []string{}
	for _, item := range plan.Selected.All() {
		ids = append(ids, item.BulletID)
	}
	return ids
}

func findItem(plan *types.SelectionPlan, bulletID string) (types.SelectedItem, bool) {
	for _, item := range plan.Selected.All() {
		if item.BulletID == bulletID {
			return item, true
		}
	}
	return types.SelectedItem{}, false
}
