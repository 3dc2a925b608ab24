package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-tailor/internal/types"
)

func testPlan() *types.SelectionPlan {
	pct := 61
	return &types.SelectionPlan{
		RunID: "run_1",
		Coverage: types.Coverage{
			MustTotal:       2,
			MustCovered:     1,
			NiceTotal:       1,
			NiceCovered:     1,
			CoveragePercent: &pct,
			UncoveredRequirements: []types.UncoveredRequirement{
				{ReqID: "R2", Type: types.RequirementMust, Weight: 1, Reason: types.ReasonNoEligibleCandidate},
			},
		},
		Selected: types.SelectedItems{
			WorkExperience: []types.SelectedItem{{
				BulletID:      "b1",
				OriginalText:  "Built payment APIs in Go",
				Phase:         types.PhaseCover,
				Sequence:      1,
				RewriteIntent: types.RewriteLight,
				Matches: []types.RequirementMatch{
					{ReqID: "R1", Counted: true},
					{ReqID: "R3", Counted: false},
				},
			}},
		},
		BudgetsUsed: types.BudgetsUsed{ExperienceBullets: 1, Words: 5},
	}
}

func TestPrintSelectionPlan(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSelectionPlan(testPlan())
	output := buf.String()

	assert.Contains(t, output, "SELECTION COVERAGE")
	assert.Contains(t, output, "Must covered: 1/2")
	assert.Contains(t, output, "Coverage:     61%")
	assert.Contains(t, output, "WORK EXPERIENCE (1)")
	assert.Contains(t, output, "b1  [cover #1, light]")
	assert.Contains(t, output, "Covers: R1\n")
	assert.NotContains(t, output, "PROJECTS")
	assert.Contains(t, output, "UNCOVERED REQUIREMENTS (1)")
	assert.Contains(t, output, "R2: no_eligible_candidate")
}

func TestPrintSelectionPlan_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSelectionPlan(nil)
	assert.Empty(t, buf.String())
}

func TestPrintRubric(t *testing.T) {
	var buf bytes.Buffer
	rubric := &types.Rubric{
		JobMeta: types.JobMeta{Company: "Acme Corp", Title: "Senior Engineer"},
	}
	for _, id := range []string{"R1", "R2", "R3", "R4", "R5", "R6"} {
		rubric.Requirements = append(rubric.Requirements, types.Requirement{ReqID: id, Type: types.RequirementMust, Weight: 1})
	}
	rubric.Requirements[5].Type = types.RequirementNice

	NewPrinter(&buf).PrintRubric(rubric)
	output := buf.String()

	assert.Contains(t, output, "JOB RUBRIC")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "Requirements: 5 must, 1 nice")
	assert.Contains(t, output, "... and 1 more")
}

func TestPrintSelectionNotes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSelectionNotes(types.SelectionNotes{})
	assert.Empty(t, buf.String())

	p.PrintSelectionNotes(types.SelectionNotes{
		DroppedDueToRedundancy: []string{"a", "b", "c", "d", "e", "f"},
		MissingEvidence:        []string{"x"},
		BudgetShortfalls:       []types.BudgetShortfall{{Section: types.SectionWorkExperience, Minimum: 8, Used: 3}},
	})
	output := buf.String()
	assert.Contains(t, output, "Redundant (6): a, b, c, d, e ...")
	assert.Contains(t, output, "No evidence (1): x")
	assert.Contains(t, output, "Short on work_experience: 3/8")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).printBox("T", strings.Repeat("x", 100))
	assert.Contains(t, buf.String(), "...")
}
