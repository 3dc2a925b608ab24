package selection

import (
	"math"

	"github.com/jonathan/resume-tailor/internal/types"
)

// Weights of the user-facing coverage summary. They are fixed and not part of SelectionConfig.
const (
	MustWeight = 0.7
	NiceWeight = 0.3
)

const (
	maxInsightUncovered = 60
	maxInsightKeywords  = 20
)

// CoveragePercent computes round(100·(must_pct·0.7 + nice_pct·0.3)) clamped to [0,100].
// A pct with a zero total counts as 0; nil is returned when both totals are zero.
func CoveragePercent(c types.Coverage) *int {
	if c.MustTotal == 0 && c.NiceTotal == 0 {
		return nil
	}
	var mustPct, nicePct float64
	if c.MustTotal > 0 {
		mustPct = float64(c.MustCovered) / float64(c.MustTotal)
	}
	if c.NiceTotal > 0 {
		nicePct = float64(c.NiceCovered) / float64(c.NiceTotal)
	}
	pct := int(math.Round(100 * (mustPct*MustWeight + nicePct*NiceWeight)))
	pct = max(0, min(100, pct))
	return &pct
}

// RecomputeUncovered derives the uncovered requirement list from a plan's
// coverage object and the rubric it was built from. The optimizer records
// exactly this list, so readers never need to re-run selection.
func RecomputeUncovered(coverage types.Coverage, rubric *types.Rubric) []types.UncoveredRequirement {
	byID := make(map[string]types.RequirementCoverage, len(coverage.Requirements))
	for _, rc := range coverage.Requirements {
		byID[rc.ReqID] = rc
	}

	out := make([]types.UncoveredRequirement, 0)
	if rubric == nil {
		return out
	}
	for _, req := range rubric.Requirements {
		rc, ok := byID[req.ReqID]
		if !ok || rc.Covered {
			continue
		}
		out = append(out, types.UncoveredRequirement{
			ReqID:  req.ReqID,
			Type:   req.Type,
			Weight: req.Weight,
			Reason: rc.Reason,
		})
	}
	return out
}

// buildCoverage turns the final requirement states into the plan's coverage object
func (a *allocation) buildCoverage(rubric *types.Rubric) types.Coverage {
	var c types.Coverage
	c.Requirements = make([]types.RequirementCoverage, 0, len(a.requirements))
	for _, req := range a.requirements {
		st := a.reqState[req.ReqID]
		covered := a.satisfied(req.ReqID)
		rc := types.RequirementCoverage{
			ReqID:        req.ReqID,
			Type:         req.Type,
			Weight:       req.Weight,
			Accumulated:  st.accumulated,
			Contributors: st.contributors,
			Covered:      covered,
		}
		if !covered {
			rc.Reason = st.reason
			if rc.Reason == "" {
				rc.Reason = types.ReasonNoEligibleCandidate
			}
		}
		c.Requirements = append(c.Requirements, rc)

		if req.IsMust() {
			c.MustTotal++
			if covered {
				c.MustCovered++
			}
		} else {
			c.NiceTotal++
			if covered {
				c.NiceCovered++
			}
		}
	}
	c.CoveragePercent = CoveragePercent(c)
	c.UncoveredRequirements = RecomputeUncovered(c, rubric)
	return c
}

// Insights is the compact run summary shown next to a plan
type Insights struct {
	RunID                 string   `json:"run_id,omitempty"`
	CoveragePercent       *int     `json:"coverage_percent,omitempty"`
	UncoveredRequirements []string `json:"uncovered_requirements"`
	TopKeywords           []string `json:"top_keywords"`
}

// BuildInsights summarizes a plan for display: its coverage percentage, the
// text of uncovered requirements and the job's top keywords
func BuildInsights(plan *types.SelectionPlan, rubric *types.Rubric) Insights {
	insights := Insights{
		UncoveredRequirements: []string{},
		TopKeywords:           []string{},
	}
	if plan == nil {
		return insights
	}
	insights.RunID = plan.RunID
	insights.CoveragePercent = CoveragePercent(plan.Coverage)

	for _, u := range plan.Coverage.UncoveredRequirements {
		if len(insights.UncoveredRequirements) >= maxInsightUncovered {
			break
		}
		text := u.ReqID
		if rubric != nil {
			if req, ok := rubric.Requirement(u.ReqID); ok && req.Text != "" {
				text = req.Text
			}
		}
		insights.UncoveredRequirements = append(insights.UncoveredRequirements, text)
	}

	if rubric != nil {
		keywords := rubric.TopKeywords
		if len(keywords) == 0 {
			keywords = rubric.Keywords
		}
		for _, kw := range keywords {
			if len(insights.TopKeywords) >= maxInsightKeywords {
				break
			}
			if kw != "" {
				insights.TopKeywords = append(insights.TopKeywords, kw)
			}
		}
	}
	return insights
}
