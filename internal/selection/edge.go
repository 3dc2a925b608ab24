package selection

import (
	"math"

	"github.com/jonathan/resume-tailor/internal/types"
)

const (
	// missingOutcomeRisk is added when the evidence breakdown shows no outcome at all
	missingOutcomeRisk = 0.15
	// lowTierRisk is added for nice requirements backed by evidence below min_evidence_tier_nice
	lowTierRisk = 0.25
)

// EdgeScorer combines relevance, evidence, redundancy and risk into per (requirement, bullet) scores
type EdgeScorer struct {
	weights    types.EdgeWeights
	thresholds types.Thresholds
}

// NewEdgeScorer creates an EdgeScorer from a selection config
func NewEdgeScorer(cfg *types.SelectionConfig) EdgeScorer {
	return EdgeScorer{weights: cfg.Weights.Edge, thresholds: cfg.Thresholds}
}

// Eligible reports whether rel clears the minimum relevance for the requirement's type
func (s EdgeScorer) Eligible(req types.Requirement, rel float64) bool {
	return rel >= s.thresholds.MinRel(req.Type)
}

// Risk estimates how unreliable the bullet is as support for req, within [0,1]
func (s EdgeScorer) Risk(req types.Requirement, ev types.EvidenceScore) float64 {
	risk := ev.FluffPenalty
	if ev.Breakdown != nil && ev.Breakdown.Outcome == 0 {
		risk += missingOutcomeRisk
	}
	minTier := s.thresholds.MinEvidenceTierNice
	if req.Type == types.RequirementNice && minTier.Valid() && ev.Tier.Rank() < minTier.Rank() {
		risk += lowTierRisk
	}
	return math.Min(1, risk)
}

// Score returns the edge score of a bullet for a requirement
func (s EdgeScorer) Score(req types.Requirement, rel float64, ev types.EvidenceScore, redundancyPenalty float64) float64 {
	return ScoreEdge(s.weights, rel, ev.Score, redundancyPenalty, s.Risk(req, ev))
}

// ScoreEdge computes wRel·rel + wEvd·evidence − wRed·redundancy − wRisk·risk.
// The result is not clamped; a negative edge means the bullet hurts the requirement.
func ScoreEdge(w types.EdgeWeights, rel, evidence, redundancyPenalty, risk float64) float64 {
	return w.WRel*rel + w.WEvd*evidence - w.WRed*redundancyPenalty - w.WRisk*risk
}

// RewriteIntentFor derives how much a bullet must change from its evidence strength
func RewriteIntentFor(ev types.EvidenceScore) types.RewriteIntent {
	rank := ev.Tier.Rank()
	if rank >= types.TierStrong.Rank() && ev.Score >= 0.8 {
		return types.RewriteLight
	}
	if rank >= types.TierMedium.Rank() {
		return types.RewriteMedium
	}
	return types.RewriteHeavy
}
