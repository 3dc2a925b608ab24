// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// EvidenceBreakdown holds the per-feature components of an evidence score
type EvidenceBreakdown struct {
	Action  float64 `json:"action"`
	Tools   float64 `json:"tools"`
	Outcome float64 `json:"outcome"`
	Metric  float64 `json:"metric"`
	Scope   float64 `json:"scope"`
}

// EvidenceScore is the job-independent strength of a bullet's wording
type EvidenceScore struct {
	BulletID     string             `json:"bullet_id"`
	Score        float64            `json:"score"`
	Tier         Tier               `json:"tier"`
	Breakdown    *EvidenceBreakdown `json:"breakdown,omitempty"`
	FluffPenalty float64            `json:"fluff_penalty"`
}

// EvidenceScores is the cached scorer output for one master resume
type EvidenceScores struct {
	ResumeHash     string          `json:"resume_hash,omitempty"`
	ScoringVersion string          `json:"scoring_version,omitempty"`
	Bullets        []EvidenceScore `json:"bullets"`
}

// ByBulletID indexes the scores by bullet id
func (e *EvidenceScores) ByBulletID() map[string]EvidenceScore {
	out := make(map[string]EvidenceScore)
	if e == nil {
		return out
	}
	for _, s := range e.Bullets {
		out[s.BulletID] = s
	}
	return out
}

// MissingEvidence is the placeholder used when the scorer produced nothing for a bullet
func MissingEvidence(bulletID string) EvidenceScore {
	return EvidenceScore{BulletID: bulletID, Score: 0, Tier: TierWeak}
}
