// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ScoredBullet is one bullet entry in a requirement's top list
type ScoredBullet struct {
	BulletID string  `json:"bullet_id"`
	Score    float64 `json:"score"`
}

// ScoredRequirement is one requirement entry in a bullet's top list
type ScoredRequirement struct {
	ReqID string  `json:"req_id"`
	Score float64 `json:"score"`
}

// RelevanceMatrix is the sparse relevance output of the embedding matcher.
// Pairs below the matcher's noise threshold are omitted and read as zero.
type RelevanceMatrix struct {
	Version                  string                         `json:"version,omitempty"`
	EmbeddingModel           string                         `json:"embedding_model,omitempty"`
	PerRequirementTopBullets map[string][]ScoredBullet      `json:"per_requirement_top_bullets,omitempty"`
	PerBulletTopRequirements map[string][]ScoredRequirement `json:"per_bullet_top_requirements,omitempty"`
}

// RelevanceKey addresses a (bullet, requirement) pair
type RelevanceKey struct {
	BulletID string
	ReqID    string
}

// Lookup flattens both views of the matrix.
// Requirement-side entries win when both views carry the same pair.
func (m *RelevanceMatrix) Lookup() map[RelevanceKey]float64 {
	lookup := make(map[RelevanceKey]float64)
	if m == nil {
		return lookup
	}
	for reqID, bullets := range m.PerRequirementTopBullets {
		for _, b := range bullets {
			lookup[RelevanceKey{BulletID: b.BulletID, ReqID: reqID}] = b.Score
		}
	}
	for bulletID, reqs := range m.PerBulletTopRequirements {
		for _, r := range reqs {
			key := RelevanceKey{BulletID: bulletID, ReqID: r.ReqID}
			if _, exists := lookup[key]; !exists {
				lookup[key] = r.Score
			}
		}
	}
	return lookup
}

// BulletVector is the embedding of a single bullet
type BulletVector struct {
	BulletID string    `json:"bullet_id"`
	Vector   []float64 `json:"vector"`
}

// BulletEmbeddings holds cached bullet embeddings used for redundancy checks
type BulletEmbeddings struct {
	Model   string         `json:"model,omitempty"`
	Dims    int            `json:"dims,omitempty"`
	Bullets []BulletVector `json:"bullets"`
}

// ByBulletID indexes the vectors by bullet id
func (e *BulletEmbeddings) ByBulletID() map[string][]float64 {
	out := make(map[string][]float64)
	if e == nil {
		return out
	}
	for _, b := range e.Bullets {
		out[b.BulletID] = b.Vector
	}
	return out
}
