// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Requirement is a single weighted job requirement extracted from the job description
type Requirement struct {
	ReqID      string          `json:"req_id"`
	Type       RequirementType `json:"type"`
	Weight     float64         `json:"weight"`
	Text       string          `json:"text"`
	JDEvidence []string        `json:"jd_evidence,omitempty"`
}

// IsMust reports whether the requirement is a hard requirement
func (r Requirement) IsMust() bool {
	return r.Type == RequirementMust
}

// JobMeta carries job details the rubric was extracted from
type JobMeta struct {
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	RawTextHash string `json:"raw_text_hash,omitempty"`
}

// Rubric is the requirement list produced by requirement extraction for one run
type Rubric struct {
	Version      string        `json:"version,omitempty"`
	JobMeta      JobMeta       `json:"job_meta"`
	Requirements []Requirement `json:"requirements"`
	Keywords     []string      `json:"keywords,omitempty"`
	TopKeywords  []string      `json:"top_keywords,omitempty"`
	RubricHash   string        `json:"rubric_hash,omitempty"`
}

// Requirement returns the requirement with the given id
func (r *Rubric) Requirement(reqID string) (Requirement, bool) {
	for _, req := range r.Requirements {
		if req.ReqID == reqID {
			return req, true
		}
	}
	return Requirement{}, false
}

// Totals counts must and nice requirements
func (r *Rubric) Totals() (must, nice int) {
	for _, req := range r.Requirements {
		if req.IsMust() {
			must++
		} else {
			nice++
		}
	}
	return must, nice
}
