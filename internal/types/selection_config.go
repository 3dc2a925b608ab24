// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// RoleCaps caps experience bullets per role by recency bucket
type RoleCaps struct {
	MostRecent int `json:"most_recent" validate:"gte=0"`
	Next       int `json:"next" validate:"gte=0"`
	Older      int `json:"older" validate:"gte=0"`
}

// For returns the cap for the given bucket
func (c RoleCaps) For(bucket RoleBucket) int {
	switch bucket {
	case BucketMostRecent:
		return c.MostRecent
	case BucketNext:
		return c.Next
	default:
		return c.Older
	}
}

// Budgets are the length and count limits for a tailored resume
type Budgets struct {
	TargetResumeWordsMin     int      `json:"target_resume_words_min" validate:"gte=0"`
	TargetResumeWordsMax     int      `json:"target_resume_words_max" validate:"gte=0"`
	ExperienceBulletsMin     int      `json:"experience_bullets_min" validate:"gte=0"`
	ExperienceBulletsMax     int      `json:"experience_bullets_max" validate:"gte=0"`
	ProjectBulletsMin        int      `json:"project_bullets_min" validate:"gte=0"`
	ProjectBulletsMax        int      `json:"project_bullets_max" validate:"gte=0"`
	AwardLinesMin            int      `json:"award_lines_min" validate:"gte=0"`
	AwardLinesMax            int      `json:"award_lines_max" validate:"gte=0"`
	PerRoleCaps              RoleCaps `json:"per_role_caps"`
	MaxBulletsPerRequirement int      `json:"max_bullets_per_requirement" validate:"gte=1"`
}

// SectionLimits returns the [min,max] bullet range of a plan section
func (b Budgets) SectionLimits(section Section) (minimum, maximum int) {
	switch section {
	case SectionWorkExperience:
		return b.ExperienceBulletsMin, b.ExperienceBulletsMax
	case SectionProjects:
		return b.ProjectBulletsMin, b.ProjectBulletsMax
	case SectionAwards:
		return b.AwardLinesMin, b.AwardLinesMax
	default:
		return 0, 0
	}
}

// RedundancyThresholds configure the redundancy detector
type RedundancyThresholds struct {
	HardBlock    float64 `json:"hard_block" validate:"gte=0,lte=1"`
	PenaltyStart float64 `json:"penalty_start" validate:"gte=0,lte=1"`
}

// Thresholds gate eligibility and coverage
type Thresholds struct {
	MustMinRel          float64              `json:"must_min_rel" validate:"gte=0,lte=1"`
	NiceMinRel          float64              `json:"nice_min_rel" validate:"gte=0,lte=1"`
	CoverThreshold      float64              `json:"cover_threshold" validate:"gt=0"`
	Redundancy          RedundancyThresholds `json:"redundancy"`
	MinEvidenceTierNice Tier                 `json:"min_evidence_tier_nice" validate:"omitempty,oneof=strong medium weak"`
}

// MinRel returns the eligibility threshold for a requirement type
func (t Thresholds) MinRel(reqType RequirementType) float64 {
	if reqType == RequirementMust {
		return t.MustMinRel
	}
	return t.NiceMinRel
}

// EdgeWeights weight the components of an edge score
type EdgeWeights struct {
	WRel  float64 `json:"w_rel" validate:"gte=0"`
	WEvd  float64 `json:"w_evd" validate:"gte=0"`
	WRed  float64 `json:"w_red" validate:"gte=0"`
	WRisk float64 `json:"w_risk" validate:"gte=0"`
}

// FillWeights weight the components of a fill-phase score
type FillWeights struct {
	Alpha float64 `json:"alpha" validate:"gte=0"`
	Beta  float64 `json:"beta" validate:"gte=0"`
	Gamma float64 `json:"gamma" validate:"gte=0"`
}

// Weights groups the edge and fill weights
type Weights struct {
	Edge EdgeWeights `json:"edge"`
	Fill FillWeights `json:"fill"`
}

// Guards lock top bullets before the cover phase. Zero disables them.
type Guards struct {
	TopPerRole int `json:"top_per_role" validate:"gte=0"`
	TopGlobal  int `json:"top_global" validate:"gte=0"`
}

// SelectionConfig is the versioned, immutable configuration of one selection run
type SelectionConfig struct {
	ConfigVersion string     `json:"config_version" validate:"required"`
	Budgets       Budgets    `json:"budgets"`
	Thresholds    Thresholds `json:"thresholds"`
	Weights       Weights    `json:"weights"`
	Guards        Guards     `json:"guards"`
}
