// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// SelectionPlanVersion is the schema version of SelectionPlan
const SelectionPlanVersion = "selection_plan_v1"

// SelectionPlan is the immutable output of one selection run
type SelectionPlan struct {
	RunID            string          `json:"run_id"`
	Version          string          `json:"version"`
	MasterResumeHash string          `json:"master_resume_hash"`
	JobExtractedHash string          `json:"job_extracted_hash,omitempty"`
	RubricHash       string          `json:"rubric_hash"`
	EmbeddingModel   string          `json:"embedding_model,omitempty"`
	Config           SelectionConfig `json:"config"`
	Coverage         Coverage        `json:"coverage"`
	Selected         SelectedItems   `json:"selected"`
	BudgetsUsed      BudgetsUsed     `json:"budgets_used"`
	SelectionNotes   SelectionNotes  `json:"selection_notes"`
}

// SelectedItems partitions selected bullets by resume section
type SelectedItems struct {
	WorkExperience []SelectedItem `json:"work_experience"`
	Projects       []SelectedItem `json:"projects"`
	Awards         []SelectedItem `json:"awards"`
}

// All returns every selected item, work experience first
func (s SelectedItems) All() []SelectedItem {
	out := make([]SelectedItem, 0, len(s.WorkExperience)+len(s.Projects)+len(s.Awards))
	out = append(out, s.WorkExperience...)
	out = append(out, s.Projects...)
	out = append(out, s.Awards...)
	return out
}

// EvidenceSnapshot is the evidence score captured when the bullet was selected
type EvidenceSnapshot struct {
	Score        float64            `json:"score"`
	Tier         Tier               `json:"tier"`
	Breakdown    *EvidenceBreakdown `json:"breakdown,omitempty"`
	FluffPenalty float64            `json:"fluff_penalty"`
}

// RequirementMatch is one requirement a selected bullet contributes to.
// Counted is false once the requirement had reached max_bullets_per_requirement.
type RequirementMatch struct {
	ReqID     string  `json:"req_id"`
	Rel       float64 `json:"rel"`
	EdgeScore float64 `json:"edge_score"`
	Counted   bool    `json:"counted"`
}

// Redundancy is the redundancy outcome for a bullet
type Redundancy struct {
	MaxSim  float64 `json:"max_sim"`
	Blocked bool    `json:"blocked"`
	Penalty float64 `json:"penalty"`
}

// SelectedItem is a bullet chosen into the plan
type SelectedItem struct {
	BulletID      string             `json:"bullet_id"`
	ParentType    ParentType         `json:"parent_type"`
	ParentID      string             `json:"parent_id"`
	Company       string             `json:"company,omitempty"`
	Role          string             `json:"role,omitempty"`
	Dates         string             `json:"dates,omitempty"`
	Location      string             `json:"location,omitempty"`
	OriginalText  string             `json:"original_text"`
	Evidence      EvidenceSnapshot   `json:"evidence"`
	Matches       []RequirementMatch `json:"matches"`
	Redundancy    Redundancy         `json:"redundancy"`
	RewriteIntent RewriteIntent      `json:"rewrite_intent"`
	Phase         SelectionPhase     `json:"phase"`
	Sequence      int                `json:"sequence"`
	Reasons       []string           `json:"reasons"`
}

// UncoveredRequirement is a requirement left below the cover threshold
type UncoveredRequirement struct {
	ReqID  string          `json:"req_id"`
	Type   RequirementType `json:"type"`
	Weight float64         `json:"weight"`
	Reason UncoveredReason `json:"reason"`
}

// RequirementCoverage is the final coverage state of one requirement
type RequirementCoverage struct {
	ReqID        string          `json:"req_id"`
	Type         RequirementType `json:"type"`
	Weight       float64         `json:"weight"`
	Accumulated  float64         `json:"accumulated"`
	Contributors int             `json:"contributors"`
	Covered      bool            `json:"covered"`
	Reason       UncoveredReason `json:"reason,omitempty"`
}

// Coverage summarizes how well the selection covers the rubric
type Coverage struct {
	MustTotal             int                    `json:"must_total"`
	NiceTotal             int                    `json:"nice_total"`
	MustCovered           int                    `json:"must_covered"`
	NiceCovered           int                    `json:"nice_covered"`
	CoveragePercent       *int                   `json:"coverage_percent,omitempty"`
	UncoveredRequirements []UncoveredRequirement `json:"uncovered_requirements"`
	Requirements          []RequirementCoverage  `json:"requirements"`
}

// BudgetsUsed reports the counters at the end of selection
type BudgetsUsed struct {
	ExperienceBullets int            `json:"experience_bullets"`
	ProjectBullets    int            `json:"project_bullets"`
	AwardLines        int            `json:"award_lines"`
	Words             int            `json:"words"`
	PerRole           map[string]int `json:"per_role"`
}

// BudgetShortfall notes a section that ended below its minimum
type BudgetShortfall struct {
	Section Section `json:"section"`
	Minimum int     `json:"minimum"`
	Used    int     `json:"used"`
}

// SelectionNotes lists bullets the optimizer rejected and degraded inputs
type SelectionNotes struct {
	DroppedDueToRedundancy []string          `json:"dropped_due_to_redundancy"`
	DroppedDueToBudget     []string          `json:"dropped_due_to_budget"`
	MissingEvidence        []string          `json:"missing_evidence,omitempty"`
	BudgetShortfalls       []BudgetShortfall `json:"budget_shortfalls,omitempty"`
}
