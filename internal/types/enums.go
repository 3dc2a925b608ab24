// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "fmt"

// RequirementType distinguishes hard requirements from soft ones
type RequirementType string

const (
	// RequirementMust is a hard job requirement
	RequirementMust RequirementType = "must"
	// RequirementNice is a nice-to-have requirement
	RequirementNice RequirementType = "nice"
)

// Valid reports whether t is a known requirement type
func (t RequirementType) Valid() bool {
	return t == RequirementMust || t == RequirementNice
}

// UnmarshalText rejects requirement types outside the closed set
func (t *RequirementType) UnmarshalText(text []byte) error {
	v := RequirementType(text)
	if !v.Valid() {
		return &EnumError{Kind: "requirement type", Value: string(text)}
	}
	*t = v
	return nil
}

// Tier is the evidence strength bucket assigned by the evidence scorer
type Tier string

const (
	TierStrong Tier = "strong"
	TierMedium Tier = "medium"
	TierWeak   Tier = "weak"
)

// Rank returns 3 for strong, 2 for medium, 1 for weak and 0 for unknown tiers
func (t Tier) Rank() int {
	switch t {
	case TierStrong:
		return 3
	case TierMedium:
		return 2
	case TierWeak:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is a known tier
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// UnmarshalText rejects tiers outside the closed set
func (t *Tier) UnmarshalText(text []byte) error {
	v := Tier(text)
	if !v.Valid() {
		return &EnumError{Kind: "evidence tier", Value: string(text)}
	}
	*t = v
	return nil
}

// ParentType identifies which resume section a bullet belongs to
type ParentType string

const (
	ParentExperience ParentType = "experience"
	ParentProject    ParentType = "project"
	ParentAward      ParentType = "award"
)

// Valid reports whether p is a known parent type
func (p ParentType) Valid() bool {
	return p == ParentExperience || p == ParentProject || p == ParentAward
}

// Section returns the plan section that holds bullets of this parent type
func (p ParentType) Section() Section {
	switch p {
	case ParentExperience:
		return SectionWorkExperience
	case ParentProject:
		return SectionProjects
	case ParentAward:
		return SectionAwards
	default:
		return ""
	}
}

// UnmarshalText rejects parent types outside the closed set
func (p *ParentType) UnmarshalText(text []byte) error {
	v := ParentType(text)
	if !v.Valid() {
		return &EnumError{Kind: "parent type", Value: string(text)}
	}
	*p = v
	return nil
}

// Section names a partition of the selection plan
type Section string

const (
	SectionWorkExperience Section = "work_experience"
	SectionProjects       Section = "projects"
	SectionAwards         Section = "awards"
)

// RewriteIntent tells the downstream rewriter how much a bullet must change
type RewriteIntent string

const (
	RewriteLight  RewriteIntent = "light"
	RewriteMedium RewriteIntent = "medium"
	RewriteHeavy  RewriteIntent = "heavy"
)

// Valid reports whether r is a known rewrite intent
func (r RewriteIntent) Valid() bool {
	return r == RewriteLight || r == RewriteMedium || r == RewriteHeavy
}

// UnmarshalText rejects rewrite intents outside the closed set
func (r *RewriteIntent) UnmarshalText(text []byte) error {
	v := RewriteIntent(text)
	if !v.Valid() {
		return &EnumError{Kind: "rewrite intent", Value: string(text)}
	}
	*r = v
	return nil
}

// UncoveredReason explains why a requirement ended below the cover threshold
type UncoveredReason string

const (
	ReasonNoEligibleCandidate UncoveredReason = "no_eligible_candidate"
	ReasonBudgetExhausted     UncoveredReason = "budget_exhausted"
	ReasonRedundancyBlocked   UncoveredReason = "redundancy_blocked"
	ReasonRequirementCap      UncoveredReason = "requirement_cap_reached"
	ReasonBelowCoverThreshold UncoveredReason = "below_cover_threshold"
)

// Valid reports whether r is a known reason
func (r UncoveredReason) Valid() bool {
	switch r {
	case ReasonNoEligibleCandidate, ReasonBudgetExhausted, ReasonRedundancyBlocked,
		ReasonRequirementCap, ReasonBelowCoverThreshold:
		return true
	}
	return false
}

// UnmarshalText rejects reasons outside the closed set
func (r *UncoveredReason) UnmarshalText(text []byte) error {
	v := UncoveredReason(text)
	if !v.Valid() {
		return &EnumError{Kind: "uncovered reason", Value: string(text)}
	}
	*r = v
	return nil
}

// SelectionPhase records which optimizer phase picked a bullet
type SelectionPhase string

const (
	PhaseGuard SelectionPhase = "guard"
	PhaseCover SelectionPhase = "cover"
	PhaseFill  SelectionPhase = "fill"
)

// RoleBucket groups experience roles by recency for per-role caps
type RoleBucket string

const (
	BucketMostRecent RoleBucket = "most_recent"
	BucketNext       RoleBucket = "next"
	BucketOlder      RoleBucket = "older"
)

// BucketForRecency maps a role's recency index (0 = most recent) to its bucket
func BucketForRecency(index int) RoleBucket {
	switch index {
	case 0:
		return BucketMostRecent
	case 1:
		return BucketNext
	default:
		return BucketOlder
	}
}

// EnumError is returned when a closed enumeration receives an unknown value
type EnumError struct {
	Kind  string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}
