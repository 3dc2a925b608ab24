package selection

import (
	"github.com/jonathan/resume-tailor/internal/types"
)

// sectionWords labels a word-count shortfall; it is not a plan section
const sectionWords types.Section = "words"

// BudgetAllocator tracks running section totals, words, per-role counts and
// per-requirement contributor counts for one run
type BudgetAllocator struct {
	budgets types.Budgets

	experience int
	projects   int
	awards     int
	words      int

	perRole         map[string]int
	reqContributors map[string]int
}

// NewBudgetAllocator creates an allocator with all counters at zero
func NewBudgetAllocator(budgets types.Budgets) *BudgetAllocator {
	return &BudgetAllocator{
		budgets:         budgets,
		perRole:         make(map[string]int),
		reqContributors: make(map[string]int),
	}
}

// Eligible reports whether committing c would keep every counter within its max
func (b *BudgetAllocator) Eligible(c *candidate) bool {
	_, maxSection := b.budgets.SectionLimits(c.section)
	if b.sectionCount(c.section)+1 > maxSection {
		return false
	}
	if maxWords := b.budgets.TargetResumeWordsMax; maxWords > 0 && b.words+c.words > maxWords {
		return false
	}
	if c.section == types.SectionWorkExperience {
		if b.perRole[c.bullet.ParentID]+1 > b.budgets.PerRoleCaps.For(c.bucket) {
			return false
		}
	}
	return true
}

// Commit adds c to the running totals. Callers check Eligible first.
func (b *BudgetAllocator) Commit(c *candidate) {
	switch c.section {
	case types.SectionWorkExperience:
		b.experience++
		b.perRole[c.bullet.ParentID]++
	case types.SectionProjects:
		b.projects++
	case types.SectionAwards:
		b.awards++
	}
	b.words += c.words
}

// RequirementCapped reports whether reqID already has max_bullets_per_requirement contributors
func (b *BudgetAllocator) RequirementCapped(reqID string) bool {
	return b.reqContributors[reqID] >= b.budgets.MaxBulletsPerRequirement
}

// CountContribution registers a contributor for reqID and reports whether it counts
func (b *BudgetAllocator) CountContribution(reqID string) bool {
	if b.RequirementCapped(reqID) {
		return false
	}
	b.reqContributors[reqID]++
	return true
}

// Exhausted reports whether no section can take another bullet
func (b *BudgetAllocator) Exhausted() bool {
	for _, section := range []types.Section{types.SectionWorkExperience, types.SectionProjects, types.SectionAwards} {
		if _, maxSection := b.budgets.SectionLimits(section); b.sectionCount(section) < maxSection {
			return false
		}
	}
	return true
}

// Used snapshots the counters
func (b *BudgetAllocator) Used() types.BudgetsUsed {
	perRole := make(map[string]int, len(b.perRole))
	for role, n := range b.perRole {
		perRole[role] = n
	}
	return types.BudgetsUsed{
		ExperienceBullets: b.experience,
		ProjectBullets:    b.projects,
		AwardLines:        b.awards,
		Words:             b.words,
		PerRole:           perRole,
	}
}

// Shortfalls lists sections (and the word total) that ended below their minimum.
// Minimums are targets, so a shortfall is reported rather than treated as an error.
func (b *BudgetAllocator) Shortfalls() []types.BudgetShortfall {
	var out []types.BudgetShortfall
	for _, section := range []types.Section{types.SectionWorkExperience, types.SectionProjects, types.SectionAwards} {
		minSection, _ := b.budgets.SectionLimits(section)
		if used := b.sectionCount(section); used < minSection {
			out = append(out, types.BudgetShortfall{Section: section, Minimum: minSection, Used: used})
		}
	}
	if b.words < b.budgets.TargetResumeWordsMin {
		out = append(out, types.BudgetShortfall{Section: sectionWords, Minimum: b.budgets.TargetResumeWordsMin, Used: b.words})
	}
	return out
}

func (b *BudgetAllocator) sectionCount(section types.Section) int {
	switch section {
	case types.SectionWorkExperience:
		return b.experience
	case types.SectionProjects:
		return b.projects
	case types.SectionAwards:
		return b.awards
	default:
		return 0
	}
}
