package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-tailor/internal/types"
)

func expCandidate(id, parentID string, bucket types.RoleBucket, words int) *candidate {
	return &candidate{
		bullet:  types.CandidateBullet{BulletID: id, ParentID: parentID, ParentType: types.ParentExperience},
		section: types.SectionWorkExperience,
		bucket:  bucket,
		words:   words,
	}
}

func TestBudgetAllocator_PerRoleCaps(t *testing.T) {
	budgets := types.Budgets{
		ExperienceBulletsMax:     10,
		PerRoleCaps:              types.RoleCaps{MostRecent: 2, Next: 1, Older: 1},
		MaxBulletsPerRequirement: 2,
	}
	alloc := NewBudgetAllocator(budgets)

	for i := 0; i < 2; i++ {
		c := expCandidate("a", "role_a", types.BucketMostRecent, 5)
		assert.True(t, alloc.Eligible(c))
		alloc.Commit(c)
	}
	assert.False(t, alloc.Eligible(expCandidate("a3", "role_a", types.BucketMostRecent, 5)))

	// older roles are capped independently of each other
	older1 := expCandidate("c1", "role_c", types.BucketOlder, 5)
	older2 := expCandidate("d1", "role_d", types.BucketOlder, 5)
	assert.True(t, alloc.Eligible(older1))
	alloc.Commit(older1)
	assert.True(t, alloc.Eligible(older2))
	alloc.Commit(older2)
	assert.False(t, alloc.Eligible(expCandidate("c2", "role_c", types.BucketOlder, 5)))

	used := alloc.Used()
	assert.Equal(t, 4, used.ExperienceBullets)
	assert.Equal(t, 20, used.Words)
	assert.Equal(t, map[string]int{"role_a": 2, "role_c": 1, "role_d": 1}, used.PerRole)
}

func TestBudgetAllocator_SectionAndWordLimits(t *testing.T) {
	budgets := types.Budgets{
		TargetResumeWordsMax:     12,
		ExperienceBulletsMax:     5,
		ProjectBulletsMax:        1,
		AwardLinesMin:            1,
		AwardLinesMax:            1,
		PerRoleCaps:              types.RoleCaps{MostRecent: 5, Next: 5, Older: 5},
		MaxBulletsPerRequirement: 1,
	}
	alloc := NewBudgetAllocator(budgets)

	project := &candidate{section: types.SectionProjects, words: 4}
	assert.True(t, alloc.Eligible(project))
	alloc.Commit(project)
	assert.False(t, alloc.Eligible(&candidate{section: types.SectionProjects, words: 1}))

	// 4 + 9 words exceeds the 12 word maximum
	assert.False(t, alloc.Eligible(expCandidate("b1", "role_a", types.BucketMostRecent, 9)))
	assert.True(t, alloc.Eligible(expCandidate("b2", "role_a", types.BucketMostRecent, 8)))

	assert.False(t, alloc.Exhausted())
	assert.Equal(t, []types.BudgetShortfall{{Section: types.SectionAwards, Minimum: 1, Used: 0}}, alloc.Shortfalls())
}

func TestBudgetAllocator_RequirementCap(t *testing.T) {
	alloc := NewBudgetAllocator(types.Budgets{MaxBulletsPerRequirement: 2})

	assert.True(t, alloc.CountContribution("R1"))
	assert.False(t, alloc.RequirementCapped("R1"))
	assert.True(t, alloc.CountContribution("R1"))
	assert.True(t, alloc.RequirementCapped("R1"))
	assert.False(t, alloc.CountContribution("R1"))
	assert.False(t, alloc.RequirementCapped("R2"))
}
