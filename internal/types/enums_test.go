package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirement_UnmarshalRejectsUnknownType(t *testing.T) {
	var req Requirement
	err := json.Unmarshal([]byte(`{"req_id":"R1","type":"should","weight":1}`), &req)
	require.Error(t, err)

	var enumErr *EnumError
	assert.ErrorAs(t, err, &enumErr)
	assert.Equal(t, "should", enumErr.Value)
}

func TestRequirement_UnmarshalKnownType(t *testing.T) {
	var req Requirement
	err := json.Unmarshal([]byte(`{"req_id":"R1","type":"must","weight":2.5,"text":"Go"}`), &req)
	require.NoError(t, err)
	assert.True(t, req.IsMust())
	assert.Equal(t, 2.5, req.Weight)
}

func TestTier_Rank(t *testing.T) {
	tests := []struct {
		tier Tier
		want int
	}{
		{TierStrong, 3},
		{TierMedium, 2},
		{TierWeak, 1},
		{Tier("bogus"), 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tier.Rank())
		})
	}
}

func TestEvidenceScore_UnmarshalRejectsUnknownTier(t *testing.T) {
	var score EvidenceScore
	err := json.Unmarshal([]byte(`{"bullet_id":"b1","score":0.5,"tier":"excellent"}`), &score)
	assert.Error(t, err)
}

func TestParentType_Section(t *testing.T) {
	assert.Equal(t, SectionWorkExperience, ParentExperience.Section())
	assert.Equal(t, SectionProjects, ParentProject.Section())
	assert.Equal(t, SectionAwards, ParentAward.Section())
	assert.Equal(t, Section(""), ParentType("other").Section())
}

func TestBucketForRecency(t *testing.T) {
	assert.Equal(t, BucketMostRecent, BucketForRecency(0))
	assert.Equal(t, BucketNext, BucketForRecency(1))
	assert.Equal(t, BucketOlder, BucketForRecency(2))
	assert.Equal(t, BucketOlder, BucketForRecency(7))
}

func TestRoleCaps_For(t *testing.T) {
	caps := RoleCaps{MostRecent: 5, Next: 3, Older: 2}
	assert.Equal(t, 5, caps.For(BucketMostRecent))
	assert.Equal(t, 3, caps.For(BucketNext))
	assert.Equal(t, 2, caps.For(BucketOlder))
}

func TestUncoveredReason_Valid(t *testing.T) {
	assert.True(t, ReasonNoEligibleCandidate.Valid())
	assert.True(t, ReasonBudgetExhausted.Valid())
	assert.False(t, UncoveredReason("not_covered").Valid())
}
