package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-tailor/internal/types"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, 0.95, CosineSimilarity([]float64{1, 0}, []float64{0.95, 0.3122499}), 1e-6)

	assert.Equal(t, 0.0, CosineSimilarity([]float64{1}, []float64{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestJaccardSimilarity(t *testing.T) {
	a := Tokenize("Built Go services, on Kubernetes!")
	b := Tokenize("built go services on AWS")

	assert.Len(t, a, 5)
	assert.Contains(t, a, "kubernetes")
	assert.InDelta(t, 4.0/6.0, JaccardSimilarity(a, b), 1e-9)
	assert.Equal(t, 0.0, JaccardSimilarity(a, Tokenize("")))
}

func TestPenaltyFor(t *testing.T) {
	thresholds := types.RedundancyThresholds{HardBlock: 0.92, PenaltyStart: 0.85}

	assert.Equal(t, types.Redundancy{MaxSim: 0.5}, PenaltyFor(0.5, thresholds))

	mid := PenaltyFor(0.9, thresholds)
	assert.False(t, mid.Blocked)
	assert.InDelta(t, 0.05/0.07, mid.Penalty, 1e-9)

	blocked := PenaltyFor(0.92, thresholds)
	assert.True(t, blocked.Blocked)
	assert.Equal(t, 1.0, blocked.Penalty)
}

func TestRedundancyDetector_SameSectionOnly(t *testing.T) {
	detector := NewRedundancyDetector(types.RedundancyThresholds{HardBlock: 0.9, PenaltyStart: 0.85})

	exp := &candidate{section: types.SectionWorkExperience, vector: []float64{1, 0}}
	detector.Add(exp)

	sameSection := &candidate{section: types.SectionWorkExperience, vector: []float64{1, 0}}
	assert.True(t, detector.Evaluate(sameSection).Blocked)

	otherSection := &candidate{section: types.SectionProjects, vector: []float64{1, 0}}
	assert.Equal(t, types.Redundancy{}, detector.Evaluate(otherSection))
}

func TestRedundancyDetector_LexicalFallback(t *testing.T) {
	detector := NewRedundancyDetector(types.RedundancyThresholds{HardBlock: 0.9, PenaltyStart: 0.5})

	detector.Add(&candidate{
		section: types.SectionWorkExperience,
		vector:  []float64{1, 0},
		tokens:  Tokenize("reduced latency by 40 percent"),
	})

	// no vector on the candidate, so token overlap decides
	c := &candidate{section: types.SectionWorkExperience, tokens: Tokenize("Reduced latency by 40 percent!")}
	assert.True(t, detector.Evaluate(c).Blocked)
}
