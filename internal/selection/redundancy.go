package selection

import (
	"math"
	"strings"
	"unicode"

	"github.com/jonathan/resume-tailor/internal/types"
)

// RedundancyDetector holds the bullets selected so far, per section, and scores
// candidates against them. Evaluation is incremental: the outcome depends on
// what was selected before.
type RedundancyDetector struct {
	thresholds types.RedundancyThresholds
	selected   map[types.Section][]*candidate
}

// NewRedundancyDetector creates an empty detector
func NewRedundancyDetector(thresholds types.RedundancyThresholds) *RedundancyDetector {
	return &RedundancyDetector{
		thresholds: thresholds,
		selected:   make(map[types.Section][]*candidate),
	}
}

// Evaluate compares c against the already selected bullets of its section
func (d *RedundancyDetector) Evaluate(c *candidate) types.Redundancy {
	maxSim := 0.0
	for _, other := range d.selected[c.section] {
		if sim := similarity(c, other); sim > maxSim {
			maxSim = sim
		}
	}
	return PenaltyFor(maxSim, d.thresholds)
}

// Add records c as selected
func (d *RedundancyDetector) Add(c *candidate) {
	d.selected[c.section] = append(d.selected[c.section], c)
}

// PenaltyFor maps a maximum similarity onto a redundancy outcome.
// At or above hard_block the bullet is blocked; between penalty_start and hard_block
// the penalty grows linearly from 0 to 1.
func PenaltyFor(maxSim float64, t types.RedundancyThresholds) types.Redundancy {
	switch {
	case maxSim >= t.HardBlock:
		return types.Redundancy{MaxSim: maxSim, Blocked: true, Penalty: 1}
	case maxSim >= t.PenaltyStart:
		return types.Redundancy{MaxSim: maxSim, Penalty: (maxSim - t.PenaltyStart) / (t.HardBlock - t.PenaltyStart)}
	default:
		return types.Redundancy{MaxSim: maxSim}
	}
}

// similarity uses embeddings when both bullets have one, token overlap otherwise
func similarity(a, b *candidate) float64 {
	if len(a.vector) > 0 && len(a.vector) == len(b.vector) {
		return CosineSimilarity(a.vector, b.vector)
	}
	return JaccardSimilarity(a.tokens, b.tokens)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// JaccardSimilarity returns |a∩b| / |a∪b| for two token sets
func JaccardSimilarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit
func Tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}
