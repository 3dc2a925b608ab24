package selection

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/types"
)

// candidate is a bullet prepared for selection: everything the phases need is resolved up front
type candidate struct {
	bullet      types.CandidateBullet
	section     types.Section
	bucket      types.RoleBucket
	parentIndex int
	words       int
	vector      []float64
	tokens      map[string]struct{}
	evidence    types.EvidenceScore
	hasEvidence bool
	rel         map[string]float64
	selected    bool
}

// requirementState is the running coverage of one requirement
type requirementState struct {
	accumulated  float64
	contributors int
	reason       types.UncoveredReason
}

// allocation is the mutable state of a single run. It is created after input
// validation and threaded through the guard, cover and fill phases.
type allocation struct {
	cfg        *types.SelectionConfig
	scorer     EdgeScorer
	budget     *BudgetAllocator
	redundancy *RedundancyDetector
	logger     *zap.Logger

	requirements []types.Requirement // rubric order
	ordered      []types.Requirement // cover-phase order
	reqState     map[string]*requirementState

	candidates []*candidate
	items      []*types.SelectedItem
	sequence   int

	dropped          map[string]bool
	droppedRedundant []string
	droppedBudget    []string
	missingEvidence  []string
}

func newAllocation(in *Inputs, logger *zap.Logger) *allocation {
	cfg := in.Config
	a := &allocation{
		cfg:          cfg,
		scorer:       NewEdgeScorer(cfg),
		budget:       NewBudgetAllocator(cfg.Budgets),
		redundancy:   NewRedundancyDetector(cfg.Thresholds.Redundancy),
		logger:       logger,
		requirements: in.Rubric.Requirements,
		ordered:      orderRequirements(in.Rubric.Requirements),
		reqState:     make(map[string]*requirementState, len(in.Rubric.Requirements)),
		dropped:      make(map[string]bool),
	}
	for _, req := range a.requirements {
		a.reqState[req.ReqID] = &requirementState{}
	}
	a.buildCandidates(in)
	return a
}

func (a *allocation) buildCandidates(in *Inputs) {
	evidence := in.Evidence.ByBulletID()
	lookup := in.Relevance.Lookup()
	vectors := in.Embeddings.ByBulletID()
	expOrder := in.Resume.ExperienceOrder()
	parentIndex := in.Resume.ParentIndex()

	a.candidates = make([]*candidate, 0, len(in.Resume.Bullets))
	for _, b := range in.Resume.Bullets {
		ev, ok := evidence[b.BulletID]
		if !ok {
			ev = types.MissingEvidence(b.BulletID)
			a.missingEvidence = append(a.missingEvidence, b.BulletID)
		}
		if ev.Tier == "" {
			ev.Tier = types.TierWeak
		}

		rel := make(map[string]float64)
		for _, req := range a.requirements {
			if v, found := lookup[types.RelevanceKey{BulletID: b.BulletID, ReqID: req.ReqID}]; found {
				rel[req.ReqID] = v
			}
		}

		c := &candidate{
			bullet:      b,
			section:     b.ParentType.Section(),
			bucket:      types.BucketOlder,
			parentIndex: parentIndex[b.ParentID],
			words:       b.WordCount(),
			vector:      vectors[b.BulletID],
			tokens:      Tokenize(b.Text),
			evidence:    ev,
			hasEvidence: ok,
			rel:         rel,
		}
		if b.ParentType == types.ParentExperience {
			c.bucket = types.BucketForRecency(expOrder[b.ParentID])
		}
		a.candidates = append(a.candidates, c)
	}
}

// orderRequirements sorts musts first, then weight descending, then req_id ascending
func orderRequirements(reqs []types.Requirement) []types.Requirement {
	ordered := make([]types.Requirement, len(reqs))
	copy(ordered, reqs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].IsMust() != ordered[j].IsMust() {
			return ordered[i].IsMust()
		}
		if ordered[i].Weight != ordered[j].Weight {
			return ordered[i].Weight > ordered[j].Weight
		}
		return ordered[i].ReqID < ordered[j].ReqID
	})
	return ordered
}

// candidateCounts counts the bullets eligible for each requirement
func (a *allocation) candidateCounts() map[string]int {
	counts := make(map[string]int, len(a.requirements))
	for _, req := range a.requirements {
		n := 0
		for _, c := range a.candidates {
			if a.scorer.Eligible(req, c.rel[req.ReqID]) {
				n++
			}
		}
		counts[req.ReqID] = n
	}
	return counts
}

// satisfied reports whether the requirement's accumulated coverage reached cover_threshold
func (a *allocation) satisfied(reqID string) bool {
	return a.reqState[reqID].accumulated >= a.cfg.Thresholds.CoverThreshold
}

// admit evaluates redundancy and budget for c, recording it as dropped on rejection
func (a *allocation) admit(c *candidate) (types.Redundancy, dropReason, bool) {
	red := a.redundancy.Evaluate(c)
	if red.Blocked {
		a.drop(c, dropRedundancy)
		return red, dropRedundancy, false
	}
	if !a.budget.Eligible(c) {
		a.drop(c, dropBudget)
		return red, dropBudget, false
	}
	return red, dropNone, true
}

type dropReason int

const (
	dropNone dropReason = iota
	dropRedundancy
	dropBudget
)

// drop records c under its first rejection reason only
func (a *allocation) drop(c *candidate, reason dropReason) {
	id := c.bullet.BulletID
	if a.dropped[id] {
		return
	}
	a.dropped[id] = true
	switch reason {
	case dropRedundancy:
		a.droppedRedundant = append(a.droppedRedundant, id)
	case dropBudget:
		a.droppedBudget = append(a.droppedBudget, id)
	}
	a.logger.Debug("candidate dropped",
		zap.String("bullet_id", id),
		zap.Bool("redundant", reason == dropRedundancy))
}

// selectCandidate commits c to the plan. Matches are recorded for every
// requirement c is eligible for; only matches with a positive edge count
// toward that requirement's cap and accumulated coverage.
func (a *allocation) selectCandidate(c *candidate, phase types.SelectionPhase, red types.Redundancy, target *types.Requirement, reasons ...string) {
	c.selected = true
	a.budget.Commit(c)
	a.redundancy.Add(c)
	a.sequence++

	matches := make([]types.RequirementMatch, 0)
	for _, req := range a.requirements {
		rel := c.rel[req.ReqID]
		if !a.scorer.Eligible(req, rel) {
			continue
		}
		edge := a.scorer.Score(req, rel, c.evidence, red.Penalty)
		// A non-positive edge never takes a slot under the per-requirement cap
		counted := edge > 0 && a.budget.CountContribution(req.ReqID)
		if counted {
			st := a.reqState[req.ReqID]
			st.contributors++
			st.accumulated += edge
		}
		matches = append(matches, types.RequirementMatch{
			ReqID:     req.ReqID,
			Rel:       rel,
			EdgeScore: edge,
			Counted:   counted,
		})
	}

	all := make([]string, 0, len(reasons)+4)
	if target != nil {
		all = append(all,
			fmt.Sprintf("covers_%s:%s", target.Type, target.ReqID),
			fmt.Sprintf("relevance:%.2f", c.rel[target.ReqID]))
	}
	all = append(all, reasons...)
	all = append(all, fmt.Sprintf("%s_evidence:%.2f", c.evidence.Tier, c.evidence.Score))
	if red.Penalty > 0 {
		all = append(all, fmt.Sprintf("redundancy_penalty:%.2f", red.Penalty))
	}

	b := c.bullet
	a.items = append(a.items, &types.SelectedItem{
		BulletID:     b.BulletID,
		ParentType:   b.ParentType,
		ParentID:     b.ParentID,
		Company:      b.Company,
		Role:         b.Role,
		Dates:        b.Dates,
		Location:     b.Location,
		OriginalText: b.Text,
		Evidence: types.EvidenceSnapshot{
			Score:        c.evidence.Score,
			Tier:         c.evidence.Tier,
			Breakdown:    c.evidence.Breakdown,
			FluffPenalty: c.evidence.FluffPenalty,
		},
		Matches:       matches,
		Redundancy:    red,
		RewriteIntent: RewriteIntentFor(c.evidence),
		Phase:         phase,
		Sequence:      a.sequence,
		Reasons:       all,
	})

	a.logger.Debug("bullet selected",
		zap.String("bullet_id", b.BulletID),
		zap.String("phase", string(phase)),
		zap.Int("sequence", a.sequence),
		zap.Int("matches", len(matches)))
}

// better reports whether (score, c) outranks (bestScore, best).
// Ties go to the higher evidence tier, then lower order, then earlier parent, then bullet_id.
func better(score float64, c *candidate, bestScore float64, best *candidate) bool {
	if best == nil {
		return true
	}
	if score != bestScore {
		return score > bestScore
	}
	if r, br := c.evidence.Tier.Rank(), best.evidence.Tier.Rank(); r != br {
		return r > br
	}
	if c.bullet.Order != best.bullet.Order {
		return c.bullet.Order < best.bullet.Order
	}
	if c.parentIndex != best.parentIndex {
		return c.parentIndex < best.parentIndex
	}
	return c.bullet.BulletID < best.bullet.BulletID
}
