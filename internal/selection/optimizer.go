package selection

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/types"
)

// guardEntry is a bullet's best edge over all requirements, ignoring redundancy
type guardEntry struct {
	c     *candidate
	req   types.Requirement
	score float64
}

// runGuards locks the strongest experience and project bullets before covering.
// Disabled when both guard limits are zero.
func (a *allocation) runGuards() {
	guards := a.cfg.Guards
	if guards.TopPerRole == 0 && guards.TopGlobal == 0 {
		return
	}

	var parents []string
	perParent := make(map[string][]guardEntry)
	var all []guardEntry
	for _, c := range a.candidates {
		if c.section != types.SectionWorkExperience && c.section != types.SectionProjects {
			continue
		}
		entry, ok := a.bestGuardEntry(c)
		if !ok {
			continue
		}
		parentID := c.bullet.ParentID
		if _, seen := perParent[parentID]; !seen {
			parents = append(parents, parentID)
		}
		perParent[parentID] = append(perParent[parentID], entry)
		all = append(all, entry)
	}

	if guards.TopPerRole > 0 {
		for _, parentID := range parents {
			entries := perParent[parentID]
			sortGuardEntries(entries)
			placed := 0
			for _, entry := range entries {
				if placed >= guards.TopPerRole {
					break
				}
				if a.tryGuard(entry, "guard:per_role") {
					placed++
				}
			}
		}
	}

	if guards.TopGlobal > 0 {
		sortGuardEntries(all)
		placed := 0
		for _, entry := range all {
			if placed >= guards.TopGlobal {
				break
			}
			if a.tryGuard(entry, "guard:global") {
				placed++
			}
		}
	}
}

func (a *allocation) bestGuardEntry(c *candidate) (guardEntry, bool) {
	var best guardEntry
	found := false
	for _, req := range a.ordered {
		rel := c.rel[req.ReqID]
		if !a.scorer.Eligible(req, rel) {
			continue
		}
		score := a.scorer.Score(req, rel, c.evidence, 0)
		if !found || score > best.score {
			best = guardEntry{c: c, req: req, score: score}
			found = true
		}
	}
	return best, found
}

func sortGuardEntries(entries []guardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return better(entries[i].score, entries[i].c, entries[j].score, entries[j].c)
	})
}

func (a *allocation) tryGuard(entry guardEntry, reason string) bool {
	if entry.c.selected || a.dropped[entry.c.bullet.BulletID] {
		return false
	}
	if entry.score <= 0 || a.budget.RequirementCapped(entry.req.ReqID) {
		return false
	}
	red, _, ok := a.admit(entry.c)
	if !ok {
		return false
	}
	req := entry.req
	a.selectCandidate(entry.c, types.PhaseGuard, red, &req, reason)
	return true
}

// runCover visits each requirement once, in priority order, and selects the
// best admissible bullet for every requirement still below cover_threshold
func (a *allocation) runCover() {
	for _, req := range a.ordered {
		st := a.reqState[req.ReqID]
		if a.satisfied(req.ReqID) {
			continue
		}
		if a.budget.RequirementCapped(req.ReqID) {
			st.reason = types.ReasonRequirementCap
			continue
		}

		var best *candidate
		var bestRed types.Redundancy
		bestScore := 0.0
		eligible, blocked, overBudget := 0, 0, 0

		for _, c := range a.candidates {
			if c.selected {
				continue
			}
			rel := c.rel[req.ReqID]
			if !a.scorer.Eligible(req, rel) {
				continue
			}
			eligible++

			red, why, ok := a.admit(c)
			if !ok {
				if why == dropRedundancy {
					blocked++
				} else {
					overBudget++
				}
				continue
			}

			edge := a.scorer.Score(req, rel, c.evidence, red.Penalty)
			if edge <= 0 {
				continue
			}
			if better(edge, c, bestScore, best) {
				best, bestScore, bestRed = c, edge, red
			}
		}

		if best == nil {
			st.reason = coverFailureReason(eligible, blocked, overBudget)
			a.logger.Debug("requirement left uncovered",
				zap.String("req_id", req.ReqID),
				zap.String("reason", string(st.reason)),
				zap.Int("eligible", eligible))
			continue
		}

		target := req
		a.selectCandidate(best, types.PhaseCover, bestRed, &target)
		if a.satisfied(req.ReqID) {
			st.reason = ""
		} else {
			st.reason = types.ReasonBelowCoverThreshold
		}
	}
}

func coverFailureReason(eligible, blocked, overBudget int) types.UncoveredReason {
	switch {
	case eligible == 0:
		return types.ReasonNoEligibleCandidate
	case blocked == eligible:
		return types.ReasonRedundancyBlocked
	case overBudget > 0:
		return types.ReasonBudgetExhausted
	default:
		return types.ReasonNoEligibleCandidate
	}
}

// runFill adds the best remaining bullet by fill score until nothing admissible
// is left or the best fill score turns negative
func (a *allocation) runFill() {
	for {
		var best *candidate
		var bestRed types.Redundancy
		bestScore := 0.0

		for _, c := range a.candidates {
			if c.selected || a.dropped[c.bullet.BulletID] {
				continue
			}
			red, _, ok := a.admit(c)
			if !ok {
				continue
			}
			score := a.fillScore(c, red)
			if better(score, c, bestScore, best) {
				best, bestScore, bestRed = c, score, red
			}
		}

		if best == nil || bestScore < 0 {
			break
		}
		a.selectCandidate(best, types.PhaseFill, bestRed, nil, fmt.Sprintf("fill_score:%.2f", bestScore))
	}

	a.logger.Debug("fill phase finished",
		zap.Int("selected", len(a.items)),
		zap.Bool("budgets_exhausted", a.budget.Exhausted()))
}

// fillScore is alpha·Σedge over eligible uncapped requirements + beta·evidence − gamma·penalty
func (a *allocation) fillScore(c *candidate, red types.Redundancy) float64 {
	sum := 0.0
	for _, req := range a.requirements {
		rel := c.rel[req.ReqID]
		if !a.scorer.Eligible(req, rel) || a.budget.RequirementCapped(req.ReqID) {
			continue
		}
		sum += a.scorer.Score(req, rel, c.evidence, red.Penalty)
	}
	w := a.cfg.Weights.Fill
	return w.Alpha*sum + w.Beta*c.evidence.Score - w.Gamma*red.Penalty
}
