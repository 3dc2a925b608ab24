package selection

import (
	"errors"
	"math"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/types"
)

// validateInputs rejects malformed rubrics, resumes, evidence and configs.
// It runs before any allocation state exists.
func validateInputs(in *Inputs) error {
	if in.Rubric == nil {
		return inputErrorf("rubric_present", "rubric", "rubric is required")
	}
	if in.Resume == nil {
		return inputErrorf("master_resume_present", "master_resume", "master resume is required")
	}

	if err := config.ValidateSelection(in.Config); err != nil {
		var verr *config.SelectionValidationError
		if errors.As(err, &verr) {
			return &InputError{Invariant: verr.Invariant, Field: verr.Field, Message: verr.Message}
		}
		return inputErrorf("config_valid", "config", "%v", err)
	}

	if err := validateRubric(in.Rubric); err != nil {
		return err
	}
	if err := validateResume(in.Resume); err != nil {
		return err
	}
	if in.Evidence != nil {
		if err := validateEvidence(in.Evidence); err != nil {
			return err
		}
	}
	if in.Relevance != nil {
		if err := validateRelevance(in.Relevance); err != nil {
			return err
		}
	}
	return nil
}

func validateRubric(rubric *types.Rubric) error {
	seen := make(map[string]bool, len(rubric.Requirements))
	for i, req := range rubric.Requirements {
		if req.ReqID == "" {
			return inputErrorf("requirement_id_present", "rubric.requirements", "requirement at index %d has no req_id", i)
		}
		if seen[req.ReqID] {
			return inputErrorf("requirement_id_unique", "rubric.requirements", "duplicate req_id %q", req.ReqID)
		}
		seen[req.ReqID] = true

		if !req.Type.Valid() {
			return inputErrorf("requirement_type_known", "rubric.requirements."+req.ReqID, "unknown type %q", req.Type)
		}
		if math.IsNaN(req.Weight) || math.IsInf(req.Weight, 0) || req.Weight <= 0 {
			return inputErrorf("requirement_weight_positive", "rubric.requirements."+req.ReqID, "weight must be > 0, got %v", req.Weight)
		}
	}
	return nil
}

func validateResume(resume *types.MasterResume) error {
	parents := make(map[string]types.ParentType, len(resume.Parents))
	for i, p := range resume.Parents {
		if p.ID == "" {
			return inputErrorf("parent_id_present", "master_resume.parents", "parent at index %d has no id", i)
		}
		if _, dup := parents[p.ID]; dup {
			return inputErrorf("parent_id_unique", "master_resume.parents", "duplicate parent id %q", p.ID)
		}
		if !p.Type.Valid() {
			return inputErrorf("parent_type_known", "master_resume.parents."+p.ID, "unknown type %q", p.Type)
		}
		parents[p.ID] = p.Type
	}

	seen := make(map[string]bool, len(resume.Bullets))
	for i, b := range resume.Bullets {
		if b.BulletID == "" {
			return inputErrorf("bullet_id_present", "master_resume.bullets", "bullet at index %d has no bullet_id", i)
		}
		if seen[b.BulletID] {
			return inputErrorf("bullet_id_unique", "master_resume.bullets", "duplicate bullet_id %q", b.BulletID)
		}
		seen[b.BulletID] = true

		if !b.ParentType.Valid() {
			return inputErrorf("parent_type_known", "master_resume.bullets."+b.BulletID, "unknown parent_type %q", b.ParentType)
		}
		parentType, ok := parents[b.ParentID]
		if !ok {
			return inputErrorf("bullet_parent_exists", "master_resume.bullets."+b.BulletID, "parent %q does not exist", b.ParentID)
		}
		if parentType != b.ParentType {
			return inputErrorf("bullet_parent_type_matches", "master_resume.bullets."+b.BulletID,
				"parent_type %q does not match parent %q of type %q", b.ParentType, b.ParentID, parentType)
		}
	}
	return nil
}

func validateEvidence(evidence *types.EvidenceScores) error {
	for _, s := range evidence.Bullets {
		field := "evidence.bullets." + s.BulletID
		if math.IsNaN(s.Score) || s.Score < 0 || s.Score > 1 {
			return inputErrorf("evidence_score_range", field, "score must be within [0,1], got %v", s.Score)
		}
		if s.FluffPenalty < 0 {
			return inputErrorf("fluff_penalty_non_negative", field, "fluff_penalty must be >= 0, got %v", s.FluffPenalty)
		}
		if s.Tier != "" && !s.Tier.Valid() {
			return inputErrorf("evidence_tier_known", field, "unknown tier %q", s.Tier)
		}
	}
	return nil
}

func validateRelevance(matrix *types.RelevanceMatrix) error {
	for key, rel := range matrix.Lookup() {
		if math.IsNaN(rel) || rel < 0 || rel > 1 {
			return inputErrorf("relevance_score_range", "relevance."+key.ReqID+"."+key.BulletID,
				"rel must be within [0,1], got %v", rel)
		}
	}
	return nil
}
