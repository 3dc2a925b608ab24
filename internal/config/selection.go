package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-tailor/internal/types"
)

// DefaultSelectionConfigVersion is the version stamped on the built-in defaults
const DefaultSelectionConfigVersion = "selection_config_v1"

// DefaultSelection returns the built-in selection configuration
func DefaultSelection() types.SelectionConfig {
	return types.SelectionConfig{
		ConfigVersion: DefaultSelectionConfigVersion,
		Budgets: types.Budgets{
			TargetResumeWordsMin: 300,
			TargetResumeWordsMax: 700,
			ExperienceBulletsMin: 8,
			ExperienceBulletsMax: 14,
			ProjectBulletsMin:    0,
			ProjectBulletsMax:    4,
			AwardLinesMin:        0,
			AwardLinesMax:        3,
			PerRoleCaps: types.RoleCaps{
				MostRecent: 6,
				Next:       4,
				Older:      3,
			},
			MaxBulletsPerRequirement: 2,
		},
		Thresholds: types.Thresholds{
			MustMinRel:     0.35,
			NiceMinRel:     0.3,
			CoverThreshold: 0.45,
			Redundancy: types.RedundancyThresholds{
				HardBlock:    0.92,
				PenaltyStart: 0.85,
			},
			MinEvidenceTierNice: types.TierMedium,
		},
		Weights: types.Weights{
			Edge: types.EdgeWeights{WRel: 0.6, WEvd: 0.35, WRed: 0.2, WRisk: 0.15},
			Fill: types.FillWeights{Alpha: 0.5, Beta: 0.3, Gamma: 0.2},
		},
	}
}

// SelectionValidationError reports a selection config that breaks an invariant
type SelectionValidationError struct {
	Field     string
	Invariant string
	Message   string
}

func (e *SelectionValidationError) Error() string {
	return fmt.Sprintf("config error: %s: %s (%s)", e.Field, e.Message, e.Invariant)
}

// ValidateSelection checks field ranges and cross-field rules of a selection config
func ValidateSelection(cfg *types.SelectionConfig) error {
	if cfg == nil {
		return &SelectionValidationError{Field: "config", Invariant: "config_present", Message: "selection config is nil"}
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &SelectionValidationError{
				Field:     fe.Namespace(),
				Invariant: "field_range",
				Message:   fmt.Sprintf("failed '%s' check (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return fmt.Errorf("failed to validate selection config: %w", err)
	}

	b := cfg.Budgets
	ranges := []struct {
		field    string
		min, max int
	}{
		{"budgets.target_resume_words", b.TargetResumeWordsMin, b.TargetResumeWordsMax},
		{"budgets.experience_bullets", b.ExperienceBulletsMin, b.ExperienceBulletsMax},
		{"budgets.project_bullets", b.ProjectBulletsMin, b.ProjectBulletsMax},
		{"budgets.award_lines", b.AwardLinesMin, b.AwardLinesMax},
	}
	for _, r := range ranges {
		// A zero word max means no word limit.
		if r.field == "budgets.target_resume_words" && r.max == 0 {
			continue
		}
		if r.min > r.max {
			return &SelectionValidationError{
				Field:     r.field,
				Invariant: "budget_min_le_max",
				Message:   fmt.Sprintf("min %d exceeds max %d", r.min, r.max),
			}
		}
	}

	red := cfg.Thresholds.Redundancy
	if red.PenaltyStart >= red.HardBlock {
		return &SelectionValidationError{
			Field:     "thresholds.redundancy",
			Invariant: "penalty_start_lt_hard_block",
			Message:   fmt.Sprintf("penalty_start %.2f must be below hard_block %.2f", red.PenaltyStart, red.HardBlock),
		}
	}

	return nil
}

// ParseSelection decodes a selection config, rejecting unknown fields, and validates it.
// The returned hash is computed over the raw bytes.
func ParseSelection(data []byte) (*types.SelectionConfig, string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg types.SelectionConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse selection config JSON: %w", err)
	}
	if err := ValidateSelection(&cfg); err != nil {
		return nil, "", err
	}
	return &cfg, HashBytes(data), nil
}

// LoadSelection reads and validates a selection config file.
// An empty path returns the built-in defaults.
func LoadSelection(path string) (*types.SelectionConfig, string, error) {
	if path == "" {
		cfg := DefaultSelection()
		hash, err := HashSelection(&cfg)
		if err != nil {
			return nil, "", err
		}
		return &cfg, hash, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read selection config %s: %w", path, err)
	}
	return ParseSelection(data)
}

// HashSelection hashes the canonical JSON encoding of a selection config
func HashSelection(cfg *types.SelectionConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal selection config: %w", err)
	}
	return HashBytes(data), nil
}

// HashBytes returns the "sha256:"-prefixed hex digest of data
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
