package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/selection"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "run_id", Message: "failed 'max' check"}
	assert.Equal(t, "validation error: run_id - failed 'max' check", err.Error())
}

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{RunID: "run_1", Resource: "selection plan"}
	assert.Equal(t, "selection plan not found for run run_1", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", &ErrValidation{Field: "body", Message: "bad"}, http.StatusBadRequest},
		{"selection config", &config.SelectionValidationError{Field: "budgets"}, http.StatusBadRequest},
		{"invalid input", &selection.InputError{Invariant: "weight_positive"}, http.StatusUnprocessableEntity},
		{"wrapped invalid input", fmt.Errorf("run: %w", &selection.InputError{}), http.StatusUnprocessableEntity},
		{"not found", &ErrNotFound{RunID: "r"}, http.StatusNotFound},
		{"missing artifact", &db.MissingArtifactError{RunID: "r", Step: db.StepRubric}, http.StatusNotFound},
		{"run not found", fmt.Errorf("%w: r", db.ErrRunNotFound), http.StatusNotFound},
		{"cancelled", fmt.Errorf("selection cancelled: %w", context.Canceled), http.StatusServiceUnavailable},
		{"unknown", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
