package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/selection"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates the run has no resource of the requested kind
type ErrNotFound struct {
	RunID    string
	Resource string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found for run %s", e.Resource, e.RunID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notFoundErr   *ErrNotFound
		missingErr    *db.MissingArtifactError
		configErr     *config.SelectionValidationError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.Is(err, selection.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFoundErr), errors.As(err, &missingErr), errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
