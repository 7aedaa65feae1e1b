package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-pipeline/internal/config"
	"github.com/jonathan/resume-pipeline/internal/coordinating"
	"github.com/jonathan/resume-pipeline/internal/coverletter"
	"github.com/jonathan/resume-pipeline/internal/generating"
	"github.com/jonathan/resume-pipeline/internal/profiling"
	"github.com/jonathan/resume-pipeline/internal/schemas"
	"github.com/jonathan/resume-pipeline/internal/structuring"
)

// HTTPStatus returns the appropriate HTTP status code for a pipeline error.
// Configuration problems are the caller's fault; everything the model
// produced that failed validation or generation is an upstream failure.
func HTTPStatus(err error) int {
	var (
		configErr    *config.ConfigurationError
		schemaErr    *schemas.ValidationError
		extractErr   *structuring.ExtractionError
		integrityErr *coordinating.IntegrityError
		genErr       *generating.GenerationError
		synthErr     *profiling.SynthesisError
		letterErr    *coverletter.GenerationError
	)

	switch {
	case errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.As(err, &integrityErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &schemaErr),
		errors.As(err, &extractErr),
		errors.As(err, &genErr),
		errors.As(err, &synthErr),
		errors.As(err, &letterErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
