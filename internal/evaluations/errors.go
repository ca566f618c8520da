package evaluations

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/scopecheck/internal/checklist"
)

// Domain errors for evaluation operations.
var (
	ErrNotFound     = errors.New("evaluation not found")
	ErrDuplicate    = errors.New("evaluation already linked to experiment")
	ErrInvalidInput = errors.New("invalid request")
	ErrBodyTooLarge = errors.New("request body too large")
)

// MapHTTPStatus maps evaluation and checklist errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, checklist.ErrPrecondition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checklist.ErrSubmitted), errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, checklist.ErrUnknownQuestion),
		errors.Is(err, checklist.ErrUnknownField),
		errors.Is(err, checklist.ErrFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
