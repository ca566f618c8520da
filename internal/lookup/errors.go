package lookup

import (
	"errors"
	"net/http"
)

// Domain errors for lookup operations.
var (
	ErrDisabled     = errors.New("experiment lookup not configured")
	ErrUnavailable  = errors.New("experiment lookup failed")
	ErrInvalidID    = errors.New("invalid experiment id")
	ErrInvalidInput = errors.New("invalid request body")
	ErrBodyTooLarge = errors.New("request body too large")
)

// MapHTTPStatus maps lookup errors to HTTP status codes. Upstream failures
// surface as 502.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
