// Package middleware holds the HTTP middleware the API module stacks in
// front of its routes: CORS, request logging, request metrics, and bearer
// token auth.
package middleware

import (
	"net/http"
	"slices"
)

// System is an ordered middleware stack. The first middleware added is
// the outermost layer and sees the request first.
type System interface {
	Use(mws ...func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack struct {
	layers []func(http.Handler) http.Handler
}

// New creates an empty middleware System.
func New() System {
	return &stack{}
}

func (s *stack) Use(mws ...func(http.Handler) http.Handler) {
	s.layers = append(s.layers, mws...)
}

// Apply wraps handler so that layers run in the order they were added.
func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, layer := range slices.Backward(s.layers) {
		handler = layer(handler)
	}
	return handler
}
