package api

import (
	"fmt"

	"github.com/JaimeStill/scopecheck/internal/config"
	"github.com/JaimeStill/scopecheck/internal/evaluations"
	"github.com/JaimeStill/scopecheck/internal/lookup"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Evaluations evaluations.System
	Lookup      lookup.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	evaluationsSystem := evaluations.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Catalog,
		runtime.Logger,
		runtime.Metrics,
		runtime.Pagination,
	)

	lookupSystem, err := lookup.New(&cfg.Lookup, nil, runtime.Logger, runtime.Metrics)
	if err != nil {
		return nil, fmt.Errorf("lookup init failed: %w", err)
	}

	return &Domain{
		Evaluations: evaluationsSystem,
		Lookup:      lookupSystem,
	}, nil
}
