package api

import (
	"net/http"

	"github.com/JaimeStill/scopecheck/internal/config"
	"github.com/JaimeStill/scopecheck/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	groups := []routes.Group{
		newCatalogHandler(runtime.Catalog, runtime.Logger).routes(),
		domain.Evaluations.Handler(int64(cfg.API.MaxBodySize)).Routes(),
		domain.Lookup.Handler(int64(cfg.API.MaxBodySize)).Routes(),
	}

	if runtime.Storage != nil {
		groups = append(groups, newArchiveHandler(
			runtime.Storage,
			runtime.Logger,
			cfg.Storage.MaxListSize,
		).routes())
	}

	routes.Register(mux, groups...)
}
