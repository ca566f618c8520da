package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/scopecheck/internal/checklist"
	"github.com/JaimeStill/scopecheck/pkg/handlers"
	"github.com/JaimeStill/scopecheck/pkg/routes"
)

type catalogHandler struct {
	catalog *checklist.Catalog
	logger  *slog.Logger
}

func newCatalogHandler(catalog *checklist.Catalog, logger *slog.Logger) *catalogHandler {
	return &catalogHandler{
		catalog: catalog,
		logger:  logger.With("handler", "catalog"),
	}
}

func (h *catalogHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/catalog",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.get},
		},
	}
}

// get returns the question sections, microscopes, and stall reasons the
// form is built from.
func (h *catalogHandler) get(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.catalog)
}
