package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/scopecheck/pkg/handlers"
	"github.com/JaimeStill/scopecheck/pkg/routes"
)

// MaxDiscoverIDs bounds the experiments one discover request may resolve.
const MaxDiscoverIDs = 50

// Handler provides HTTP endpoints for experiment lookups.
type Handler struct {
	sys         System
	logger      *slog.Logger
	maxBodySize int64
}

// NewHandler creates a Handler. Request bodies larger than maxBodySize are
// rejected; zero disables the limit.
func NewHandler(sys System, logger *slog.Logger, maxBodySize int64) *Handler {
	return &Handler{
		sys:         sys,
		logger:      logger.With("handler", "lookup"),
		maxBodySize: maxBodySize,
	}
}

// Routes returns the route group definition for lookup endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:     "/lookup",
		Middleware: []routes.Middleware{h.limitBody},
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/experiments", Handler: h.Recent},
			{Method: "GET", Pattern: "/experiments/{id}/chips", Handler: h.Chips},
			{Method: "POST", Pattern: "/discover", Handler: h.Discover},
		},
	}
}

func (h *Handler) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && h.maxBodySize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// Recent returns the recent experiment IDs.
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	ids, err := h.sys.RecentExperiments(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	if ids == nil {
		ids = []int{}
	}
	handlers.RespondJSON(w, http.StatusOK, ids)
}

// Chips returns one experiment with its chips and libraries.
func (h *Handler) Chips(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %q", ErrInvalidID, r.PathValue("id")))
		return
	}

	exps, err := h.sys.Discover(r.Context(), []int{id})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, exps[0])
}

// Discover resolves several experiments at once.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrBodyTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidInput)
		return
	}

	if len(req.ExperimentIDs) > MaxDiscoverIDs {
		err := fmt.Errorf("%w: at most %d experiment ids", ErrInvalidInput, MaxDiscoverIDs)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	exps, err := h.sys.Discover(r.Context(), req.ExperimentIDs)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, exps)
}
