// Package handler exposes the geo subsystem over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kidsearch/internal/geo/models"
	dErrors "kidsearch/pkg/domain-errors"
	"kidsearch/pkg/platform/httputil"
	"kidsearch/pkg/requestcontext"
)

// Service defines the geo operations the handler needs.
type Service interface {
	Countries(ctx context.Context) ([]*models.Country, error)
	Resolve(ctx context.Context, query *models.AddressQuery) (*models.ResolvedAddress, error)
}

// Handler handles geo endpoints.
type Handler struct {
	geo    Service
	logger *slog.Logger
}

// New creates a geo Handler.
func New(geo Service, logger *slog.Logger) *Handler {
	return &Handler{geo: geo, logger: logger}
}

// Register mounts the geo routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/geo/countries", h.handleListCountries)
	r.Post("/geo/addresses/resolve", h.handleResolveAddress)
}

type countryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) handleListCountries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	countries, err := h.geo.Countries(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list countries",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := make([]countryResponse, 0, len(countries))
	for _, c := range countries {
		resp = append(resp, countryResponse{ID: c.ID, Name: c.Name})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleResolveAddress runs a read-only partial-match lookup so clients can
// pre-fill forms from whatever fragments the user already typed.
func (h *Handler) handleResolveAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var query models.AddressQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resolved, err := h.geo.Resolve(ctx, &query)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			h.logger.ErrorContext(ctx, "failed to resolve address",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolved)
}
