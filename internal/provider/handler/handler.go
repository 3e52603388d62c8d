// Package handler exposes institution registration over HTTP. All routes
// require a valid access token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"kidsearch/internal/provider/models"
	dErrors "kidsearch/pkg/domain-errors"
	"kidsearch/pkg/platform/httputil"
	"kidsearch/pkg/requestcontext"
)

type Service interface {
	RegisterInstitution(ctx context.Context, userID int64, req *models.RegisterInstitutionRequest) (*models.RegisterInstitutionResult, error)
	Institution(ctx context.Context, userID, institutionID int64) (*models.Institution, error)
	Institutions(ctx context.Context, userID int64) ([]*models.Institution, error)
}

type Handler struct {
	provider Service
	logger   *slog.Logger
}

func New(provider Service, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, logger: logger}
}

// Register mounts the provider routes. The caller wraps them in the auth
// middleware.
func (h *Handler) Register(r chi.Router) {
	r.Route("/providers", func(r chi.Router) {
		r.Post("/institutions", h.handleRegisterInstitution)
		r.Get("/institutions", h.handleListInstitutions)
		r.Get("/institutions/{institutionID}", h.handleGetInstitution)
	})
}

func (h *Handler) handleRegisterInstitution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req models.RegisterInstitutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if !govalidator.StringLength(req.Name, "1", "255") {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "institution name must be between 1 and 255 characters"))
		return
	}

	result, err := h.provider.RegisterInstitution(ctx, userID, &req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "institution registration failed",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", userID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleGetInstitution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	institutionID, err := strconv.ParseInt(chi.URLParam(r, "institutionID"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid institution id"))
		return
	}

	institution, err := h.provider.Institution(ctx, userID, institutionID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "failed to get institution",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", userID,
				"institution_id", institutionID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, institution)
}

func (h *Handler) handleListInstitutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	institutions, err := h.provider.Institutions(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list institutions",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	if institutions == nil {
		institutions = []*models.Institution{}
	}
	httputil.WriteJSON(w, http.StatusOK, institutions)
}
