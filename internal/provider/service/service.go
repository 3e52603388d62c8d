// Package service implements institution registration: one transaction
// covering the phone-collision check, address resolution, owner bootstrap,
// and the institution row itself.
package service

import (
	"context"
	"errors"
	"log/slog"

	geomodels "kidsearch/internal/geo/models"
	"kidsearch/internal/provider/models"
	"kidsearch/internal/provider/store"
	dErrors "kidsearch/pkg/domain-errors"
	"kidsearch/pkg/platform/sentinel"
	txcontext "kidsearch/pkg/platform/tx"
)

// GeoResolver is the slice of the geo service the provider domain needs.
type GeoResolver interface {
	GetOrCreate(ctx context.Context, query *geomodels.AddressQuery) (*geomodels.ResolvedAddress, error)
	PhonesInUse(ctx context.Context, numbers []int64) ([]int64, error)
}

// Recorder appends audit events; nil disables auditing.
type Recorder interface {
	Append(ctx context.Context, eventType string, payload any) error
}

// Service registers institutions for authenticated owners.
type Service struct {
	store  store.Store
	geo    GeoResolver
	runner txcontext.Runner
	logger *slog.Logger
	audit  Recorder
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAudit(recorder Recorder) Option {
	return func(s *Service) { s.audit = recorder }
}

// New constructs the provider service. The runner owns the registration
// transaction; stores and the geo service stage writes into it through the
// context.
func New(st store.Store, geo GeoResolver, runner txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		store:  st,
		geo:    geo,
		runner: runner,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInstitution creates an institution at the request's address. The
// whole flow runs in one unit of work: if any level of the address hierarchy
// or the institution row fails, nothing is persisted.
func (s *Service) RegisterInstitution(ctx context.Context, userID int64, req *models.RegisterInstitutionRequest) (*models.RegisterInstitutionResult, error) {
	if req.Name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "institution name is required")
	}
	if err := req.Address.Validate(); err != nil {
		return nil, err
	}

	var result *models.RegisterInstitutionResult
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		inUse, err := s.geo.PhonesInUse(ctx, req.Address.Phones)
		if err != nil {
			return err
		}
		if len(inUse) > 0 {
			return dErrors.Newf(dErrors.CodeConflict, "phone number %d is already registered", inUse[0])
		}

		resolved, err := s.geo.GetOrCreate(ctx, &req.Address)
		if err != nil {
			return err
		}

		owner, err := s.ownerForUser(ctx, userID)
		if err != nil {
			return err
		}

		institution := &models.Institution{
			Name:      req.Name,
			OwnerID:   owner.ID,
			AddressID: resolved.Address.ID,
		}
		if err := s.store.CreateInstitution(ctx, institution); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create institution")
		}

		s.recordEvent(ctx, "institution.registered", map[string]any{
			"institution_id": institution.ID,
			"owner_id":       owner.ID,
			"address_id":     resolved.Address.ID,
		})

		result = &models.RegisterInstitutionResult{
			Institution: institution,
			Address:     resolved,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "institution registered",
		"institution_id", result.Institution.ID,
		"owner_id", result.Institution.OwnerID,
	)
	return result, nil
}

// Institutions lists the institutions registered by the user. A user who
// never registered one is not an error; the list is empty.
func (s *Service) Institutions(ctx context.Context, userID int64) ([]*models.Institution, error) {
	owner, err := s.store.OwnerByUserID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up owner")
	}

	institutions, err := s.store.InstitutionsByOwner(ctx, owner.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list institutions")
	}
	return institutions, nil
}

// Institution returns one of the user's institutions by ID. Institutions
// belonging to other owners are reported as missing rather than forbidden.
func (s *Service) Institution(ctx context.Context, userID, institutionID int64) (*models.Institution, error) {
	owner, err := s.store.OwnerByUserID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up owner")
	}

	institution, err := s.store.InstitutionByID(ctx, institutionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up institution")
	}
	if institution.OwnerID != owner.ID {
		return nil, dErrors.New(dErrors.CodeNotFound, "institution not found")
	}
	return institution, nil
}

// ownerForUser returns the user's owner record, creating it on first use.
func (s *Service) ownerForUser(ctx context.Context, userID int64) (*models.Owner, error) {
	owner, err := s.store.OwnerByUserID(ctx, userID)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up owner")
	}

	owner = &models.Owner{UserID: userID}
	if err := s.store.CreateOwner(ctx, owner); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "concurrent owner creation")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create owner")
	}
	return owner, nil
}

func (s *Service) recordEvent(ctx context.Context, eventType string, payload any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, eventType, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to record audit event",
			"event_type", eventType,
			"error", err.Error(),
		)
	}
}
