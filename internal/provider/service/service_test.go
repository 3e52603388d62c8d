package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kidsearch/internal/audit"
	geomodels "kidsearch/internal/geo/models"
	geoservice "kidsearch/internal/geo/service"
	geostore "kidsearch/internal/geo/store"
	"kidsearch/internal/provider/models"
	"kidsearch/internal/provider/store"
	dErrors "kidsearch/pkg/domain-errors"
	txcontext "kidsearch/pkg/platform/tx"
)

// echoNormalizer returns the query unchanged, as if the geocoder confirmed
// the caller's input verbatim.
type echoNormalizer struct{}

func (echoNormalizer) Normalize(_ context.Context, query *geomodels.AddressQuery) (*geomodels.AddressQuery, error) {
	copied := *query
	return &copied, nil
}

type ProviderServiceSuite struct {
	suite.Suite
	store    *store.InMemory
	geoStore *geostore.InMemory
	outbox   *audit.InMemory
	service  *Service
}

func TestProviderServiceSuite(t *testing.T) {
	suite.Run(t, new(ProviderServiceSuite))
}

func (s *ProviderServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.geoStore = geostore.NewInMemory()
	s.outbox = audit.NewInMemory()

	ctx := context.Background()
	s.Require().NoError(s.geoStore.CreateCountry(ctx, &geomodels.Country{Name: "Russia"}))

	geo := geoservice.New(s.geoStore, echoNormalizer{})
	s.service = New(s.store, geo, txcontext.NopRunner{}, WithAudit(s.outbox))
}

func (s *ProviderServiceSuite) registerRequest(phones ...int64) *models.RegisterInstitutionRequest {
	street := "Lenina"
	building := "10"
	return &models.RegisterInstitutionRequest{
		Name: "Sunrise Kids Club",
		Address: geomodels.AddressQuery{
			Country:  "Russia",
			City:     "Tomsk",
			Street:   &street,
			Building: &building,
			Phones:   phones,
		},
	}
}

func (s *ProviderServiceSuite) TestRegisterInstitution() {
	ctx := context.Background()

	s.Run("creates owner, address, and institution", func() {
		result, err := s.service.RegisterInstitution(ctx, 1, s.registerRequest(79001234567))
		s.Require().NoError(err)
		s.Equal("Sunrise Kids Club", result.Institution.Name)
		s.NotZero(result.Institution.ID)
		s.Equal(result.Address.Address.ID, result.Institution.AddressID)

		owner, err := s.store.OwnerByUserID(ctx, 1)
		s.Require().NoError(err)
		s.Equal(owner.ID, result.Institution.OwnerID)

		phones, err := s.geoStore.PhonesByAddress(ctx, result.Address.Address.ID)
		s.Require().NoError(err)
		s.Require().Len(phones, 1)
		s.Equal(int64(79001234567), phones[0].Number)
	})

	s.Run("reuses owner for second institution", func() {
		first, err := s.service.RegisterInstitution(ctx, 2, s.registerRequest())
		s.Require().NoError(err)

		req := s.registerRequest()
		req.Name = "Second Branch"
		second, err := s.service.RegisterInstitution(ctx, 2, req)
		s.Require().NoError(err)

		s.Equal(first.Institution.OwnerID, second.Institution.OwnerID)
		// Same address fragments converge on the same leaf row.
		s.Equal(first.Institution.AddressID, second.Institution.AddressID)
	})

	s.Run("rejects already registered phone", func() {
		// Distinct building so the leaf is newly created and the phone
		// actually gets attached.
		building := "44"
		req := s.registerRequest(79009999999)
		req.Address.Building = &building
		_, err := s.service.RegisterInstitution(ctx, 3, req)
		s.Require().NoError(err)

		other := s.registerRequest(79009999999)
		_, err = s.service.RegisterInstitution(ctx, 4, other)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects empty name", func() {
		req := s.registerRequest()
		req.Name = ""
		_, err := s.service.RegisterInstitution(ctx, 5, req)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects invalid address", func() {
		req := s.registerRequest()
		req.Address.City = ""
		_, err := s.service.RegisterInstitution(ctx, 5, req)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("records audit event", func() {
		_, err := s.service.RegisterInstitution(ctx, 6, s.registerRequest())
		s.Require().NoError(err)

		events := s.outbox.Events()
		s.Require().NotEmpty(events)
		s.Equal("institution.registered", events[len(events)-1].EventType)
	})
}

func (s *ProviderServiceSuite) TestInstitution() {
	ctx := context.Background()

	result, err := s.service.RegisterInstitution(ctx, 20, s.registerRequest())
	s.Require().NoError(err)

	s.Run("returns own institution", func() {
		institution, err := s.service.Institution(ctx, 20, result.Institution.ID)
		s.Require().NoError(err)
		s.Equal(result.Institution.ID, institution.ID)
		s.Equal("Sunrise Kids Club", institution.Name)
	})

	s.Run("another owner's institution reads as missing", func() {
		req := s.registerRequest()
		req.Name = "Other Owner School"
		_, err := s.service.RegisterInstitution(ctx, 21, req)
		s.Require().NoError(err)

		_, err = s.service.Institution(ctx, 21, result.Institution.ID)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("user without an owner record gets not found", func() {
		_, err := s.service.Institution(ctx, 99, result.Institution.ID)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown institution id", func() {
		_, err := s.service.Institution(ctx, 20, 424242)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ProviderServiceSuite) TestInstitutions() {
	ctx := context.Background()

	s.Run("unknown user has empty list", func() {
		institutions, err := s.service.Institutions(ctx, 99)
		s.NoError(err)
		s.Empty(institutions)
	})

	s.Run("lists own institutions only", func() {
		_, err := s.service.RegisterInstitution(ctx, 10, s.registerRequest())
		s.Require().NoError(err)

		req := s.registerRequest()
		req.Name = "Other Owner School"
		_, err = s.service.RegisterInstitution(ctx, 11, req)
		s.Require().NoError(err)

		institutions, err := s.service.Institutions(ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(institutions, 1)
		s.Equal("Sunrise Kids Club", institutions[0].Name)
	})
}
