// Package service orchestrates address resolution: the partial-match
// resolver, the external normalizer, and the idempotent creation of missing
// hierarchy levels.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	geometrics "kidsearch/internal/geo/metrics"
	"kidsearch/internal/geo/models"
	"kidsearch/internal/geo/normalize"
	"kidsearch/internal/geo/store"
	dErrors "kidsearch/pkg/domain-errors"
	"kidsearch/pkg/platform/sentinel"
)

// Service resolves and reconciles addresses against the hierarchy store.
//
// All writes are staged through the transaction carried in ctx
// (pkg/platform/tx); the service never commits. The caller owns the unit of
// work and commits once the entity referencing the address is staged too.
type Service struct {
	store      store.Store
	normalizer normalize.Normalizer
	logger     *slog.Logger
	metrics    *geometrics.Metrics
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *geometrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the geo service. The normalizer is usually a
// *normalize.Registry with one strategy per supported country.
func New(st store.Store, normalizer normalize.Normalizer, opts ...Option) *Service {
	s := &Service{
		store:      st,
		normalizer: normalizer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Countries lists the seeded country enumeration.
func (s *Service) Countries(ctx context.Context) ([]*models.Country, error) {
	countries, err := s.store.ListCountries(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list countries")
	}
	return countries, nil
}

// Resolve performs a read-only partial-match lookup. Unmatched levels come
// back nil; a valid country with no deeper match is not an error.
func (s *Service) Resolve(ctx context.Context, query *models.AddressQuery) (*models.ResolvedAddress, error) {
	if err := query.ValidateLookup(); err != nil {
		return nil, err
	}
	resolved, err := s.store.Resolve(ctx, query)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve address")
	}
	return resolved, nil
}

// PhonesInUse reports which of the given numbers are already attached to
// some address. The provider domain uses it to reject re-registration of a
// contact number.
func (s *Service) PhonesInUse(ctx context.Context, numbers []int64) ([]int64, error) {
	inUse, err := s.store.PhonesInUse(ctx, numbers)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check phone numbers")
	}
	return inUse, nil
}

// GetOrCreate finds the exact leaf address or creates exactly the missing
// hierarchy levels for it, attaching the query's phone numbers to a newly
// created leaf. At most one address row results per unique
// (city, street, building, adds, office) tuple under non-concurrent use.
func (s *Service) GetOrCreate(ctx context.Context, query *models.AddressQuery) (*models.ResolvedAddress, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveResolveDuration(time.Since(start).Seconds())
	}()

	if err := query.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.store.Resolve(ctx, query)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve address")
	}
	if resolved.Complete() {
		return resolved, nil
	}

	canonical, err := s.normalizer.Normalize(ctx, query)
	if err != nil {
		return nil, s.translateNormalizeErr(ctx, err)
	}
	s.metrics.ObserveGeocoder("ok")

	// Another caller's raw input may already have converged to the same
	// canonical address; look again before creating anything.
	if !canonical.Equal(query) {
		resolved, err = s.store.Resolve(ctx, canonical)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve address")
		}
		if resolved.Complete() {
			return resolved, nil
		}
	}

	if err := s.createMissing(ctx, resolved, canonical, query); err != nil {
		return nil, err
	}

	s.metrics.IncrementAddressesCreated()
	s.logger.InfoContext(ctx, "address created",
		"country", query.Country,
		"city", canonical.City,
		"address_id", resolved.Address.ID,
	)
	return resolved, nil
}

// createMissing stages the absent hierarchy levels bottom-up. Each insert is
// flushed for its generated id before the next level references it. The leaf
// keeps the caller's raw building/adds/office so what the user typed is what
// their profile shows.
func (s *Service) createMissing(ctx context.Context, resolved *models.ResolvedAddress, canonical, raw *models.AddressQuery) error {
	if resolved.Country == nil {
		return dErrors.Newf(dErrors.CodeInternal, "country %s is not seeded", canonical.Country)
	}

	if resolved.Region == nil && canonical.Region != nil && *canonical.Region != "" {
		region := &models.Region{Name: *canonical.Region, CountryID: &resolved.Country.ID}
		if err := s.store.CreateRegion(ctx, region); err != nil {
			return s.translateCreateErr(err, "region")
		}
		resolved.Region = region
	}

	if resolved.District == nil && canonical.District != nil && *canonical.District != "" {
		district := &models.District{Name: *canonical.District}
		if resolved.Region != nil {
			district.RegionID = &resolved.Region.ID
		}
		if err := s.store.CreateDistrict(ctx, district); err != nil {
			return s.translateCreateErr(err, "district")
		}
		resolved.District = district
	}

	if resolved.City == nil && canonical.City != "" {
		city := &models.City{Name: canonical.City, CountryID: resolved.Country.ID}
		if resolved.Region != nil {
			city.RegionID = &resolved.Region.ID
		}
		if resolved.District != nil {
			city.DistrictID = &resolved.District.ID
		}
		if err := s.store.CreateCity(ctx, city); err != nil {
			return s.translateCreateErr(err, "city")
		}
		resolved.City = city
	}
	if resolved.City == nil {
		return dErrors.New(dErrors.CodeBadRequest, "address has no resolvable city")
	}

	if resolved.Street == nil && canonical.Street != nil && *canonical.Street != "" {
		street := &models.Street{Name: *canonical.Street, CityID: resolved.City.ID}
		if err := s.store.CreateStreet(ctx, street); err != nil {
			return s.translateCreateErr(err, "street")
		}
		resolved.Street = street
	}

	address := &models.Address{
		CityID:   resolved.City.ID,
		Building: raw.Building,
		Adds:     raw.Adds,
		Office:   raw.Office,
	}
	if resolved.Street != nil {
		address.StreetID = &resolved.Street.ID
	}
	if err := s.store.CreateAddress(ctx, address); err != nil {
		return s.translateCreateErr(err, "address")
	}
	resolved.Address = address

	for _, number := range raw.Phones {
		phone := &models.Phone{Number: number, AddressID: address.ID}
		if err := s.store.CreatePhone(ctx, phone); err != nil {
			return s.translateCreateErr(err, "phone")
		}
	}
	return nil
}

func (s *Service) translateNormalizeErr(ctx context.Context, err error) error {
	var notFound *normalize.AddressNotFoundError
	if errors.As(err, &notFound) {
		s.metrics.ObserveGeocoder("not_found")
		s.logger.WarnContext(ctx, "geocoder could not resolve address", "query", notFound.Query)
		return dErrors.Wrap(err, dErrors.CodeBadRequest, notFound.Error())
	}
	var unsupported *normalize.UnsupportedCountryError
	if errors.As(err, &unsupported) {
		s.metrics.ObserveGeocoder("unsupported")
		return dErrors.Wrap(err, dErrors.CodeBadRequest, unsupported.Error())
	}
	s.metrics.ObserveGeocoder("error")
	return dErrors.Wrap(err, dErrors.CodeInternal, "normalization failed")
}

// translateCreateErr maps a staged-insert failure. A uniqueness violation
// means a concurrent caller created the same level first; the engine does
// not retry (the caller's transaction rolls back wholesale).
func (s *Service) translateCreateErr(err error, level string) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent creation of the same "+level)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create "+level)
}
