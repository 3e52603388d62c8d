//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"kidsearch/internal/geo/models"
	"kidsearch/internal/geo/store"
	"kidsearch/pkg/platform/sentinel"
	txcontext "kidsearch/pkg/platform/tx"
	"kidsearch/pkg/testutil/containers"
)

type PostgresResolverSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresResolverSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresResolverSuite))
}

func (s *PostgresResolverSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresResolverSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"phones", "addresses", "streets", "cities", "districts", "regions", "countries")
	s.Require().NoError(err)
}

func ptr(v string) *string { return &v }

// seedHierarchy creates one fully decomposed address and returns its levels.
func (s *PostgresResolverSuite) seedHierarchy() (*models.Country, *models.Address) {
	ctx := context.Background()

	country := &models.Country{Name: "Russia"}
	s.Require().NoError(s.store.CreateCountry(ctx, country))

	region := &models.Region{Name: "Tomskaya Oblast", CountryID: &country.ID}
	s.Require().NoError(s.store.CreateRegion(ctx, region))

	city := &models.City{Name: "Tomsk", CountryID: country.ID, RegionID: &region.ID}
	s.Require().NoError(s.store.CreateCity(ctx, city))

	street := &models.Street{Name: "Lenina", CityID: city.ID}
	s.Require().NoError(s.store.CreateStreet(ctx, street))

	address := &models.Address{CityID: city.ID, StreetID: &street.ID, Building: ptr("10")}
	s.Require().NoError(s.store.CreateAddress(ctx, address))

	return country, address
}

func (s *PostgresResolverSuite) TestResolveFullChain() {
	s.seedHierarchy()
	ctx := context.Background()

	resolved, err := s.store.Resolve(ctx, &models.AddressQuery{
		Country:  "Russia",
		Region:   ptr("Tomskaya Oblast"),
		City:     "Tomsk",
		Street:   ptr("Lenina"),
		Building: ptr("10"),
	})
	s.Require().NoError(err)
	s.Require().NotNil(resolved.Region)
	s.Require().NotNil(resolved.City)
	s.Require().NotNil(resolved.Street)
	s.True(resolved.Complete())
}

func (s *PostgresResolverSuite) TestResolveWrongRegionNullsBelow() {
	s.seedHierarchy()
	ctx := context.Background()

	resolved, err := s.store.Resolve(ctx, &models.AddressQuery{
		Country:  "Russia",
		Region:   ptr("Novosibirskaya Oblast"),
		City:     "Tomsk",
		Building: ptr("10"),
	})
	s.Require().NoError(err)
	s.NotNil(resolved.Country)
	s.Nil(resolved.Region)
	s.Nil(resolved.City)
	s.Nil(resolved.Address)
}

// A second region under the same country still resolves when named, but a
// city linked to the other region does not match through it.
func (s *PostgresResolverSuite) TestResolveMismatchedExistingRegion() {
	country, _ := s.seedHierarchy()
	ctx := context.Background()

	other := &models.Region{Name: "Novosibirskaya Oblast", CountryID: &country.ID}
	s.Require().NoError(s.store.CreateRegion(ctx, other))

	resolved, err := s.store.Resolve(ctx, &models.AddressQuery{
		Country:  "Russia",
		Region:   ptr("Novosibirskaya Oblast"),
		City:     "Tomsk",
		Street:   ptr("Lenina"),
		Building: ptr("10"),
	})
	s.Require().NoError(err)
	s.Require().NotNil(resolved.Region)
	s.Equal(other.ID, resolved.Region.ID)
	s.Nil(resolved.City)
	s.Nil(resolved.Street)
	s.Nil(resolved.Address)
}

// Empty optional leaf fields are stored as NULL, so a query omitting them
// still matches the stored row.
func (s *PostgresResolverSuite) TestResolveNullSafeLeaf() {
	ctx := context.Background()

	country := &models.Country{Name: "Russia"}
	s.Require().NoError(s.store.CreateCountry(ctx, country))
	city := &models.City{Name: "Tomsk", CountryID: country.ID}
	s.Require().NoError(s.store.CreateCity(ctx, city))
	address := &models.Address{CityID: city.ID, Building: ptr("10"), Adds: ptr("")}
	s.Require().NoError(s.store.CreateAddress(ctx, address))

	resolved, err := s.store.Resolve(ctx, &models.AddressQuery{
		Country:  "Russia",
		City:     "Tomsk",
		Building: ptr("10"),
	})
	s.Require().NoError(err)
	s.True(resolved.Complete())
}

func (s *PostgresResolverSuite) TestDuplicateRegionConflict() {
	ctx := context.Background()

	country := &models.Country{Name: "Russia"}
	s.Require().NoError(s.store.CreateCountry(ctx, country))

	first := &models.Region{Name: "Tomskaya Oblast", CountryID: &country.ID}
	s.Require().NoError(s.store.CreateRegion(ctx, first))

	dup := &models.Region{Name: "Tomskaya Oblast", CountryID: &country.ID}
	err := s.store.CreateRegion(ctx, dup)
	s.ErrorIs(err, sentinel.ErrConflict)
}

// Writes staged inside a context transaction are visible to reads through
// the same context and invisible outside until commit.
func (s *PostgresResolverSuite) TestTransactionVisibility() {
	ctx := context.Background()

	country := &models.Country{Name: "Russia"}
	s.Require().NoError(s.store.CreateCountry(ctx, country))

	txn, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, txn)

	city := &models.City{Name: "Tomsk", CountryID: country.ID}
	s.Require().NoError(s.store.CreateCity(txCtx, city))
	s.NotZero(city.ID)

	inside, err := s.store.Resolve(txCtx, &models.AddressQuery{Country: "Russia", City: "Tomsk"})
	s.Require().NoError(err)
	s.NotNil(inside.City)

	outside, err := s.store.Resolve(ctx, &models.AddressQuery{Country: "Russia", City: "Tomsk"})
	s.Require().NoError(err)
	s.Nil(outside.City)

	s.Require().NoError(txn.Rollback())

	after, err := s.store.Resolve(ctx, &models.AddressQuery{Country: "Russia", City: "Tomsk"})
	s.Require().NoError(err)
	s.Nil(after.City)
}

func (s *PostgresResolverSuite) TestSeedCountriesIdempotent() {
	ctx := context.Background()

	s.Require().NoError(store.SeedCountries(ctx, s.store))
	count, err := s.store.CountCountries(ctx)
	s.Require().NoError(err)
	s.Equal(len(models.CountryNames), count)

	s.Require().NoError(store.SeedCountries(ctx, s.store))
	again, err := s.store.CountCountries(ctx)
	s.Require().NoError(err)
	s.Equal(count, again)
}

func (s *PostgresResolverSuite) TestPhonesInUse() {
	ctx := context.Background()
	_, address := s.seedHierarchy()

	s.Require().NoError(s.store.CreatePhone(ctx, &models.Phone{Number: 79001111111, AddressID: address.ID}))

	inUse, err := s.store.PhonesInUse(ctx, []int64{79001111111, 79002222222})
	s.Require().NoError(err)
	s.Equal([]int64{79001111111}, inUse)
}
