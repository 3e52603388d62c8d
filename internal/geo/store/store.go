// Package store persists the geographic hierarchy and implements the
// partial-match resolver over it.
package store

import (
	"context"

	"kidsearch/internal/geo/models"
)

// Store is the hierarchy storage contract consumed by the geo service.
//
// Resolve never fails on "not found": unmatched levels come back nil.
// The Create methods stage a single row and populate its ID before
// returning, so callers can chain the generated identifier into the next
// level's foreign key. When a transaction is present in the context
// (pkg/platform/tx), staged writes join it; the store never commits.
type Store interface {
	Resolve(ctx context.Context, query *models.AddressQuery) (*models.ResolvedAddress, error)

	ListCountries(ctx context.Context) ([]*models.Country, error)
	CountCountries(ctx context.Context) (int, error)
	CreateCountry(ctx context.Context, country *models.Country) error

	CreateRegion(ctx context.Context, region *models.Region) error
	CreateDistrict(ctx context.Context, district *models.District) error
	CreateCity(ctx context.Context, city *models.City) error
	CreateStreet(ctx context.Context, street *models.Street) error
	CreateAddress(ctx context.Context, address *models.Address) error
	CreatePhone(ctx context.Context, phone *models.Phone) error

	// PhonesInUse reports which of the given numbers are already attached
	// to some address.
	PhonesInUse(ctx context.Context, numbers []int64) ([]int64, error)
}
