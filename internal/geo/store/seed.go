package store

import (
	"context"
	"fmt"

	"kidsearch/internal/geo/models"
)

// SeedCountries inserts the fixed country enumeration when the table is
// empty. Countries are never created through any other path, so a non-zero
// count means seeding already happened.
func SeedCountries(ctx context.Context, s Store) error {
	count, err := s.CountCountries(ctx)
	if err != nil {
		return fmt.Errorf("seed countries: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range models.CountryNames {
		if err := s.CreateCountry(ctx, &models.Country{Name: name}); err != nil {
			return fmt.Errorf("seed countries: %w", err)
		}
	}
	return nil
}
