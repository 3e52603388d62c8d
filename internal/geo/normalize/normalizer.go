// Package normalize reconciles user-supplied address fragments against an
// external geocoding authority, producing a canonical decomposition the
// resolver can match exactly.
package normalize

import (
	"context"
	"fmt"

	"kidsearch/internal/geo/models"
)

// Normalizer turns a raw address query into its canonical form.
type Normalizer interface {
	Normalize(ctx context.Context, query *models.AddressQuery) (*models.AddressQuery, error)
}

// AddressNotFoundError means the geocoding authority could not resolve the
// submitted text. The concatenated query is kept for user feedback.
type AddressNotFoundError struct {
	Query string
}

func (e *AddressNotFoundError) Error() string {
	return fmt.Sprintf("can't find address: %s", e.Query)
}

// UnsupportedCountryError means no normalization strategy is registered for
// the requested country.
type UnsupportedCountryError struct {
	Country string
}

func (e *UnsupportedCountryError) Error() string {
	return fmt.Sprintf("no support for %s", e.Country)
}

// Registry maps countries to their normalization strategies. New countries
// are supported by registering an implementation, not by editing a central
// conditional.
type Registry struct {
	normalizers map[string]Normalizer
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{normalizers: make(map[string]Normalizer)}
}

// Register binds a normalizer to a country name. Later registrations for the
// same country replace earlier ones.
func (r *Registry) Register(country string, n Normalizer) {
	r.normalizers[country] = n
}

// Normalize dispatches to the strategy registered for the query's country.
func (r *Registry) Normalize(ctx context.Context, query *models.AddressQuery) (*models.AddressQuery, error) {
	n, ok := r.normalizers[query.Country]
	if !ok {
		return nil, &UnsupportedCountryError{Country: query.Country}
	}
	return n.Normalize(ctx, query)
}
