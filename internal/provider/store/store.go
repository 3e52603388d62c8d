// Package store persists owners and institutions.
package store

import (
	"context"

	"kidsearch/internal/provider/models"
)

// Store persists the provider entities. Lookups return
// sentinel.ErrNotFound on a miss; creates populate the entity's ID and join
// a staged transaction from the context.
type Store interface {
	CreateOwner(ctx context.Context, owner *models.Owner) error
	OwnerByUserID(ctx context.Context, userID int64) (*models.Owner, error)

	CreateInstitution(ctx context.Context, institution *models.Institution) error
	InstitutionByID(ctx context.Context, id int64) (*models.Institution, error)
	InstitutionsByOwner(ctx context.Context, ownerID int64) ([]*models.Institution, error)
}
