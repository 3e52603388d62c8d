// Package models holds the provider-side types: institution owners and the
// institutions they register on the marketplace.
package models

import (
	"time"

	geomodels "kidsearch/internal/geo/models"
)

// Owner is the provider role layered on top of a user account. Created
// lazily on the first institution registration.
type Owner struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

// Institution is a registered education provider bound to a canonical
// address.
type Institution struct {
	ID        int64
	Name      string
	OwnerID   int64
	AddressID int64
	CreatedAt time.Time
}

// RegisterInstitutionRequest carries the institution name plus the address
// fragments and contact phones supplied by the owner.
type RegisterInstitutionRequest struct {
	Name    string                 `json:"name"`
	Address geomodels.AddressQuery `json:"address"`
}

// RegisterInstitutionResult reports the created institution and the
// canonical address it resolved to.
type RegisterInstitutionResult struct {
	Institution *Institution               `json:"institution"`
	Address     *geomodels.ResolvedAddress `json:"address"`
}
