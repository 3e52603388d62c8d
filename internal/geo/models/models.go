// Package models defines the geographic hierarchy entities.
//
// The hierarchy is Country -> Region -> District -> City -> Street ->
// Address, with intermediate levels legitimately absent: a country may have
// no regions, and a city may exist without a region or district. Nullable
// parent references are pointers so "absent" stays distinct from zero.
package models

// Length and range limits for geo data, shared by validation and schema.
const (
	MaxGeoNameLen      = 64
	MaxAddressFieldLen = 16

	MinPhoneNumber int64 = 1e7
	MaxPhoneNumber int64 = 1e14

	MaxPhonesPerAddress = 3
)

// Country is the root of the hierarchy. Rows are seeded once from the fixed
// enumeration and never deleted.
type Country struct {
	ID   int64
	Name string
}

// Region groups districts and cities (states, kingdoms, lands etc).
type Region struct {
	ID        int64
	Name      string
	CountryID *int64
}

// District subdivides a region.
type District struct {
	ID       int64
	Name     string
	RegionID *int64
}

// City may skip region and district entirely.
type City struct {
	ID         int64
	Name       string
	CountryID  int64
	RegionID   *int64
	DistrictID *int64
}

// Street belongs to exactly one city (avenues, roads, squares etc).
type Street struct {
	ID     int64
	Name   string
	CityID int64
}

// Address is the leaf level. At least one of Building or Adds is required,
// enforced at the query boundary before the hierarchy is touched.
type Address struct {
	ID       int64
	CityID   int64
	StreetID *int64
	Building *string
	Adds     *string
	Office   *string
}

// Phone is attached to an address and cascade-deletes with it.
type Phone struct {
	ID        int64
	Number    int64
	AddressID int64
}

// ResolvedAddress holds one entity per hierarchy level. Country is populated
// whenever the country itself is known; every deeper level is nil from the
// first point where the stored hierarchy stops matching the query.
type ResolvedAddress struct {
	Country  *Country  `json:"country"`
	Region   *Region   `json:"region"`
	District *District `json:"district"`
	City     *City     `json:"city"`
	Street   *Street   `json:"street"`
	Address  *Address  `json:"address"`
}

// Complete reports whether the leaf address row was found.
func (r *ResolvedAddress) Complete() bool {
	return r != nil && r.Address != nil
}
