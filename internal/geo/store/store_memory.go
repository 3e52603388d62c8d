package store

import (
	"context"
	"sync"

	"kidsearch/internal/geo/models"
)

// InMemory implements Store with the same partial-match semantics as the
// SQL resolver: each level is matched only when the query supplies it, and
// a miss at any level nulls out everything below it. Used by unit tests and
// local development.
type InMemory struct {
	mu sync.RWMutex

	nextID    int64
	countries map[int64]*models.Country
	regions   map[int64]*models.Region
	districts map[int64]*models.District
	cities    map[int64]*models.City
	streets   map[int64]*models.Street
	addresses map[int64]*models.Address
	phones    map[int64]*models.Phone
}

// NewInMemory constructs an empty in-memory geo store.
func NewInMemory() *InMemory {
	return &InMemory{
		countries: make(map[int64]*models.Country),
		regions:   make(map[int64]*models.Region),
		districts: make(map[int64]*models.District),
		cities:    make(map[int64]*models.City),
		streets:   make(map[int64]*models.Street),
		addresses: make(map[int64]*models.Address),
		phones:    make(map[int64]*models.Phone),
	}
}

func (s *InMemory) nextIdentifier() int64 {
	s.nextID++
	return s.nextID
}

func (s *InMemory) Resolve(_ context.Context, query *models.AddressQuery) (*models.ResolvedAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resolved := &models.ResolvedAddress{}

	for _, c := range s.countries {
		if c.Name == query.Country {
			country := *c
			resolved.Country = &country
			break
		}
	}
	if resolved.Country == nil {
		return resolved, nil
	}

	hasRegion := query.Region != nil && *query.Region != ""
	hasDistrict := hasRegion && query.District != nil && *query.District != ""
	hasCity := query.City != ""
	hasStreet := hasCity && query.Street != nil && *query.Street != ""
	hasLeaf := hasCity && (query.Building != nil || query.Adds != nil)

	if hasRegion {
		for _, r := range s.regions {
			if r.Name == *query.Region && int64PtrIs(r.CountryID, resolved.Country.ID) {
				region := *r
				resolved.Region = &region
				break
			}
		}
	}

	if hasDistrict && resolved.Region != nil {
		for _, d := range s.districts {
			if d.Name == *query.District && int64PtrIs(d.RegionID, resolved.Region.ID) {
				district := *d
				resolved.District = &district
				break
			}
		}
	}

	if hasCity {
		for _, c := range s.cities {
			if c.Name != query.City || c.CountryID != resolved.Country.ID {
				continue
			}
			if hasRegion && (resolved.Region == nil || !int64PtrIs(c.RegionID, resolved.Region.ID)) {
				continue
			}
			if hasDistrict && (resolved.District == nil || !int64PtrIs(c.DistrictID, resolved.District.ID)) {
				continue
			}
			city := *c
			resolved.City = &city
			break
		}
	}

	if hasStreet && resolved.City != nil {
		for _, st := range s.streets {
			if st.Name == *query.Street && st.CityID == resolved.City.ID {
				street := *st
				resolved.Street = &street
				break
			}
		}
	}

	if hasLeaf && resolved.City != nil {
		for _, a := range s.addresses {
			if a.CityID != resolved.City.ID {
				continue
			}
			if hasStreet && (resolved.Street == nil || !int64PtrIs(a.StreetID, resolved.Street.ID)) {
				continue
			}
			if !nullableEqual(a.Building, query.Building) ||
				!nullableEqual(a.Adds, query.Adds) ||
				!nullableEqual(a.Office, query.Office) {
				continue
			}
			address := *a
			resolved.Address = &address
			break
		}
	}

	return resolved, nil
}

func (s *InMemory) ListCountries(_ context.Context) ([]*models.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	countries := make([]*models.Country, 0, len(s.countries))
	for _, c := range s.countries {
		country := *c
		countries = append(countries, &country)
	}
	return countries, nil
}

func (s *InMemory) CountCountries(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.countries), nil
}

func (s *InMemory) CreateCountry(_ context.Context, country *models.Country) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	country.ID = s.nextIdentifier()
	c := *country
	s.countries[c.ID] = &c
	return nil
}

func (s *InMemory) CreateRegion(_ context.Context, region *models.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	region.ID = s.nextIdentifier()
	r := *region
	s.regions[r.ID] = &r
	return nil
}

func (s *InMemory) CreateDistrict(_ context.Context, district *models.District) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	district.ID = s.nextIdentifier()
	d := *district
	s.districts[d.ID] = &d
	return nil
}

func (s *InMemory) CreateCity(_ context.Context, city *models.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	city.ID = s.nextIdentifier()
	c := *city
	s.cities[c.ID] = &c
	return nil
}

func (s *InMemory) CreateStreet(_ context.Context, street *models.Street) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	street.ID = s.nextIdentifier()
	st := *street
	s.streets[st.ID] = &st
	return nil
}

func (s *InMemory) CreateAddress(_ context.Context, address *models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	address.ID = s.nextIdentifier()
	a := *address
	s.addresses[a.ID] = &a
	return nil
}

func (s *InMemory) CreatePhone(_ context.Context, phone *models.Phone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	phone.ID = s.nextIdentifier()
	p := *phone
	s.phones[p.ID] = &p
	return nil
}

// PhonesByAddress returns the phones attached to an address. Test helper and
// provider-side dedupe support.
func (s *InMemory) PhonesByAddress(_ context.Context, addressID int64) ([]*models.Phone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var phones []*models.Phone
	for _, p := range s.phones {
		if p.AddressID == addressID {
			phone := *p
			phones = append(phones, &phone)
		}
	}
	return phones, nil
}

func (s *InMemory) PhonesInUse(_ context.Context, numbers []int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(numbers))
	for _, n := range numbers {
		wanted[n] = struct{}{}
	}

	var inUse []int64
	for _, p := range s.phones {
		if _, ok := wanted[p.Number]; ok {
			inUse = append(inUse, p.Number)
			delete(wanted, p.Number)
		}
	}
	return inUse, nil
}

func int64PtrIs(v *int64, want int64) bool {
	return v != nil && *v == want
}

// nullableEqual mirrors IS NOT DISTINCT FROM for optional text columns:
// empty string and nil are both "absent".
func nullableEqual(stored, queried *string) bool {
	storedEmpty := stored == nil || *stored == ""
	queriedEmpty := queried == nil || *queried == ""
	if storedEmpty || queriedEmpty {
		return storedEmpty == queriedEmpty
	}
	return *stored == *queried
}
