package models

import (
	dErrors "kidsearch/pkg/domain-errors"
)

// AddressQuery carries a caller-supplied address, raw or canonical. Country
// and City are required; every other level is optional. The same structure
// is used for resolver lookups and as the normalizer's canonical form.
type AddressQuery struct {
	Country  string  `json:"country"`
	Region   *string `json:"region,omitempty"`
	District *string `json:"district,omitempty"`
	City     string  `json:"city"`
	Street   *string `json:"street,omitempty"`
	Building *string `json:"building,omitempty"`
	Adds     *string `json:"adds,omitempty"`
	Office   *string `json:"office,omitempty"`
	Phones   []int64 `json:"phones,omitempty"`
}

// Validate enforces boundary rules before a query reaches the hierarchy:
// known country, city presence, the building-or-adds rule, field length
// limits, and the phone number range. All violations are client errors.
func (q *AddressQuery) Validate() error {
	if q.City == "" {
		return dErrors.New(dErrors.CodeBadRequest, "city is required")
	}
	if strPtrEmpty(q.Building) && strPtrEmpty(q.Adds) {
		return dErrors.New(dErrors.CodeBadRequest,
			"if you do not have a building number, you must provide other clarifying information")
	}
	return q.ValidateLookup()
}

// ValidateLookup enforces only the rules a read-only resolver lookup needs:
// known country, lengths, and phone range. Partial queries (no city, no
// building) are legitimate lookups.
func (q *AddressQuery) ValidateLookup() error {
	if !KnownCountry(q.Country) {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown country: %s", q.Country)
	}
	for _, field := range []struct {
		name  string
		value *string
		max   int
	}{
		{"region", q.Region, MaxGeoNameLen},
		{"district", q.District, MaxGeoNameLen},
		{"street", q.Street, MaxGeoNameLen},
		{"building", q.Building, MaxAddressFieldLen},
		{"adds", q.Adds, MaxAddressFieldLen},
		{"office", q.Office, MaxAddressFieldLen},
	} {
		if field.value != nil && len(*field.value) > field.max {
			return dErrors.Newf(dErrors.CodeBadRequest, "%s is too long", field.name)
		}
	}
	if len(q.City) > MaxGeoNameLen {
		return dErrors.New(dErrors.CodeBadRequest, "city is too long")
	}
	if len(q.Phones) > MaxPhonesPerAddress {
		return dErrors.Newf(dErrors.CodeBadRequest,
			"no more than %d phone numbers allowed", MaxPhonesPerAddress)
	}
	for _, phone := range q.Phones {
		if phone <= MinPhoneNumber || phone >= MaxPhoneNumber {
			return dErrors.New(dErrors.CodeBadRequest, "bad phone number")
		}
	}
	return nil
}

// Equal compares the address fields of two queries, ignoring phones. The
// reconciliation engine uses it to decide whether normalization changed
// anything worth a second lookup.
func (q *AddressQuery) Equal(other *AddressQuery) bool {
	return q.Country == other.Country &&
		q.City == other.City &&
		strPtrEqual(q.Region, other.Region) &&
		strPtrEqual(q.District, other.District) &&
		strPtrEqual(q.Street, other.Street) &&
		strPtrEqual(q.Building, other.Building) &&
		strPtrEqual(q.Adds, other.Adds) &&
		strPtrEqual(q.Office, other.Office)
}

func strPtrEmpty(s *string) bool {
	return s == nil || *s == ""
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return strPtrEmpty(a) == strPtrEmpty(b)
	}
	return *a == *b
}
