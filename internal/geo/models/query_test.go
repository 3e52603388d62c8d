package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "kidsearch/pkg/domain-errors"
)

func ptr(s string) *string { return &s }

func validQuery() AddressQuery {
	return AddressQuery{
		Country:  "Russia",
		City:     "Tomsk",
		Street:   ptr("Lenina"),
		Building: ptr("10"),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AddressQuery)
		wantErr string
	}{
		{
			name:   "valid query passes",
			mutate: func(q *AddressQuery) {},
		},
		{
			name:   "adds instead of building passes",
			mutate: func(q *AddressQuery) { q.Building = nil; q.Adds = ptr("korpus 2") },
		},
		{
			name:    "missing city",
			mutate:  func(q *AddressQuery) { q.City = "" },
			wantErr: "city is required",
		},
		{
			name:    "neither building nor adds",
			mutate:  func(q *AddressQuery) { q.Building = nil; q.Adds = nil },
			wantErr: "clarifying information",
		},
		{
			name:    "empty building counts as absent",
			mutate:  func(q *AddressQuery) { q.Building = ptr(""); q.Adds = nil },
			wantErr: "clarifying information",
		},
		{
			name:    "unknown country",
			mutate:  func(q *AddressQuery) { q.Country = "Atlantis" },
			wantErr: "unknown country",
		},
		{
			name:    "city too long",
			mutate:  func(q *AddressQuery) { q.City = strings.Repeat("x", MaxGeoNameLen+1) },
			wantErr: "city is too long",
		},
		{
			name:    "building too long",
			mutate:  func(q *AddressQuery) { q.Building = ptr(strings.Repeat("1", MaxAddressFieldLen+1)) },
			wantErr: "building is too long",
		},
		{
			name:    "too many phones",
			mutate:  func(q *AddressQuery) { q.Phones = []int64{79000000001, 79000000002, 79000000003, 79000000004} },
			wantErr: "phone numbers allowed",
		},
		{
			name:    "phone below range",
			mutate:  func(q *AddressQuery) { q.Phones = []int64{1234567} },
			wantErr: "bad phone number",
		},
		{
			name:    "phone at lower bound is rejected",
			mutate:  func(q *AddressQuery) { q.Phones = []int64{MinPhoneNumber} },
			wantErr: "bad phone number",
		},
		{
			name:    "phone at upper bound is rejected",
			mutate:  func(q *AddressQuery) { q.Phones = []int64{MaxPhoneNumber} },
			wantErr: "bad phone number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuery()
			tt.mutate(&q)
			err := q.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func TestValidateLookup(t *testing.T) {
	t.Run("partial query is a legitimate lookup", func(t *testing.T) {
		q := AddressQuery{Country: "Russia"}
		assert.NoError(t, q.ValidateLookup())
	})

	t.Run("city without building is a legitimate lookup", func(t *testing.T) {
		q := AddressQuery{Country: "Russia", City: "Tomsk"}
		assert.NoError(t, q.ValidateLookup())
	})

	t.Run("still rejects unknown country", func(t *testing.T) {
		q := AddressQuery{Country: "Atlantis"}
		assert.Error(t, q.ValidateLookup())
	})
}

func TestEqual(t *testing.T) {
	t.Run("ignores phones", func(t *testing.T) {
		a := validQuery()
		b := validQuery()
		a.Phones = []int64{79000000001}
		assert.True(t, a.Equal(&b))
	})

	t.Run("nil and empty pointer fields compare equal", func(t *testing.T) {
		a := validQuery()
		b := validQuery()
		a.Region = nil
		b.Region = ptr("")
		assert.True(t, a.Equal(&b))
	})

	t.Run("differing city is unequal", func(t *testing.T) {
		a := validQuery()
		b := validQuery()
		b.City = "Seversk"
		assert.False(t, a.Equal(&b))
	})

	t.Run("differing street is unequal", func(t *testing.T) {
		a := validQuery()
		b := validQuery()
		b.Street = ptr("Kirova")
		assert.False(t, a.Equal(&b))
	})
}

func TestKnownCountry(t *testing.T) {
	assert.True(t, KnownCountry("Russia"))
	assert.True(t, KnownCountry("Kazakhstan"))
	assert.False(t, KnownCountry(""))
	assert.False(t, KnownCountry("Narnia"))
}
