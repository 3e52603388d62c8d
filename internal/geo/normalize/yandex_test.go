package normalize

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidsearch/internal/geo/models"
)

func ptr(s string) *string { return &s }

func TestFreeText(t *testing.T) {
	tests := []struct {
		name  string
		query models.AddressQuery
		want  string
	}{
		{
			name:  "country and city only",
			query: models.AddressQuery{Country: "Russia", City: "Tomsk"},
			want:  "Russia Tomsk",
		},
		{
			name: "all levels joined in hierarchy order",
			query: models.AddressQuery{
				Country:  "Russia",
				Region:   ptr("Tomskaya Oblast"),
				District: ptr("Tomsky Rayon"),
				City:     "Tomsk",
				Street:   ptr("Lenina"),
				Building: ptr("10"),
				Adds:     ptr("k2"),
			},
			want: "Russia Tomskaya Oblast Tomsky Rayon Tomsk Lenina 10 k2",
		},
		{
			name: "office and phones are not part of the text",
			query: models.AddressQuery{
				Country: "Russia",
				City:    "Tomsk",
				Office:  ptr("314"),
				Phones:  []int64{79001111111},
			},
			want: "Russia Tomsk",
		},
		{
			name: "empty pointer fields are skipped",
			query: models.AddressQuery{
				Country: "Russia",
				Region:  ptr(""),
				City:    "Tomsk",
			},
			want: "Russia Tomsk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FreeText(&tt.query))
		})
	}
}

func TestParseBreadcrumb(t *testing.T) {
	baseQuery := func() *models.AddressQuery {
		return &models.AddressQuery{
			Country:  "Russia",
			City:     "Tomsk",
			Building: ptr("10"),
			Phones:   []int64{79001111111},
		}
	}

	tests := []struct {
		name       string
		breadcrumb string
		assert     func(t *testing.T, got *models.AddressQuery)
	}{
		{
			name:       "full administrative chain",
			breadcrumb: "Россия, Томская область, Томский район, Томск, улица Ленина, 10",
			assert: func(t *testing.T, got *models.AddressQuery) {
				require.NotNil(t, got.Region)
				assert.Equal(t, "Томская область", *got.Region)
				require.NotNil(t, got.District)
				assert.Equal(t, "Томский район", *got.District)
				assert.Equal(t, "Томск", got.City)
				require.NotNil(t, got.Street)
				assert.Equal(t, "улица Ленина", *got.Street)
				require.NotNil(t, got.Building)
				assert.Equal(t, "10", *got.Building)
			},
		},
		{
			name:       "no district segment clears the district",
			breadcrumb: "Россия, Томская область, Томск, проспект Ленина, 10",
			assert: func(t *testing.T, got *models.AddressQuery) {
				assert.Nil(t, got.District)
				assert.Equal(t, "Томск", got.City)
			},
		},
		{
			name:       "street right after region means the city is the seat",
			breadcrumb: "Россия, Москва, улица Тверская, 7",
			assert: func(t *testing.T, got *models.AddressQuery) {
				require.NotNil(t, got.Region)
				assert.Equal(t, "Москва", *got.Region)
				assert.Equal(t, "Москва", got.City)
				require.NotNil(t, got.Street)
				assert.Equal(t, "улица Тверская", *got.Street)
			},
		},
		{
			name:       "region-only breadcrumb still yields a city",
			breadcrumb: "Россия, Томск",
			assert: func(t *testing.T, got *models.AddressQuery) {
				require.NotNil(t, got.Region)
				assert.Equal(t, "Томск", *got.Region)
				assert.Equal(t, "Томск", got.City)
			},
		},
		{
			name:       "non-numeric tail is not a building",
			breadcrumb: "Россия, Томская область, Томск, улица Ленина, 10с2",
			assert: func(t *testing.T, got *models.AddressQuery) {
				// The raw building from the query survives untouched.
				require.NotNil(t, got.Building)
				assert.Equal(t, "10", *got.Building)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBreadcrumb(baseQuery(), tt.breadcrumb, "text")
			require.NoError(t, err)
			tt.assert(t, got)
			assert.Equal(t, []int64{79001111111}, got.Phones)
		})
	}

	t.Run("breadcrumb without administrative levels fails", func(t *testing.T) {
		_, err := parseBreadcrumb(baseQuery(), "Россия", "Russia Tomsk")
		var notFound *AddressNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "Russia Tomsk", notFound.Query)
	})
}

func geocoderPayload(breadcrumb string) string {
	return fmt.Sprintf(
		`{"features":[{"properties":{"GeocoderMetaData":{"text":"%s"}}}]}`, breadcrumb)
}

func TestYandexNormalize(t *testing.T) {
	query := &models.AddressQuery{
		Country:  "Russia",
		City:     "Tomsk",
		Street:   ptr("Lenina"),
		Building: ptr("10"),
	}

	t.Run("sends the expected request and parses the response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
			assert.Equal(t, "geo", r.URL.Query().Get("type"))
			assert.Equal(t, "Russia Tomsk Lenina 10", r.URL.Query().Get("text"))
			fmt.Fprint(w, geocoderPayload("Россия, Томская область, Томск, улица Ленина, 10"))
		}))
		defer server.Close()

		n := NewYandex("test-key", WithBaseURL(server.URL))
		canonical, err := n.Normalize(context.Background(), query)
		require.NoError(t, err)
		require.NotNil(t, canonical.Region)
		assert.Equal(t, "Томская область", *canonical.Region)
		require.NotNil(t, canonical.Street)
		assert.Equal(t, "улица Ленина", *canonical.Street)
	})

	t.Run("empty feature list means not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"features":[]}`)
		}))
		defer server.Close()

		n := NewYandex("test-key", WithBaseURL(server.URL))
		_, err := n.Normalize(context.Background(), query)
		var notFound *AddressNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("upstream failure means not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		n := NewYandex("test-key", WithBaseURL(server.URL))
		_, err := n.Normalize(context.Background(), query)
		var notFound *AddressNotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("unreachable endpoint means not found", func(t *testing.T) {
		n := NewYandex("test-key", WithBaseURL("http://127.0.0.1:1/"))
		_, err := n.Normalize(context.Background(), query)
		var notFound *AddressNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("dispatches by country", func(t *testing.T) {
		registry := NewRegistry()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, geocoderPayload("Россия, Томская область, Томск"))
		}))
		defer server.Close()
		registry.Register("Russia", NewYandex("test-key", WithBaseURL(server.URL)))

		canonical, err := registry.Normalize(context.Background(), &models.AddressQuery{Country: "Russia", City: "Tomsk"})
		require.NoError(t, err)
		assert.Equal(t, "Томск", canonical.City)
	})

	t.Run("unregistered country is unsupported", func(t *testing.T) {
		registry := NewRegistry()
		_, err := registry.Normalize(context.Background(), &models.AddressQuery{Country: "Chad", City: "N'Djamena"})
		var unsupported *UnsupportedCountryError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "Chad", unsupported.Country)
	})
}
