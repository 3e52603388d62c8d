package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"kidsearch/internal/geo/models"
)

// DefaultYandexBaseURL is the production geocoding endpoint.
const DefaultYandexBaseURL = "https://search-maps.yandex.ru/v1/"

// The upstream API returns one comma-joined breadcrumb string instead of
// typed fields, so segment roles are recovered from locale-specific lexical
// markers: street-type words and the district marker.
// Go's \b only bounds ASCII word characters, so the Cyrillic markers are
// delimited by whitespace instead.
var (
	streetMarker = regexp.MustCompile(`(?i)(?:^|\s)(?:улица|переулок|проспект|бульвар|тракт|шоссе|набережная|линия|аллея|тупик|микрорайон|квартал|дорога)(?:\s|$)`)

	districtMarker = regexp.MustCompile(`(?i)район`)

	numericSegment = regexp.MustCompile(`^\d+$`)
)

// YandexNormalizer resolves Russian addresses through the Yandex.Maps
// geocoding API.
type YandexNormalizer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// YandexOption customizes a YandexNormalizer.
type YandexOption func(*YandexNormalizer)

// WithHTTPClient overrides the HTTP client, mostly for tests.
func WithHTTPClient(client *http.Client) YandexOption {
	return func(n *YandexNormalizer) { n.client = client }
}

// WithBaseURL points the normalizer at a different endpoint, mostly for tests.
func WithBaseURL(baseURL string) YandexOption {
	return func(n *YandexNormalizer) { n.baseURL = baseURL }
}

// NewYandex constructs a Yandex.Maps-backed normalizer.
func NewYandex(apiKey string, opts ...YandexOption) *YandexNormalizer {
	n := &YandexNormalizer{
		apiKey:  apiKey,
		baseURL: DefaultYandexBaseURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// geocoderResponse matches the slice of the upstream payload we consume.
type geocoderResponse struct {
	Features []struct {
		Properties struct {
			GeocoderMetaData struct {
				Text string `json:"text"`
			} `json:"GeocoderMetaData"`
		} `json:"properties"`
	} `json:"features"`
}

// FreeText joins the non-empty textual fields of a query into the free-form
// string submitted to the geocoder.
func FreeText(query *models.AddressQuery) string {
	parts := []string{query.Country}
	for _, field := range []*string{query.Region, query.District} {
		if field != nil && *field != "" {
			parts = append(parts, *field)
		}
	}
	if query.City != "" {
		parts = append(parts, query.City)
	}
	for _, field := range []*string{query.Street, query.Building, query.Adds} {
		if field != nil && *field != "" {
			parts = append(parts, *field)
		}
	}
	return strings.Join(parts, " ")
}

func (n *YandexNormalizer) Normalize(ctx context.Context, query *models.AddressQuery) (*models.AddressQuery, error) {
	text := FreeText(query)

	breadcrumb, err := n.fetch(ctx, text)
	if err != nil {
		return nil, err
	}
	return parseBreadcrumb(query, breadcrumb, text)
}

func (n *YandexNormalizer) fetch(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("apikey", n.apiKey)
	params.Set("type", "geo")
	params.Set("lang", "ru_RU")
	params.Set("results", "1")
	params.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build geocoder request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		// Network failures surface the same as unresolvable addresses.
		return "", &AddressNotFoundError{Query: text}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &AddressNotFoundError{Query: text}
	}

	var payload geocoderResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &AddressNotFoundError{Query: text}
	}
	if len(payload.Features) == 0 {
		return "", &AddressNotFoundError{Query: text}
	}
	return payload.Features[0].Properties.GeocoderMetaData.Text, nil
}

// parseBreadcrumb splits the comma-joined administrative breadcrumb into
// discrete levels. The first segment after the country is always the region.
// A district-marker segment is consumed as district, otherwise the district
// slot is cleared. The next segment is the city unless it already looks like
// a street, in which case the city is the administrative seat: identical to
// the region, and the cursor stays. A street-marker segment becomes street
// and a purely numeric one the building.
func parseBreadcrumb(query *models.AddressQuery, breadcrumb, text string) (*models.AddressQuery, error) {
	segments := strings.Split(breadcrumb, ", ")
	if len(segments) < 2 {
		return nil, &AddressNotFoundError{Query: text}
	}
	segments = segments[1:] // drop the country

	canonical := *query
	canonical.Phones = append([]int64(nil), query.Phones...)

	region := segments[0]
	canonical.Region = &region
	cursor := 1

	if cursor < len(segments) && districtMarker.MatchString(segments[cursor]) {
		district := segments[cursor]
		canonical.District = &district
		cursor++
	} else {
		canonical.District = nil
	}

	if cursor < len(segments) && !streetMarker.MatchString(segments[cursor]) {
		canonical.City = segments[cursor]
		cursor++
	} else {
		canonical.City = region
	}

	if cursor < len(segments) && streetMarker.MatchString(segments[cursor]) {
		street := segments[cursor]
		canonical.Street = &street
		cursor++
	}

	if cursor < len(segments) && numericSegment.MatchString(segments[cursor]) {
		building := segments[cursor]
		canonical.Building = &building
	}

	return &canonical, nil
}
