package normalize

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"kidsearch/internal/geo/models"
)

// CachedNormalizer wraps a Normalizer with a Redis cache keyed by the
// free-text form of the query. Geocoder answers for a given text are stable,
// so repeated registrations of addresses in the same building skip the
// upstream round trip. Cache failures degrade to a direct call.
type CachedNormalizer struct {
	inner  Normalizer
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached constructs a caching decorator around inner.
func NewCached(inner Normalizer, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedNormalizer {
	return &CachedNormalizer{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(query *models.AddressQuery) string {
	return "geocode:" + query.Country + ":" + FreeText(query)
}

// cachedQuery excludes phones: they belong to the submission, not to the
// canonical address.
type cachedQuery struct {
	Region   *string `json:"region"`
	District *string `json:"district"`
	City     string  `json:"city"`
	Street   *string `json:"street"`
	Building *string `json:"building"`
}

func (c *CachedNormalizer) Normalize(ctx context.Context, query *models.AddressQuery) (*models.AddressQuery, error) {
	key := cacheKey(query)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var cached cachedQuery
		if err := json.Unmarshal(raw, &cached); err == nil {
			canonical := *query
			canonical.Region = cached.Region
			canonical.District = cached.District
			canonical.City = cached.City
			canonical.Street = cached.Street
			canonical.Building = cached.Building
			return &canonical, nil
		}
	} else if err != redis.Nil {
		c.logger.WarnContext(ctx, "geocoder cache read failed", "error", err)
	}

	canonical, err := c.inner.Normalize(ctx, query)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(cachedQuery{
		Region:   canonical.Region,
		District: canonical.District,
		City:     canonical.City,
		Street:   canonical.Street,
		Building: canonical.Building,
	})
	if err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "geocoder cache write failed", "error", err)
		}
	}
	return canonical, nil
}
