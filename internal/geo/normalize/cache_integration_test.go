//go:build integration

package normalize

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kidsearch/internal/geo/models"
	"kidsearch/pkg/testutil/containers"
)

func TestCachedNormalizerWithRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, rc.FlushAll(ctx))

	inner := &countingNormalizer{}
	cached := NewCached(inner, rc.Client, time.Minute, slog.Default())

	query := &models.AddressQuery{Country: "Russia", City: "Tomsk"}

	first, err := cached.Normalize(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, "Томск", first.City)
	assert.Equal(t, 1, inner.calls)

	// Second call is served from Redis.
	second, err := cached.Normalize(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, "Томск", second.City)
	assert.Equal(t, 1, inner.calls)

	// Phones ride along from the live query, never from the cache.
	withPhones := &models.AddressQuery{Country: "Russia", City: "Tomsk", Phones: []int64{79001111111}}
	third, err := cached.Normalize(ctx, withPhones)
	require.NoError(t, err)
	assert.Equal(t, []int64{79001111111}, third.Phones)
	assert.Equal(t, 1, inner.calls)
}
