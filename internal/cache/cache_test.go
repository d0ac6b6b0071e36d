package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Alturino/commercesync/internal/infra"
)

func setup(t *testing.T, c context.Context) *redis.Client {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Errorf("failed to terminate container: %s", err)
		}
	})

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}

	client, err := infra.NewRedis(c, redisOpt)
	if err != nil {
		t.Fatalf("failed connecting to redis with error: %s", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

type entry struct {
	Name string `json:"name"`
}

func TestProductTags(t *testing.T) {
	assert.Equal(t, []string{"products", "product_prod_1"}, ProductTags("prod_1"))
	assert.Equal(t, []string{"products"}, ProductTags(""))
}

func TestTagCache(t *testing.T) {
	c := context.Background()
	client := setup(t, c)
	tagCache := New(client)

	require.NoError(t, tagCache.Set(c, KeyProducts, []entry{{Name: "a"}, {Name: "b"}}, time.Minute, TagProducts))
	require.NoError(t, tagCache.Set(c, KeyProductBySlug+"a", entry{Name: "a"}, time.Minute, TagProducts, ProductTag("prod_a")))
	require.NoError(t, tagCache.Set(c, KeyProductBySlug+"b", entry{Name: "b"}, time.Minute, ProductTag("prod_b")))

	t.Run("hit decodes stored value", func(t *testing.T) {
		got := []entry{}
		hit, err := tagCache.Get(c, KeyProducts, &got)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, []entry{{Name: "a"}, {Name: "b"}}, got)
	})

	t.Run("miss reports absence", func(t *testing.T) {
		got := entry{}
		hit, err := tagCache.Get(c, "missing", &got)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("invalidate drops only tagged entries", func(t *testing.T) {
		require.NoError(t, tagCache.Invalidate(c, ProductTags("prod_a")...))

		hit, err := tagCache.Get(c, KeyProducts, &[]entry{})
		require.NoError(t, err)
		assert.False(t, hit)

		hit, err = tagCache.Get(c, KeyProductBySlug+"a", &entry{})
		require.NoError(t, err)
		assert.False(t, hit)

		got := entry{}
		hit, err = tagCache.Get(c, KeyProductBySlug+"b", &got)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, "b", got.Name)

		exists, err := client.Exists(c, tagPrefix+TagProducts).Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})

	t.Run("invalidate unknown tag is a no-op", func(t *testing.T) {
		assert.NoError(t, tagCache.Invalidate(c, "unknown"))
	})
}
