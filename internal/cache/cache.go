// Package cache is a JSON read cache on redis whose entries are indexed by
// tag, so writers can drop every entry derived from a product without
// knowing the keys readers used.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/internal/log"
	"github.com/Alturino/commercesync/internal/otel"
)

const (
	TagProducts = "products"

	KeyProducts      = "products:all"
	KeyProductBySlug = "products:slug:"

	tagPrefix = "tag:"
)

func ProductTag(paymentsProductID string) string {
	return "product_" + paymentsProductID
}

// ProductTags are the tags every write to a product or its prices
// invalidates.
func ProductTags(paymentsProductID string) []string {
	if paymentsProductID == "" {
		return []string{TagProducts}
	}
	return []string{TagProducts, ProductTag(paymentsProductID)}
}

type TagCache struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *TagCache {
	return &TagCache{client: client}
}

// Get decodes the entry at key into dst and reports whether it was present.
func (t *TagCache) Get(c context.Context, key string, dst any) (bool, error) {
	c, span := otel.Tracer.Start(c, "TagCache Get")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "TagCache Get").
		Str(log.KeyCacheKey, key).
		Logger()

	logger.Trace().Msg("getting cache entry")
	value, err := t.client.Get(c, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Trace().Msg("cache miss")
		return false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed getting cache key=%s with error=%w", key, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return false, err
	}

	if err = json.Unmarshal(value, dst); err != nil {
		err = fmt.Errorf("failed decoding cache key=%s with error=%w", key, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return false, err
	}
	logger.Trace().Msg("cache hit")
	return true, nil
}

func (t *TagCache) Set(
	c context.Context,
	key string,
	value any,
	ttl time.Duration,
	tags ...string,
) error {
	c, span := otel.Tracer.Start(c, "TagCache Set")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "TagCache Set").
		Str(log.KeyCacheKey, key).
		Strs(log.KeyCacheTags, tags).
		Logger()

	encoded, err := json.Marshal(value)
	if err != nil {
		err = fmt.Errorf("failed encoding cache key=%s with error=%w", key, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger.Trace().Msg("setting cache entry")
	_, err = t.client.TxPipelined(c, func(pipe redis.Pipeliner) error {
		pipe.Set(c, key, encoded, ttl)
		for _, tag := range tags {
			pipe.SAdd(c, tagPrefix+tag, key)
		}
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed setting cache key=%s with error=%w", key, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("set cache entry")
	return nil
}

// Invalidate deletes every entry indexed under any of tags along with the
// tag sets themselves.
func (t *TagCache) Invalidate(c context.Context, tags ...string) error {
	c, span := otel.Tracer.Start(c, "TagCache Invalidate")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "TagCache Invalidate").
		Strs(log.KeyCacheTags, tags).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "collecting tagged keys").Logger()
	logger.Trace().Msg("collecting tagged keys")
	keys := make([]string, 0, len(tags))
	for _, tag := range tags {
		members, err := t.client.SMembers(c, tagPrefix+tag).Result()
		if err != nil {
			err = fmt.Errorf("failed reading tag=%s with error=%w", tag, err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		keys = append(keys, members...)
		keys = append(keys, tagPrefix+tag)
	}
	logger.Trace().Int("keys", len(keys)).Msg("collected tagged keys")

	if len(keys) == 0 {
		return nil
	}

	logger = logger.With().Str(log.KeyProcess, "deleting tagged keys").Logger()
	if err := t.client.Del(c, keys...).Err(); err != nil {
		err = fmt.Errorf("failed deleting tagged keys with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("invalidated cache tags")
	return nil
}
