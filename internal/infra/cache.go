package infra

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/commercesync/internal/config"
	"github.com/Alturino/commercesync/internal/log"
	"github.com/Alturino/commercesync/internal/otel"
)

var (
	cacheOnce sync.Once
	cache     *redis.Client
)

// NewRedis builds a redis client with tracing and metrics instrumentation
// and checks the connection.
func NewRedis(c context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed instrumenting redis tracing with error=%w", err)
	}
	if err := redisotel.InstrumentMetrics(client, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed instrumenting redis metrics with error=%w", err)
	}
	if err := client.Ping(c).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed pinging redis with error=%w", err)
	}
	return client, nil
}

// NewCacheClient returns the process wide redis client, exiting when redis is
// unreachable.
func NewCacheClient(
	c context.Context,
	cfg config.Cache,
) *redis.Client {
	c, span := otel.Tracer.Start(c, "main NewCacheClient")
	defer span.End()
	cacheOnce.Do(func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main NewCacheClient").
			Str(log.KeyProcess, "connecting to redis").
			Str("addr", addr).
			Int("database", cfg.Database).
			Logger()

		logger.Info().Msg("connecting to redis")
		client, err := NewRedis(c, &redis.Options{
			Addr:     addr,
			Password: cfg.Password,
			DB:       cfg.Database,
		})
		if err != nil {
			err = fmt.Errorf("failed connecting to redis with error=%w", err)
			otel.RecordError(err, span)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		cache = client
		logger.Info().Msg("connected to redis")
	})
	return cache
}
