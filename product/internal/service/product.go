package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/internal/cache"
	"github.com/Alturino/commercesync/internal/content"
	"github.com/Alturino/commercesync/internal/log"
	inOtel "github.com/Alturino/commercesync/internal/otel"
	"github.com/Alturino/commercesync/product/internal/otel"
)

type ProductStore interface {
	FindActiveProducts(c context.Context) ([]content.ProductView, error)
	FindProductViewBySlug(c context.Context, slug string) (content.ProductView, error)
}

type ReadCache interface {
	Get(c context.Context, key string, dst any) (bool, error)
	Set(c context.Context, key string, value any, ttl time.Duration, tags ...string) error
}

// ProductService reads the catalog through the tag cache. Entries are tagged
// with the products they were built from so sync writes drop them.
type ProductService struct {
	store ProductStore
	cache ReadCache
	ttl   time.Duration
}

func NewProductService(store ProductStore, cache ReadCache, ttl time.Duration) *ProductService {
	return &ProductService{store: store, cache: cache, ttl: ttl}
}

func tagsOf(views ...content.ProductView) []string {
	tags := []string{cache.TagProducts}
	for _, view := range views {
		if view.PaymentsProductID != "" {
			tags = append(tags, cache.ProductTag(view.PaymentsProductID))
		}
	}
	return tags
}

// FindProducts lists active products with their default price.
func (svc *ProductService) FindProducts(c context.Context) ([]content.ProductView, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductService FindProducts").
		Str(log.KeyCacheKey, cache.KeyProducts).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding products in cache").Logger()
	logger.Trace().Msg("finding products in cache")
	var products []content.ProductView
	found, err := svc.cache.Get(c, cache.KeyProducts, &products)
	if err != nil {
		logger.Warn().Err(err).Msg("failed reading cache falling back to database")
	}
	if found {
		logger.Debug().Int("products", len(products)).Msg("found products in cache")
		return products, nil
	}

	logger = logger.With().Str(log.KeyProcess, "finding products in database").Logger()
	logger.Trace().Msg("finding products in database")
	products, err = svc.store.FindActiveProducts(c)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int("products", len(products)).Msg("found products in database")

	logger = logger.With().Str(log.KeyProcess, "caching products").Logger()
	if err := svc.cache.Set(c, cache.KeyProducts, products, svc.ttl, tagsOf(products...)...); err != nil {
		logger.Warn().Err(err).Msg("failed caching products")
	}
	return products, nil
}

func (svc *ProductService) FindProductBySlug(c context.Context, slug string) (content.ProductView, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProductBySlug")
	defer span.End()

	key := cache.KeyProductBySlug + slug
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "ProductService FindProductBySlug").
		Str(log.KeyCacheKey, key).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product in cache").Logger()
	logger.Trace().Msg("finding product in cache")
	var product content.ProductView
	found, err := svc.cache.Get(c, key, &product)
	if err != nil {
		logger.Warn().Err(err).Msg("failed reading cache falling back to database")
	}
	if found {
		logger.Debug().Str(log.KeyProductID, product.ID).Msg("found product in cache")
		return product, nil
	}

	logger = logger.With().Str(log.KeyProcess, "finding product in database").Logger()
	logger.Trace().Msg("finding product in database")
	product, err = svc.store.FindProductViewBySlug(c, slug)
	if err != nil {
		err = fmt.Errorf("failed finding product slug=%s with error=%w", slug, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return content.ProductView{}, err
	}
	logger.Info().Str(log.KeyProductID, product.ID).Msg("found product in database")

	if err := svc.cache.Set(c, key, product, svc.ttl, tagsOf(product)...); err != nil {
		logger.Warn().Err(err).Msg("failed caching product")
	}
	return product, nil
}
