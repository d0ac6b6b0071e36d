package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/commercesync/internal/cache"
	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
)

type fakeStore struct {
	products []content.ProductView
	reads    int
	err      error
}

func (s *fakeStore) FindActiveProducts(_ context.Context) ([]content.ProductView, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return append([]content.ProductView{}, s.products...), nil
}

func (s *fakeStore) FindProductViewBySlug(_ context.Context, slug string) (content.ProductView, error) {
	s.reads++
	for _, product := range s.products {
		if product.Slug == slug {
			return product, nil
		}
	}
	return content.ProductView{}, fmt.Errorf("product slug=%s %w", slug, inErrors.ErrNotFound)
}

type fakeCache struct {
	entries map[string][]byte
	tags    map[string][]string
	ttls    map[string]time.Duration
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, tags: map[string][]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	value, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(value, dst)
}

func (f *fakeCache) Set(_ context.Context, key string, value any, ttl time.Duration, tags ...string) error {
	if f.err != nil {
		return f.err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = encoded
	f.ttls[key] = ttl
	for _, tag := range tags {
		f.tags[tag] = append(f.tags[tag], key)
	}
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, tags ...string) error {
	for _, tag := range tags {
		for _, key := range f.tags[tag] {
			delete(f.entries, key)
		}
		delete(f.tags, tag)
	}
	return nil
}

func amount(v int64) *int64 { return &v }

var catalog = []content.ProductView{
	{ID: "product-shoe", PaymentsProductID: "prod_shoe", Name: "Shoe", Slug: "shoe", UnitAmount: amount(1299), Currency: "usd", PaymentsPriceID: "price_shoe"},
	{ID: "product-hat", Name: "Hat", Slug: "hat"},
}

func TestFindProducts(t *testing.T) {
	c := context.Background()
	store := &fakeStore{products: catalog}
	readCache := newFakeCache()
	svc := NewProductService(store, readCache, time.Minute)

	products, err := svc.FindProducts(c)
	require.NoError(t, err)
	assert.Equal(t, catalog, products)
	assert.Equal(t, 1, store.reads)
	assert.Equal(t, time.Minute, readCache.ttls[cache.KeyProducts])
	assert.Equal(t, []string{cache.KeyProducts}, readCache.tags[cache.TagProducts])
	assert.Equal(t, []string{cache.KeyProducts}, readCache.tags[cache.ProductTag("prod_shoe")])

	products, err = svc.FindProducts(c)
	require.NoError(t, err)
	assert.Equal(t, catalog, products)
	assert.Equal(t, 1, store.reads)

	store.products = catalog[:1]
	require.NoError(t, readCache.Invalidate(c, cache.ProductTags("prod_shoe")...))
	products, err = svc.FindProducts(c)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 2, store.reads)
}

func TestFindProductBySlug(t *testing.T) {
	c := context.Background()
	store := &fakeStore{products: catalog}
	readCache := newFakeCache()
	svc := NewProductService(store, readCache, time.Minute)

	product, err := svc.FindProductBySlug(c, "shoe")
	require.NoError(t, err)
	assert.Equal(t, catalog[0], product)

	_, err = svc.FindProductBySlug(c, "shoe")
	require.NoError(t, err)
	assert.Equal(t, 1, store.reads)
	assert.Contains(t, readCache.tags[cache.ProductTag("prod_shoe")], cache.KeyProductBySlug+"shoe")

	_, err = svc.FindProductBySlug(c, "boot")
	assert.True(t, errors.Is(err, inErrors.ErrNotFound))
	_, cached := readCache.entries[cache.KeyProductBySlug+"boot"]
	assert.False(t, cached)
}

func TestCacheFailureFallsBackToStore(t *testing.T) {
	c := context.Background()
	store := &fakeStore{products: catalog}
	readCache := newFakeCache()
	readCache.err = errors.New("connection refused")
	svc := NewProductService(store, readCache, time.Minute)

	products, err := svc.FindProducts(c)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	product, err := svc.FindProductBySlug(c, "hat")
	require.NoError(t, err)
	assert.Equal(t, "Hat", product.Name)
	assert.Equal(t, 2, store.reads)

	store.err = errors.New("database down")
	_, err = svc.FindProducts(c)
	assert.Error(t, err)
}
