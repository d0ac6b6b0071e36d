package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
)

type fakeCatalog struct {
	products []content.ProductView
	err      error
}

func (f fakeCatalog) FindProducts(_ context.Context) ([]content.ProductView, error) {
	return f.products, f.err
}

func (f fakeCatalog) FindProductBySlug(_ context.Context, slug string) (content.ProductView, error) {
	if f.err != nil {
		return content.ProductView{}, f.err
	}
	for _, product := range f.products {
		if product.Slug == slug {
			return product, nil
		}
	}
	return content.ProductView{}, inErrors.ErrNotFound
}

func amount(v int64) *int64 { return &v }

var catalog = []content.ProductView{
	{ID: "product-shoe", Name: "Shoe", Slug: "shoe", UnitAmount: amount(1299), Currency: "usd", PaymentsPriceID: "price_shoe"},
	{ID: "product-ramen", Name: "Ramen", Slug: "ramen", UnitAmount: amount(1500), Currency: "jpy"},
}

type product struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Price       string `json:"price"`
	Purchasable bool   `json:"purchasable"`
}

func get(t *testing.T, catalog fakeCatalog, path string) (int, map[string]json.RawMessage) {
	t.Helper()
	router := mux.NewRouter()
	AttachProductController(router, catalog)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var res struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return rec.Code, res.Data
}

func TestFindProducts(t *testing.T) {
	status, data := get(t, fakeCatalog{products: catalog}, "/products")
	require.Equal(t, http.StatusOK, status)

	var products []product
	require.NoError(t, json.Unmarshal(data["products"], &products))
	assert.Equal(t, []product{
		{ID: "product-shoe", Amount: "12.99", Price: "12.99 USD", Purchasable: true},
		{ID: "product-ramen", Amount: "1500", Price: "1500 JPY"},
	}, products)

	status, _ = get(t, fakeCatalog{err: errors.New("database down")}, "/products")
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestFindProductBySlug(t *testing.T) {
	tests := []struct {
		name     string
		catalog  fakeCatalog
		path     string
		expected int
	}{
		{name: "found", catalog: fakeCatalog{products: catalog}, path: "/products/shoe", expected: http.StatusOK},
		{name: "unknown slug", catalog: fakeCatalog{products: catalog}, path: "/products/boot", expected: http.StatusNotFound},
		{name: "store failure", catalog: fakeCatalog{err: errors.New("database down")}, path: "/products/shoe", expected: http.StatusInternalServerError},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, data := get(t, test.catalog, test.path)
			assert.Equal(t, test.expected, status)
			if test.expected == http.StatusOK {
				var p product
				require.NoError(t, json.Unmarshal(data["product"], &p))
				assert.Equal(t, "12.99 USD", p.Price)
			}
		})
	}
}
