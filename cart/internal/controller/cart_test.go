package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/commercesync/cart/internal/action"
	"github.com/Alturino/commercesync/cart/internal/service"
	"github.com/Alturino/commercesync/internal/common/constants"
	"github.com/Alturino/commercesync/internal/config"
	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/payments"
)

const jwtSecret = "jwt-secret"

type memoryStore struct {
	carts    map[uuid.UUID]content.Cart
	products map[string]content.ProductView
}

func (s *memoryStore) FindCartByUserID(_ context.Context, userID string) (content.Cart, error) {
	for _, cart := range s.carts {
		if cart.UserID == userID {
			return cart, nil
		}
	}
	return content.Cart{}, inErrors.ErrNotFound
}

func (s *memoryStore) FindCart(_ context.Context, id uuid.UUID) (content.Cart, error) {
	cart, ok := s.carts[id]
	if !ok {
		return content.Cart{}, inErrors.ErrNotFound
	}
	return cart, nil
}

func (s *memoryStore) EnsureCart(c context.Context, userID string) (content.Cart, error) {
	if cart, err := s.FindCartByUserID(c, userID); err == nil {
		return cart, nil
	}
	cart := content.Cart{ID: uuid.New(), UserID: userID}
	s.carts[cart.ID] = cart
	return cart, nil
}

func (s *memoryStore) IncrementCartItem(_ context.Context, cartID uuid.UUID, productID string, key string) (content.CartItem, error) {
	cart := s.carts[cartID]
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity++
			return cart.Items[i], nil
		}
	}
	item := content.CartItem{Key: key, ProductID: productID, Quantity: 1}
	cart.Items = append(cart.Items, item)
	s.carts[cartID] = cart
	return item, nil
}

func (s *memoryStore) SetCartItemQuantity(_ context.Context, cartID uuid.UUID, key string, quantity int32) (bool, error) {
	cart := s.carts[cartID]
	for i := range cart.Items {
		if cart.Items[i].Key == key {
			cart.Items[i].Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) DeleteCartItem(_ context.Context, cartID uuid.UUID, key string) (bool, error) {
	cart := s.carts[cartID]
	kept := []content.CartItem{}
	for _, item := range cart.Items {
		if item.Key != key {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	s.carts[cartID] = cart
	return true, nil
}

func (s *memoryStore) FindCartLines(_ context.Context, cartID uuid.UUID) ([]content.CartLine, error) {
	lines := []content.CartLine{}
	for _, item := range s.carts[cartID].Items {
		line := content.CartLine{CartItem: item}
		if product, ok := s.products[item.ProductID]; ok {
			line.Product = &product
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *memoryStore) FindProductView(_ context.Context, id string) (content.ProductView, error) {
	product, ok := s.products[id]
	if !ok {
		return content.ProductView{}, fmt.Errorf("product=%s %w", id, inErrors.ErrNotFound)
	}
	return product, nil
}

func (s *memoryStore) InsertCheckoutSession(_ context.Context, session content.CheckoutSession) (content.CheckoutSession, error) {
	return session, nil
}

type stubCheckout struct{}

func (stubCheckout) CreateCheckoutSession(_ context.Context, _ payments.CheckoutInput) (payments.CheckoutSession, error) {
	return payments.CheckoutSession{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type cartData struct {
	Cart *struct {
		ID       uuid.UUID `json:"id"`
		Subtotal string    `json:"subtotal"`
		Items    []struct {
			Key      string `json:"key"`
			Quantity int32  `json:"quantity"`
			Name     string `json:"name"`
			Price    string `json:"price"`
		} `json:"items"`
	} `json:"cart"`
}

func token(t *testing.T, subject string) string {
	t.Helper()
	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{constants.AudienceUser},
		Issuer:    constants.IssuerAuth,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func newRouter() *mux.Router {
	price := int64(1299)
	store := &memoryStore{
		carts: map[uuid.UUID]content.Cart{},
		products: map[string]content.ProductView{
			"product-shoe": {ID: "product-shoe", Name: "Shoe", Slug: "shoe", UnitAmount: &price, Currency: "usd", PaymentsPriceID: "price_shoe"},
			"product-hat":  {ID: "product-hat", Name: "Hat", Slug: "hat"},
		},
	}
	svc := service.NewCartService(store, stubCheckout{}, config.Payments{SuccessURL: "https://shop.example.com/success"})
	router := mux.NewRouter()
	AttachCartController(router, action.New(svc), jwtSecret)
	return router
}

func call(t *testing.T, router http.Handler, method, path, user string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var res envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return rec, res
}

func decodeCart(t *testing.T, res envelope) cartData {
	t.Helper()
	var data cartData
	require.NoError(t, json.Unmarshal(res.Data, &data))
	return data
}

func TestCartFlow(t *testing.T) {
	router := newRouter()

	rec, res := call(t, router, http.MethodGet, "/carts", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeCart(t, res).Cart)

	rec, res = call(t, router, http.MethodPost, "/carts/items", "user_1", map[string]string{"productId": "product-shoe"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, res = call(t, router, http.MethodPost, "/carts/items", "user_1", map[string]string{"productId": "product-shoe"})
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeCart(t, res).Cart
	require.NotNil(t, cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int32(2), cart.Items[0].Quantity)
	assert.Equal(t, "Shoe", cart.Items[0].Name)
	assert.Equal(t, "25.98 USD", cart.Subtotal)

	itemPath := fmt.Sprintf("/carts/%s/items/%s", cart.ID, cart.Items[0].Key)
	rec, res = call(t, router, http.MethodPatch, itemPath, "user_1", map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(3), decodeCart(t, res).Cart.Items[0].Quantity)

	rec, res = call(t, router, http.MethodPost, fmt.Sprintf("/carts/%s/checkout", cart.ID), "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://checkout.example.com/cs_1"}`, string(res.Data))

	rec, res = call(t, router, http.MethodDelete, itemPath, "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeCart(t, res).Cart.Items)

	rec, res = call(t, router, http.MethodPost, fmt.Sprintf("/carts/%s/checkout", cart.ID), "user_1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "cart is empty", res.Message)
}

func TestCartFailures(t *testing.T) {
	router := newRouter()
	_, res := call(t, router, http.MethodPost, "/carts/items", "owner", map[string]string{"productId": "product-shoe"})
	cart := decodeCart(t, res).Cart
	require.NotNil(t, cart)
	itemPath := fmt.Sprintf("/carts/%s/items/%s", cart.ID, cart.Items[0].Key)

	tests := []struct {
		name     string
		method   string
		path     string
		user     string
		body     any
		expected int
	}{
		{name: "missing token", method: http.MethodGet, path: "/carts", expected: http.StatusUnauthorized},
		{name: "blank product", method: http.MethodPost, path: "/carts/items", user: "owner", body: map[string]string{"productId": "  "}, expected: http.StatusBadRequest},
		{name: "unknown product", method: http.MethodPost, path: "/carts/items", user: "owner", body: map[string]string{"productId": "product-missing"}, expected: http.StatusNotFound},
		{name: "negative quantity", method: http.MethodPatch, path: itemPath, user: "owner", body: map[string]int{"quantity": -1}, expected: http.StatusBadRequest},
		{name: "quantity past int32", method: http.MethodPatch, path: itemPath, user: "owner", body: map[string]int{"quantity": 1<<32 + 5}, expected: http.StatusBadRequest},
		{name: "missing quantity", method: http.MethodPatch, path: itemPath, user: "owner", body: map[string]string{}, expected: http.StatusBadRequest},
		{name: "malformed cart id", method: http.MethodDelete, path: "/carts/not-a-uuid/items/key", user: "owner", expected: http.StatusBadRequest},
		{name: "foreign cart update", method: http.MethodPatch, path: itemPath, user: "intruder", body: map[string]int{"quantity": 9}, expected: http.StatusForbidden},
		{name: "foreign cart checkout", method: http.MethodPost, path: fmt.Sprintf("/carts/%s/checkout", cart.ID), user: "intruder", expected: http.StatusForbidden},
		{name: "unknown cart", method: http.MethodPost, path: fmt.Sprintf("/carts/%s/checkout", uuid.New()), user: "owner", expected: http.StatusNotFound},
		{name: "buy now without price", method: http.MethodPost, path: "/carts/buy-now", user: "owner", body: map[string]string{"productId": "product-hat"}, expected: http.StatusConflict},
		{name: "buy now", method: http.MethodPost, path: "/carts/buy-now", user: "owner", body: map[string]string{"productId": "product-shoe"}, expected: http.StatusOK},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec, res := call(t, router, test.method, test.path, test.user, test.body)
			assert.Equal(t, test.expected, rec.Code)
			assert.Equal(t, test.expected, res.StatusCode)
		})
	}
}
