package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/commercesync/internal/config"
	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
)

func amount(v int64) *int64 { return &v }

var (
	shoe = content.ProductView{ID: "product-shoe", Name: "Shoe", Slug: "shoe", UnitAmount: amount(1299), Currency: "usd", PaymentsPriceID: "price_shoe"}
	sock = content.ProductView{ID: "product-sock", Name: "Sock", Slug: "sock", UnitAmount: amount(250), Currency: "usd", PaymentsPriceID: "price_sock"}
	hat  = content.ProductView{ID: "product-hat", Name: "Hat", Slug: "hat"}
)

func newService(store *fakeStore, provider *fakeProvider) *CartService {
	svc := NewCartService(store, provider, config.Payments{
		SuccessURL: "https://shop.example.com/success",
		CancelURL:  "https://shop.example.com/cancel",
	})
	keys := 0
	svc.newKey = func() string {
		keys++
		return []string{"", "key-a", "key-b", "key-c", "key-d"}[keys]
	}
	return svc
}

func TestGetCart(t *testing.T) {
	c := context.Background()
	store := newFakeStore(shoe)
	svc := newService(store, &fakeProvider{})

	detail, err := svc.GetCart(c, "user_1")
	require.NoError(t, err)
	assert.Nil(t, detail)

	_, err = svc.AddItem(c, "user_1", shoe.ID)
	require.NoError(t, err)

	detail, err = svc.GetCart(c, "user_1")
	require.NoError(t, err)
	require.NotNil(t, detail)
	require.Len(t, detail.Lines, 1)
	assert.Equal(t, "Shoe", detail.Lines[0].Product.Name)
}

func TestAddItem(t *testing.T) {
	c := context.Background()
	store := newFakeStore(shoe, sock)
	svc := newService(store, &fakeProvider{})

	cart, err := svc.AddItem(c, "user_1", shoe.ID)
	require.NoError(t, err)
	assert.Equal(t, []content.CartItem{{Key: "key-a", ProductID: shoe.ID, Quantity: 1}}, cart.Items)

	cart, err = svc.AddItem(c, "user_1", shoe.ID)
	require.NoError(t, err)
	assert.Equal(t, []content.CartItem{{Key: "key-a", ProductID: shoe.ID, Quantity: 2}}, cart.Items)

	cart, err = svc.AddItem(c, "user_1", sock.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, content.CartItem{Key: "key-c", ProductID: sock.ID, Quantity: 1}, cart.Items[1])
	assert.Len(t, store.carts, 1)

	_, err = svc.AddItem(c, "user_1", "product-missing")
	assert.True(t, errors.Is(err, inErrors.ErrNotFound))
}

func TestUpdateQuantity(t *testing.T) {
	c := context.Background()
	store := newFakeStore(shoe)
	svc := newService(store, &fakeProvider{})
	cart, err := svc.AddItem(c, "user_1", shoe.ID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		key      string
		quantity int
		expected []content.CartItem
		err      error
	}{
		{name: "negative quantity", key: "key-a", quantity: -1, expected: []content.CartItem{{Key: "key-a", ProductID: shoe.ID, Quantity: 1}}, err: inErrors.ErrValidation},
		{name: "quantity wider than a line holds", key: "key-a", quantity: 1<<32 + 5, expected: []content.CartItem{{Key: "key-a", ProductID: shoe.ID, Quantity: 1}}, err: inErrors.ErrValidation},
		{name: "quantity one past the cap", key: "key-a", quantity: content.MaxQuantity + 1, expected: []content.CartItem{{Key: "key-a", ProductID: shoe.ID, Quantity: 1}}, err: inErrors.ErrValidation},
		{name: "sets quantity", key: "key-a", quantity: 5, expected: []content.CartItem{{Key: "key-a", ProductID: shoe.ID, Quantity: 5}}},
		{name: "unknown key is a no-op", key: "key-x", quantity: 3, expected: []content.CartItem{{Key: "key-a", ProductID: shoe.ID, Quantity: 5}}},
		{name: "zero removes the line", key: "key-a", quantity: 0, expected: []content.CartItem{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := svc.UpdateQuantity(c, cart.ID, test.key, test.quantity)
			if test.err != nil {
				assert.True(t, errors.Is(err, test.err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, test.expected, store.carts[cart.ID].Items)
		})
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	c := context.Background()
	store := newFakeStore(shoe)
	svc := newService(store, &fakeProvider{})
	cart, err := svc.AddItem(c, "user_1", shoe.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(c, cart.ID, "key-a"))
	require.NoError(t, svc.RemoveItem(c, cart.ID, "key-a"))
	assert.Empty(t, store.carts[cart.ID].Items)
}

func TestCheckout(t *testing.T) {
	c := context.Background()

	t.Run("creates a session for purchasable lines", func(t *testing.T) {
		store := newFakeStore(shoe, sock, hat)
		provider := &fakeProvider{}
		svc := newService(store, provider)
		for _, id := range []string{shoe.ID, shoe.ID, hat.ID, sock.ID} {
			_, err := svc.AddItem(c, "user_1", id)
			require.NoError(t, err)
		}
		cart, err := store.FindCartByUserID(c, "user_1")
		require.NoError(t, err)

		url, err := svc.Checkout(c, cart.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.example.com/cs_1", url)

		require.Len(t, provider.inputs, 1)
		input := provider.inputs[0]
		assert.Len(t, input.Lines, 2)
		assert.Equal(t, "price_shoe", input.Lines[0].PriceID)
		assert.Equal(t, int64(2), input.Lines[0].Quantity)
		assert.Equal(t, "price_sock", input.Lines[1].PriceID)
		assert.Equal(t, "https://shop.example.com/success", input.SuccessURL)
		assert.Equal(t, "https://shop.example.com/cancel", input.CancelURL)
		assert.Equal(t, cart.ID.String(), input.Metadata[content.MetadataCartID])

		require.Len(t, store.sessions, 1)
		assert.Equal(t, content.CheckoutSession{ID: "cs_1", CartID: cart.ID, Status: content.CheckoutPending, URL: url}, store.sessions[0])
	})

	t.Run("fails without calling the provider when nothing is purchasable", func(t *testing.T) {
		store := newFakeStore(hat)
		provider := &fakeProvider{}
		svc := newService(store, provider)
		cart, err := svc.AddItem(c, "user_1", hat.ID)
		require.NoError(t, err)

		_, err = svc.Checkout(c, cart.ID)
		assert.True(t, errors.Is(err, inErrors.ErrCartEmpty))
		assert.Empty(t, provider.inputs)

		_, err = svc.Checkout(c, uuid.New())
		assert.True(t, errors.Is(err, inErrors.ErrCartEmpty))
	})

	t.Run("provider failure is returned", func(t *testing.T) {
		store := newFakeStore(shoe)
		provider := &fakeProvider{err: errors.New("card declined")}
		svc := newService(store, provider)
		cart, err := svc.AddItem(c, "user_1", shoe.ID)
		require.NoError(t, err)

		_, err = svc.Checkout(c, cart.ID)
		require.Error(t, err)
		assert.Empty(t, store.sessions)
	})
}

func TestBuyNow(t *testing.T) {
	c := context.Background()
	store := newFakeStore(shoe, hat)
	provider := &fakeProvider{}
	svc := newService(store, provider)

	url, err := svc.BuyNow(c, shoe.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	require.Len(t, provider.inputs, 1)
	assert.Equal(t, "price_shoe", provider.inputs[0].Lines[0].PriceID)
	assert.Equal(t, int64(1), provider.inputs[0].Lines[0].Quantity)
	assert.Empty(t, provider.inputs[0].Metadata)
	assert.Equal(t, uuid.Nil, store.sessions[0].CartID)

	_, err = svc.BuyNow(c, hat.ID)
	assert.True(t, errors.Is(err, inErrors.ErrProductNotSynced))
}

func TestCartBelongsTo(t *testing.T) {
	c := context.Background()
	store := newFakeStore(shoe)
	svc := newService(store, &fakeProvider{})
	cart, err := svc.AddItem(c, "user_1", shoe.ID)
	require.NoError(t, err)

	assert.NoError(t, svc.CartBelongsTo(c, cart.ID, "user_1"))
	assert.True(t, errors.Is(svc.CartBelongsTo(c, cart.ID, "user_2"), inErrors.ErrCartNotOwned))
	assert.True(t, errors.Is(svc.CartBelongsTo(c, uuid.New(), "user_1"), inErrors.ErrNotFound))
}
