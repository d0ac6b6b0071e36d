package response

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Alturino/commercesync/internal/content"
)

func amount(v int64) *int64 { return &v }

func TestFromCart(t *testing.T) {
	cart := content.Cart{ID: uuid.New(), UserID: "user_1"}
	shoe := &content.ProductView{ID: "product-shoe", Name: "Shoe", Slug: "shoe", UnitAmount: amount(1299), Currency: "usd", ImageURL: "https://cdn.example.com/shoe.png"}
	sock := &content.ProductView{ID: "product-sock", Name: "Sock", Slug: "sock", UnitAmount: amount(250), Currency: "usd"}

	tests := []struct {
		name     string
		lines    []content.CartLine
		subtotal string
	}{
		{
			name: "sums priced lines",
			lines: []content.CartLine{
				{CartItem: content.CartItem{Key: "a", ProductID: shoe.ID, Quantity: 2}, Product: shoe},
				{CartItem: content.CartItem{Key: "b", ProductID: sock.ID, Quantity: 1}, Product: sock},
			},
			subtotal: "28.48 USD",
		},
		{
			name: "skips unresolved products",
			lines: []content.CartLine{
				{CartItem: content.CartItem{Key: "a", ProductID: shoe.ID, Quantity: 1}, Product: shoe},
				{CartItem: content.CartItem{Key: "b", ProductID: "product-gone", Quantity: 3}},
			},
			subtotal: "12.99 USD",
		},
		{
			name: "mixed currencies have no subtotal",
			lines: []content.CartLine{
				{CartItem: content.CartItem{Key: "a", ProductID: shoe.ID, Quantity: 1}, Product: shoe},
				{CartItem: content.CartItem{Key: "b", ProductID: "product-eur", Quantity: 1}, Product: &content.ProductView{ID: "product-eur", UnitAmount: amount(100), Currency: "eur"}},
			},
		},
		{name: "empty cart"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := FromCart(cart, test.lines)
			assert.Equal(t, cart.ID, resp.ID)
			assert.Len(t, resp.Items, len(test.lines))
			assert.Equal(t, test.subtotal, resp.Subtotal)
		})
	}

	resp := FromCart(cart, []content.CartLine{
		{CartItem: content.CartItem{Key: "a", ProductID: shoe.ID, Quantity: 1}, Product: shoe},
		{CartItem: content.CartItem{Key: "b", ProductID: "product-gone", Quantity: 1}},
	})
	assert.Equal(t, CartItem{
		Key:        "a",
		ProductID:  shoe.ID,
		Quantity:   1,
		Name:       "Shoe",
		Slug:       "shoe",
		ImageURL:   "https://cdn.example.com/shoe.png",
		UnitAmount: shoe.UnitAmount,
		Currency:   "usd",
		Price:      "12.99 USD",
	}, resp.Items[0])
	assert.Equal(t, CartItem{Key: "b", ProductID: "product-gone", Quantity: 1}, resp.Items[1])
}
