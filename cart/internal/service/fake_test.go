package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/payments"
)

type fakeStore struct {
	carts    map[uuid.UUID]content.Cart
	products map[string]content.ProductView
	sessions []content.CheckoutSession
}

func newFakeStore(products ...content.ProductView) *fakeStore {
	s := &fakeStore{carts: map[uuid.UUID]content.Cart{}, products: map[string]content.ProductView{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) FindCartByUserID(_ context.Context, userID string) (content.Cart, error) {
	for _, cart := range s.carts {
		if cart.UserID == userID {
			return cart, nil
		}
	}
	return content.Cart{}, fmt.Errorf("cart of user=%s %w", userID, inErrors.ErrNotFound)
}

func (s *fakeStore) FindCart(_ context.Context, id uuid.UUID) (content.Cart, error) {
	cart, ok := s.carts[id]
	if !ok {
		return content.Cart{}, fmt.Errorf("cart=%s %w", id, inErrors.ErrNotFound)
	}
	return cart, nil
}

func (s *fakeStore) EnsureCart(c context.Context, userID string) (content.Cart, error) {
	if cart, err := s.FindCartByUserID(c, userID); err == nil {
		return cart, nil
	}
	cart := content.Cart{ID: uuid.New(), UserID: userID, Items: []content.CartItem{}}
	s.carts[cart.ID] = cart
	return cart, nil
}

func (s *fakeStore) IncrementCartItem(_ context.Context, cartID uuid.UUID, productID string, key string) (content.CartItem, error) {
	cart := s.carts[cartID]
	for i, item := range cart.Items {
		if item.ProductID == productID {
			cart.Items[i].Quantity++
			return cart.Items[i], nil
		}
	}
	item := content.CartItem{Key: key, ProductID: productID, Quantity: 1}
	cart.Items = append(cart.Items, item)
	s.carts[cartID] = cart
	return item, nil
}

func (s *fakeStore) SetCartItemQuantity(_ context.Context, cartID uuid.UUID, key string, quantity int32) (bool, error) {
	cart := s.carts[cartID]
	for i, item := range cart.Items {
		if item.Key == key {
			cart.Items[i].Quantity = quantity
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) DeleteCartItem(_ context.Context, cartID uuid.UUID, key string) (bool, error) {
	cart := s.carts[cartID]
	before := len(cart.Items)
	cart.Items = slices.DeleteFunc(cart.Items, func(item content.CartItem) bool { return item.Key == key })
	s.carts[cartID] = cart
	return len(cart.Items) < before, nil
}

func (s *fakeStore) FindCartLines(_ context.Context, cartID uuid.UUID) ([]content.CartLine, error) {
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

func (s *fakeStore) FindProductView(_ context.Context, id string) (content.ProductView, error) {
	product, ok := s.products[id]
	if !ok {
		return content.ProductView{}, fmt.Errorf("product=%s %w", id, inErrors.ErrNotFound)
	}
	return product, nil
}

func (s *fakeStore) InsertCheckoutSession(_ context.Context, session content.CheckoutSession) (content.CheckoutSession, error) {
	s.sessions = append(s.sessions, session)
	return session, nil
}

type fakeProvider struct {
	inputs []payments.CheckoutInput
	err    error
}

func (p *fakeProvider) CreateCheckoutSession(_ context.Context, input payments.CheckoutInput) (payments.CheckoutSession, error) {
	p.inputs = append(p.inputs, input)
	if p.err != nil {
		return payments.CheckoutSession{}, p.err
	}
	id := fmt.Sprintf("cs_%d", len(p.inputs))
	return payments.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}
