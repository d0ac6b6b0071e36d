package client

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/cart/pkg/optimistic"
	"github.com/Alturino/commercesync/cart/pkg/response"
	"github.com/Alturino/commercesync/internal/content"
	"github.com/Alturino/commercesync/internal/log"
)

var (
	errNoCart        = errors.New("cart not found")
	errQuantityRange = errors.New("quantity is out of range")
)

// Session pairs the API client with an optimistic projection. Every mutation
// is applied locally first, sent to the API, and then replaced by a fresh
// read of the server cart. Failures return the error message and drop the
// pending actions.
type Session struct {
	client *Client
	store  *optimistic.Store
}

// NewSession loads the caller's cart as the first snapshot.
func NewSession(c context.Context, client *Client) (*Session, error) {
	cart, err := client.GetCart(c)
	if err != nil {
		return nil, err
	}
	return &Session{client: client, store: optimistic.New(cart)}, nil
}

// Cart is the projection including pending actions.
func (s *Session) Cart() *response.Cart {
	return s.store.Cart()
}

func (s *Session) cartID() (uuid.UUID, error) {
	cart := s.store.Cart()
	if cart == nil || cart.ID == uuid.Nil {
		return uuid.Nil, errNoCart
	}
	return cart.ID, nil
}

func (s *Session) mutate(c context.Context, action optimistic.Action, call func(context.Context) error) string {
	action = s.store.Dispatch(action)
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Session mutate").
		Str("action", string(action.Kind)).
		Int64("timestamp", action.Timestamp).
		Logger()

	err := call(c)
	if err == nil {
		var cart *response.Cart
		cart, err = s.client.GetCart(c)
		if err == nil {
			s.store.Resolve(cart)
			logger.Trace().Msg("resolved cart")
			return ""
		}
	}
	s.store.Dispatch(optimistic.Reset())
	logger.Error().Err(err).Msg(err.Error())
	return err.Error()
}

func (s *Session) AddItem(c context.Context, productID string) string {
	return s.mutate(c, optimistic.AddItem(productID), func(c context.Context) error {
		_, err := s.client.AddItem(c, productID)
		return err
	})
}

func (s *Session) UpdateQuantity(c context.Context, key string, quantity int) string {
	if quantity < 0 || quantity > content.MaxQuantity {
		return errQuantityRange.Error()
	}
	id, err := s.cartID()
	if err != nil {
		return err.Error()
	}
	return s.mutate(c, optimistic.UpdateQuantity(key, int32(quantity)), func(c context.Context) error {
		_, err := s.client.UpdateQuantity(c, id, key, quantity)
		return err
	})
}

func (s *Session) RemoveItem(c context.Context, key string) string {
	id, err := s.cartID()
	if err != nil {
		return err.Error()
	}
	return s.mutate(c, optimistic.RemoveItem(key), func(c context.Context) error {
		_, err := s.client.RemoveItem(c, id, key)
		return err
	})
}

// Checkout returns the checkout URL, or the error message when it fails.
func (s *Session) Checkout(c context.Context) (string, string) {
	id, err := s.cartID()
	if err != nil {
		return "", err.Error()
	}
	url, err := s.client.Checkout(c, id)
	if err != nil {
		return "", err.Error()
	}
	return url, ""
}
