// Package optimistic holds a client-side projection of a cart that applies
// mutations before the server confirms them.
//
// The store keeps two layers: the last cart the server returned and the
// ordered actions dispatched since. The visible cart is the overlay folded
// over the snapshot. A fresh server cart replaces the snapshot and drops the
// overlay; nothing is merged.
package optimistic

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Alturino/commercesync/cart/pkg/response"
)

type Kind string

const (
	KindAddItem        Kind = "ADD_ITEM"
	KindRemoveItem     Kind = "REMOVE_ITEM"
	KindUpdateQuantity Kind = "UPDATE_QUANTITY"
	KindReset          Kind = "RESET"
)

// PlaceholderName is displayed for items added before the server returns
// their product fields.
const PlaceholderName = "Loading..."

type Action struct {
	Kind      Kind
	ProductID string
	ItemKey   string
	Quantity  int32
	// Timestamp is stamped by Dispatch.
	Timestamp int64
}

func AddItem(productID string) Action { return Action{Kind: KindAddItem, ProductID: productID} }

func RemoveItem(key string) Action { return Action{Kind: KindRemoveItem, ItemKey: key} }

func UpdateQuantity(key string, quantity int32) Action {
	return Action{Kind: KindUpdateQuantity, ItemKey: key, Quantity: quantity}
}

func Reset() Action { return Action{Kind: KindReset} }

type Store struct {
	mu        sync.Mutex
	snapshot  *response.Cart
	overlay   []Action
	timestamp int64
	now       func() time.Time
}

// New returns a store whose snapshot is cart. A nil cart means the user has
// no cart yet.
func New(cart *response.Cart) *Store {
	return &Store{snapshot: clone(cart), now: time.Now}
}

// Dispatch stamps action and applies it to the projection. RESET drops every
// pending action.
func (s *Store) Dispatch(action Action) Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timestamp = max(s.now().UnixMilli(), s.timestamp+1)
	action.Timestamp = s.timestamp
	if action.Kind == KindReset {
		s.overlay = nil
		return action
	}
	s.overlay = append(s.overlay, action)
	return action
}

// Resolve replaces the snapshot with the server's cart and clears the
// overlay.
func (s *Store) Resolve(cart *response.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = clone(cart)
	s.overlay = nil
}

// Cart returns the projection. The result is a copy.
func (s *Store) Cart() *response.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := clone(s.snapshot)
	for _, action := range s.overlay {
		cart = apply(cart, action)
	}
	if cart != nil && len(s.overlay) > 0 {
		cart.Subtotal = response.Subtotal(cart.Items)
	}
	return cart
}

func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.overlay)
}

// Timestamp is the stamp of the latest dispatched action, zero before the
// first dispatch.
func (s *Store) Timestamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timestamp
}

func placeholder(action Action) response.CartItem {
	return response.CartItem{
		Key:       fmt.Sprintf("optimistic-%d", action.Timestamp),
		ProductID: action.ProductID,
		Quantity:  1,
		Name:      PlaceholderName,
	}
}

func apply(cart *response.Cart, action Action) *response.Cart {
	switch action.Kind {
	case KindAddItem:
		if cart == nil {
			return &response.Cart{Items: []response.CartItem{placeholder(action)}}
		}
		i := slices.IndexFunc(cart.Items, func(item response.CartItem) bool {
			return item.ProductID == action.ProductID
		})
		if i < 0 {
			cart.Items = append(cart.Items, placeholder(action))
			return cart
		}
		cart.Items[i].Quantity++
	case KindRemoveItem:
		if cart != nil {
			cart.Items = removeKey(cart.Items, action.ItemKey)
		}
	case KindUpdateQuantity:
		if cart == nil || action.Quantity < 0 {
			return cart
		}
		if action.Quantity == 0 {
			cart.Items = removeKey(cart.Items, action.ItemKey)
			return cart
		}
		for i := range cart.Items {
			if cart.Items[i].Key == action.ItemKey {
				cart.Items[i].Quantity = action.Quantity
			}
		}
	}
	return cart
}

func removeKey(items []response.CartItem, key string) []response.CartItem {
	return slices.DeleteFunc(items, func(item response.CartItem) bool { return item.Key == key })
}

func clone(cart *response.Cart) *response.Cart {
	if cart == nil {
		return nil
	}
	c := *cart
	c.Items = slices.Clone(cart.Items)
	if c.Items == nil {
		c.Items = []response.CartItem{}
	}
	return &c
}
