package response

import (
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	Subtotal  string     `json:"subtotal,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is a cart line with its product's display fields. Product fields
// are empty when the product no longer resolves.
type CartItem struct {
	Key        string `json:"key"`
	ProductID  string `json:"productId"`
	Quantity   int32  `json:"quantity"`
	Name       string `json:"name,omitempty"`
	Slug       string `json:"slug,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	UnitAmount *int64 `json:"unitAmount,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Price      string `json:"price,omitempty"`
}
