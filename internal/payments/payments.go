// Package payments talks to the payments provider: catalog writes, checkout
// sessions and webhook verification.
package payments

import (
	"encoding/json"
	"time"
)

const (
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
	EventPriceCreated    = "price.created"
	EventPriceUpdated    = "price.updated"
	EventPriceDeleted    = "price.deleted"
	EventCheckoutDone    = "checkout.session.completed"
	EventCheckoutExpired = "checkout.session.expired"
)

// Event is a verified webhook delivery. Object holds the raw JSON of the
// entity the event is about.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created time.Time       `json:"created"`
	Object  json.RawMessage `json:"object"`
}

type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Images         []string          `json:"images"`
	Active         bool              `json:"active"`
	DefaultPriceID string            `json:"defaultPriceId,omitempty"`
	Metadata       map[string]string `json:"metadata"`
}

type Price struct {
	ID         string            `json:"id"`
	ProductID  string            `json:"productId"`
	UnitAmount int64             `json:"unitAmount"`
	Currency   string            `json:"currency"`
	Active     bool              `json:"active"`
	Metadata   map[string]string `json:"metadata"`
}

type ProductInput struct {
	Name        string
	Description string
	Images      []string
	Active      bool
	Metadata    map[string]string
}

type PriceInput struct {
	ProductID  string
	UnitAmount int64
	Currency   string
	Active     bool
	Metadata   map[string]string
}

type PriceUpdate struct {
	Active   bool
	Metadata map[string]string
}

type CheckoutLine struct {
	PriceID  string
	Quantity int64
}

type CheckoutInput struct {
	Lines      []CheckoutLine
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
