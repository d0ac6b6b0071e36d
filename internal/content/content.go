// Package content holds the documents mirrored between the content store and
// the payments provider, and the cart documents kept next to them.
package content

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MirrorIDPrefix prefixes the id of every document created by mirroring a
// payments entity. The mirrored id is the idempotency key of every upsert:
// redelivered or reordered events address the same document and converge.
const MirrorIDPrefix = "stripe-"

// Writer records which side of the sync performed the last write of a
// document.
type Writer string

const (
	WriterContent  Writer = "content"
	WriterPayments Writer = "payments"
)

// Metadata keys stamped on payments entities pushed from the content store.
const (
	MetadataContentID       = "content_id"
	MetadataLastWriter      = "last_writer"
	MetadataContentRevision = "content_revision"
	MetadataBrand           = "brand"
	MetadataDeletedAt       = "deleted_at"
	MetadataDeleted         = "deleted_from_content"
	MetadataCartID          = "cart_id"
)

func ProductDocumentID(paymentsProductID string) string {
	return MirrorIDPrefix + paymentsProductID
}

func PriceDocumentID(paymentsPriceID string) string {
	return MirrorIDPrefix + paymentsPriceID
}

// MirrorDocumentID resolves the document id for a payments entity: the
// content document it was pushed from when the metadata names one, the
// deterministic mirror id otherwise.
func MirrorDocumentID(paymentsID string, metadata map[string]string) string {
	if id := metadata[MetadataContentID]; id != "" {
		return id
	}
	return MirrorIDPrefix + paymentsID
}

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonSlug    = regexp.MustCompile(`[^a-z0-9-]`)
)

func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = whitespace.ReplaceAllString(slug, "-")
	return nonSlug.ReplaceAllString(slug, "")
}

type ImageRef struct {
	Key     string `json:"key"`
	AssetID string `json:"assetId"`
}

type ImageAsset struct {
	ID      string `json:"id"`
	AssetID string `json:"assetId"`
	URL     string `json:"url"`
}

type Product struct {
	ID                     string     `json:"id"`
	PaymentsProductID      string     `json:"paymentsProductId,omitempty"`
	Name                   string     `json:"name"`
	Description            string     `json:"description"`
	Slug                   string     `json:"slug"`
	Brand                  string     `json:"brand"`
	Active                 bool       `json:"active"`
	Images                 []ImageRef `json:"images"`
	DefaultPriceID         string     `json:"defaultPriceId,omitempty"`
	PriceIDs               []string   `json:"priceIds"`
	PendingPaymentsPriceID string     `json:"pendingPaymentsPriceId,omitempty"`
	DeletedAt              *time.Time `json:"deletedAt,omitempty"`
	LastWriter             Writer     `json:"lastWriter"`
	Revision               int64      `json:"revision"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

// SameContent reports whether both documents hold the same synced fields.
// Bookkeeping fields (revision, writer, timestamps) are ignored.
func (p Product) SameContent(o Product) bool {
	return p.ID == o.ID &&
		p.PaymentsProductID == o.PaymentsProductID &&
		p.Name == o.Name &&
		p.Description == o.Description &&
		p.Slug == o.Slug &&
		p.Brand == o.Brand &&
		p.Active == o.Active &&
		slices.Equal(p.Images, o.Images) &&
		p.DefaultPriceID == o.DefaultPriceID &&
		slices.Equal(p.PriceIDs, o.PriceIDs) &&
		p.PendingPaymentsPriceID == o.PendingPaymentsPriceID &&
		(p.DeletedAt == nil) == (o.DeletedAt == nil)
}

func (p Product) HasPrice(priceID string) bool {
	return slices.Contains(p.PriceIDs, priceID)
}

type Price struct {
	ID              string     `json:"id"`
	PaymentsPriceID string     `json:"paymentsPriceId,omitempty"`
	UnitAmount      int64      `json:"unitAmount"`
	Currency        string     `json:"currency"`
	ProductID       string     `json:"productId"`
	Active          bool       `json:"active"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
	LastWriter      Writer     `json:"lastWriter"`
	Revision        int64      `json:"revision"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (p Price) SameContent(o Price) bool {
	return p.ID == o.ID &&
		p.PaymentsPriceID == o.PaymentsPriceID &&
		p.UnitAmount == o.UnitAmount &&
		p.Currency == o.Currency &&
		p.ProductID == o.ProductID &&
		p.Active == o.Active &&
		(p.DeletedAt == nil) == (o.DeletedAt == nil)
}

// MaxQuantity is the largest quantity a cart line can hold.
const MaxQuantity = math.MaxInt32

type CartItem struct {
	Key       string `json:"key"`
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c Cart) ItemByProduct(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// ProductView is a product expanded to the fields a storefront renders.
type ProductView struct {
	ID                string `json:"id"`
	PaymentsProductID string `json:"paymentsProductId,omitempty"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Slug              string `json:"slug"`
	Brand             string `json:"brand"`
	ImageURL          string `json:"imageUrl,omitempty"`
	UnitAmount        *int64 `json:"unitAmount,omitempty"`
	Currency          string `json:"currency,omitempty"`
	PaymentsPriceID   string `json:"paymentsPriceId,omitempty"`
}

// CartLine is a cart item joined with its product. Product is nil when the
// reference no longer resolves.
type CartLine struct {
	CartItem
	Product *ProductView
}

type CheckoutStatus string

const (
	CheckoutPending  CheckoutStatus = "pending"
	CheckoutSuccess  CheckoutStatus = "success"
	CheckoutCanceled CheckoutStatus = "canceled"
	CheckoutError    CheckoutStatus = "error"
)

type CheckoutSession struct {
	ID        string         `json:"id"`
	CartID    uuid.UUID      `json:"cartId"`
	Status    CheckoutStatus `json:"status"`
	URL       string         `json:"url"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
