package request

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Alturino/commercesync/internal/common/validate"
	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
)

const (
	TransitionAppear    = "appear"
	TransitionUpdate    = "update"
	TransitionDisappear = "disappear"

	DocumentTypeProduct = "product"
	DocumentTypePrice   = "price"
)

type Reference struct {
	Ref string `json:"_ref" validate:"required,notblank"`
}

type Image struct {
	Key   string    `json:"_key"`
	Asset Reference `json:"asset"`
}

type Slug struct {
	Current string `json:"current"`
}

// ContentDocument is a product or price document as the content store
// projects it into webhooks.
type ContentDocument struct {
	ID                string      `json:"_id"             validate:"required,notblank"`
	Type              string      `json:"_type"`
	Name              string      `json:"name"            validate:"required,notblank"`
	Description       string      `json:"description"`
	Slug              Slug        `json:"slug"`
	Brand             string      `json:"brand"`
	Active            *bool       `json:"active"`
	Images            []Image     `json:"images"`
	PaymentsProductID string      `json:"stripeProductId"`
	DefaultPrice      *Reference  `json:"default_price"`
	Prices            []Reference `json:"prices"`
	PaymentsPriceID   string      `json:"stripePriceId"`
	UnitAmount        *int64      `json:"unit_amount"     validate:"required,gte=0"`
	Currency          string      `json:"currency"        validate:"required,currency"`
	Product           *Reference  `json:"product"         validate:"required"`
	LastWriter        string      `json:"lastWriter"`
	Revision          int64       `json:"revision"`
}

func (d ContentDocument) active() bool {
	return d.Active == nil || *d.Active
}

// ProductDocument validates d as a product and maps it to the content model.
func (d ContentDocument) ProductDocument(c context.Context) (content.Product, error) {
	if err := validate.New().StructPartialCtx(c, d, "ID", "Name"); err != nil {
		return content.Product{}, fmt.Errorf("failed validating product document with error=%w", fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
	}

	images := make([]content.ImageRef, 0, len(d.Images))
	for _, image := range d.Images {
		if image.Asset.Ref == "" {
			continue
		}
		images = append(images, content.ImageRef{Key: image.Key, AssetID: image.Asset.Ref})
	}
	priceIDs := make([]string, 0, len(d.Prices))
	for _, price := range d.Prices {
		priceIDs = append(priceIDs, price.Ref)
	}
	product := content.Product{
		ID:                d.ID,
		PaymentsProductID: d.PaymentsProductID,
		Name:              d.Name,
		Description:       d.Description,
		Slug:              d.Slug.Current,
		Brand:             d.Brand,
		Active:            d.active(),
		Images:            images,
		PriceIDs:          priceIDs,
		LastWriter:        content.Writer(d.LastWriter),
		Revision:          d.Revision,
	}
	if d.DefaultPrice != nil {
		product.DefaultPriceID = d.DefaultPrice.Ref
	}
	return product, nil
}

// PriceDocument validates d as a price and maps it to the content model.
func (d ContentDocument) PriceDocument(c context.Context) (content.Price, error) {
	err := validate.New().StructPartialCtx(c, d, "ID", "UnitAmount", "Currency", "Product", "Product.Ref")
	if err != nil {
		return content.Price{}, fmt.Errorf("failed validating price document with error=%w", fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
	}
	return content.Price{
		ID:              d.ID,
		PaymentsPriceID: d.PaymentsPriceID,
		UnitAmount:      *d.UnitAmount,
		Currency:        d.Currency,
		ProductID:       d.Product.Ref,
		Active:          d.active(),
		LastWriter:      content.Writer(d.LastWriter),
		Revision:        d.Revision,
	}, nil
}

// ContentEvent is a content webhook delivery. Document is nil when the
// payload carried none.
type ContentEvent struct {
	Transition string
	Document   *ContentDocument
}

// ParseContentEvent accepts the wrapped format {transition, sanityDocument}
// (or "document") and the direct format where the body is the document
// itself, in which case the transition defaults to update.
func ParseContentEvent(body []byte) (ContentEvent, error) {
	var envelope struct {
		Transition     string          `json:"transition"`
		SanityDocument json.RawMessage `json:"sanityDocument"`
		Document       json.RawMessage `json:"document"`
		Type           string          `json:"_type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ContentEvent{}, fmt.Errorf("failed parsing content event with error=%w", fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
	}

	event := ContentEvent{Transition: envelope.Transition}
	raw := envelope.SanityDocument
	if isEmpty(raw) {
		raw = envelope.Document
	}
	if isEmpty(raw) && envelope.Type != "" {
		raw = body
		if event.Transition == "" {
			event.Transition = TransitionUpdate
		}
	}
	if isEmpty(raw) {
		return event, nil
	}

	document := ContentDocument{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return ContentEvent{}, fmt.Errorf("failed parsing content document with error=%w", fmt.Errorf("%w: %w", inErrors.ErrValidation, err))
	}
	event.Document = &document
	return event, nil
}

func isEmpty(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
