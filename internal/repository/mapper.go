package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Alturino/commercesync/internal/content"
)

func (p Product) Content() (content.Product, error) {
	images := []content.ImageRef{}
	if len(p.Images) > 0 {
		if err := json.Unmarshal(p.Images, &images); err != nil {
			return content.Product{}, fmt.Errorf("failed decoding images of product=%s with error=%w", p.ID, err)
		}
	}
	priceIDs := p.PriceIds
	if priceIDs == nil {
		priceIDs = []string{}
	}
	return content.Product{
		ID:                     p.ID,
		PaymentsProductID:      p.PaymentsProductID.String,
		Name:                   p.Name,
		Description:            p.Description,
		Slug:                   p.Slug,
		Brand:                  p.Brand,
		Active:                 p.Active,
		Images:                 images,
		DefaultPriceID:         p.DefaultPriceID.String,
		PriceIDs:               priceIDs,
		PendingPaymentsPriceID: p.PendingPaymentsPriceID.String,
		DeletedAt:              timeFrom(p.DeletedAt),
		LastWriter:             content.Writer(p.LastWriter),
		Revision:               p.Revision,
		CreatedAt:              p.CreatedAt.Time,
		UpdatedAt:              p.UpdatedAt.Time,
	}, nil
}

func (p Price) Content() content.Price {
	return content.Price{
		ID:              p.ID,
		PaymentsPriceID: p.PaymentsPriceID.String,
		UnitAmount:      p.UnitAmount,
		Currency:        p.Currency,
		ProductID:       p.ProductID,
		Active:          p.Active,
		DeletedAt:       timeFrom(p.DeletedAt),
		LastWriter:      content.Writer(p.LastWriter),
		Revision:        p.Revision,
		CreatedAt:       p.CreatedAt.Time,
		UpdatedAt:       p.UpdatedAt.Time,
	}
}

func (a ImageAsset) Content() content.ImageAsset {
	return content.ImageAsset{ID: a.ID, AssetID: a.AssetID, URL: a.Url}
}

func (r ProductViewRow) View() content.ProductView {
	return content.ProductView{
		ID:                r.ID,
		PaymentsProductID: r.PaymentsProductID.String,
		Name:              r.Name,
		Description:       r.Description,
		Slug:              r.Slug,
		Brand:             r.Brand,
		ImageURL:          r.ImageUrl.String,
		UnitAmount:        int64From(r.UnitAmount),
		Currency:          r.Currency.String,
		PaymentsPriceID:   r.PaymentsPriceID.String,
	}
}

func (r FindCartLinesRow) Line() content.CartLine {
	line := content.CartLine{
		CartItem: content.CartItem{Key: r.Key, ProductID: r.ProductID, Quantity: r.Quantity},
	}
	if !r.ProductFound {
		return line
	}
	line.Product = &content.ProductView{
		ID:                r.ProductID,
		PaymentsProductID: r.PaymentsProductID.String,
		Name:              r.Name.String,
		Description:       r.Description.String,
		Slug:              r.Slug.String,
		Brand:             r.Brand.String,
		ImageURL:          r.ImageUrl.String,
		UnitAmount:        int64From(r.UnitAmount),
		Currency:          r.Currency.String,
		PaymentsPriceID:   r.PaymentsPriceID.String,
	}
	return line
}

func (c Cart) Content(items []CartItem) content.Cart {
	cart := content.Cart{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     make([]content.CartItem, 0, len(items)),
		CreatedAt: c.CreatedAt.Time,
		UpdatedAt: c.UpdatedAt.Time,
	}
	for _, item := range items {
		cart.Items = append(cart.Items, item.Content())
	}
	return cart
}

func (i CartItem) Content() content.CartItem {
	return content.CartItem{Key: i.Key, ProductID: i.ProductID, Quantity: i.Quantity}
}

func (s CheckoutSession) Content() content.CheckoutSession {
	session := content.CheckoutSession{
		ID:        s.ID,
		Status:    content.CheckoutStatus(s.Status),
		URL:       s.Url,
		CreatedAt: s.CreatedAt.Time,
		UpdatedAt: s.UpdatedAt.Time,
	}
	if s.CartID != nil {
		session.CartID = *s.CartID
	}
	return session
}

func textFrom(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func timestamptzFrom(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func timeFrom(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func int64From(i pgtype.Int8) *int64 {
	if !i.Valid {
		return nil
	}
	v := i.Int64
	return &v
}
