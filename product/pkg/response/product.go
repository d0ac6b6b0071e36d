package response

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/commercesync/internal/content"
)

type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Slug        string           `json:"slug"`
	Brand       string           `json:"brand,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	Price       string           `json:"price,omitempty"`
	// Purchasable is false until the default price is synced to payments.
	Purchasable bool `json:"purchasable"`
}

func FromView(view content.ProductView) Product {
	product := Product{
		ID:          view.ID,
		Name:        view.Name,
		Description: view.Description,
		Slug:        view.Slug,
		Brand:       view.Brand,
		ImageURL:    view.ImageURL,
		Purchasable: view.PaymentsPriceID != "",
	}
	if view.UnitAmount != nil {
		amount := content.Amount(*view.UnitAmount, view.Currency)
		product.Amount = &amount
		product.Currency = view.Currency
		product.Price = content.FormatAmount(*view.UnitAmount, view.Currency)
	}
	return product
}

func FromViews(views []content.ProductView) []Product {
	products := make([]Product, 0, len(views))
	for _, view := range views {
		products = append(products, FromView(view))
	}
	return products
}
