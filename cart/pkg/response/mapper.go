package response

import (
	"github.com/Alturino/commercesync/internal/content"
)

func itemFromLine(line content.CartLine) CartItem {
	item := CartItem{Key: line.Key, ProductID: line.ProductID, Quantity: line.Quantity}
	if line.Product == nil {
		return item
	}
	item.Name = line.Product.Name
	item.Slug = line.Product.Slug
	item.ImageURL = line.Product.ImageURL
	if line.Product.UnitAmount != nil {
		item.UnitAmount = line.Product.UnitAmount
		item.Currency = line.Product.Currency
		item.Price = content.FormatAmount(*line.Product.UnitAmount, line.Product.Currency)
	}
	return item
}

// Subtotal sums priced items. It is empty when items mix currencies or none
// is priced.
func Subtotal(items []CartItem) string {
	var (
		currency string
		minor    int64
	)
	for _, item := range items {
		if item.UnitAmount == nil {
			continue
		}
		if currency != "" && currency != item.Currency {
			return ""
		}
		currency = item.Currency
		minor += *item.UnitAmount * int64(item.Quantity)
	}
	if currency == "" {
		return ""
	}
	return content.FormatAmount(minor, currency)
}

func FromCart(cart content.Cart, lines []content.CartLine) Cart {
	items := make([]CartItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, itemFromLine(line))
	}
	return Cart{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		Subtotal:  Subtotal(items),
		UpdatedAt: cart.UpdatedAt,
	}
}
