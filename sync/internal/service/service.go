package service

import (
	"context"

	"github.com/Alturino/commercesync/internal/content"
	"github.com/Alturino/commercesync/internal/payments"
)

type ContentStore interface {
	FindProduct(c context.Context, id string) (content.Product, error)
	FindProductByPaymentsID(c context.Context, paymentsProductID string) (content.Product, error)
	FindProductsPendingPrice(c context.Context, paymentsPriceID string) ([]content.Product, error)
	SaveProduct(c context.Context, p content.Product) (content.Product, error)
	SetProductPaymentsID(c context.Context, id string, paymentsProductID string, writer content.Writer) (content.Product, error)
	SetProductPrices(c context.Context, p content.Product) (content.Product, error)
	SoftDeleteProduct(c context.Context, id string, writer content.Writer) (content.Product, error)

	FindPrice(c context.Context, id string) (content.Price, error)
	FindPriceByPaymentsID(c context.Context, paymentsPriceID string) (content.Price, error)
	SavePrice(c context.Context, p content.Price) (content.Price, error)
	SetPricePaymentsID(c context.Context, id string, paymentsPriceID string, writer content.Writer) (content.Price, error)
	SoftDeletePrice(c context.Context, id string, writer content.Writer) (content.Price, error)

	FindImageAssetByURL(c context.Context, url string) (content.ImageAsset, error)
	FindImageAsset(c context.Context, id string) (content.ImageAsset, error)

	UpdateCheckoutSessionStatus(c context.Context, id string, status content.CheckoutStatus) (bool, error)
}

type PaymentsProvider interface {
	CreateProduct(c context.Context, input payments.ProductInput) (payments.Product, error)
	UpdateProduct(c context.Context, id string, input payments.ProductInput) (payments.Product, error)
	ArchiveProduct(c context.Context, id string, metadata map[string]string) error
	SetDefaultPrice(c context.Context, productID string, priceID string) error
	GetPrice(c context.Context, id string) (payments.Price, error)
	CreatePrice(c context.Context, input payments.PriceInput) (payments.Price, error)
	UpdatePrice(c context.Context, id string, update payments.PriceUpdate) (payments.Price, error)
	ArchivePrice(c context.Context, id string, metadata map[string]string) error
}

type CacheInvalidator interface {
	Invalidate(c context.Context, tags ...string) error
}
