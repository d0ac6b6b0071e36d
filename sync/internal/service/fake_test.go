package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/payments"
)

type fakeStore struct {
	mu       sync.Mutex
	products map[string]content.Product
	prices   map[string]content.Price
	assets   map[string]content.ImageAsset
	sessions map[string]content.CheckoutStatus
	writes   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[string]content.Product{},
		prices:   map[string]content.Price{},
		assets:   map[string]content.ImageAsset{},
		sessions: map[string]content.CheckoutStatus{},
	}
}

func notFound(kind string, id string) error {
	return fmt.Errorf("%s=%s %w", kind, id, inErrors.ErrNotFound)
}

func (s *fakeStore) FindProduct(_ context.Context, id string) (content.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return content.Product{}, notFound("product", id)
	}
	return p, nil
}

func (s *fakeStore) FindProductByPaymentsID(_ context.Context, paymentsProductID string) (content.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.PaymentsProductID == paymentsProductID {
			return p, nil
		}
	}
	return content.Product{}, notFound("payments product", paymentsProductID)
}

func (s *fakeStore) FindProductsPendingPrice(_ context.Context, paymentsPriceID string) ([]content.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pending []content.Product
	for _, p := range s.products {
		if p.PendingPaymentsPriceID == paymentsPriceID {
			pending = append(pending, p)
		}
	}
	return pending, nil
}

func (s *fakeStore) SaveProduct(_ context.Context, p content.Product) (content.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Revision = s.products[p.ID].Revision + 1
	p.PriceIDs = slices.Clone(p.PriceIDs)
	s.products[p.ID] = p
	s.writes++
	return p, nil
}

func (s *fakeStore) SetProductPaymentsID(
	_ context.Context,
	id string,
	paymentsProductID string,
	writer content.Writer,
) (content.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return content.Product{}, notFound("product", id)
	}
	p.PaymentsProductID = paymentsProductID
	p.LastWriter = writer
	p.Revision++
	s.products[id] = p
	s.writes++
	return p, nil
}

func (s *fakeStore) SetProductPrices(_ context.Context, update content.Product) (content.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[update.ID]
	if !ok {
		return content.Product{}, notFound("product", update.ID)
	}
	p.PriceIDs = slices.Clone(update.PriceIDs)
	p.DefaultPriceID = update.DefaultPriceID
	p.PendingPaymentsPriceID = update.PendingPaymentsPriceID
	p.LastWriter = update.LastWriter
	p.Revision++
	s.products[p.ID] = p
	s.writes++
	return p, nil
}

func (s *fakeStore) SoftDeleteProduct(_ context.Context, id string, writer content.Writer) (content.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return content.Product{}, notFound("product", id)
	}
	now := time.Now()
	p.DeletedAt = &now
	p.Active = false
	p.LastWriter = writer
	p.Revision++
	s.products[id] = p
	s.writes++
	return p, nil
}

func (s *fakeStore) FindPrice(_ context.Context, id string) (content.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[id]
	if !ok {
		return content.Price{}, notFound("price", id)
	}
	return p, nil
}

func (s *fakeStore) FindPriceByPaymentsID(_ context.Context, paymentsPriceID string) (content.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.prices {
		if p.PaymentsPriceID == paymentsPriceID {
			return p, nil
		}
	}
	return content.Price{}, notFound("payments price", paymentsPriceID)
}

func (s *fakeStore) SavePrice(_ context.Context, p content.Price) (content.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Revision = s.prices[p.ID].Revision + 1
	s.prices[p.ID] = p
	s.writes++
	return p, nil
}

func (s *fakeStore) SetPricePaymentsID(
	_ context.Context,
	id string,
	paymentsPriceID string,
	writer content.Writer,
) (content.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[id]
	if !ok {
		return content.Price{}, notFound("price", id)
	}
	p.PaymentsPriceID = paymentsPriceID
	p.LastWriter = writer
	p.Revision++
	s.prices[id] = p
	s.writes++
	return p, nil
}

func (s *fakeStore) SoftDeletePrice(_ context.Context, id string, writer content.Writer) (content.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prices[id]
	if !ok {
		return content.Price{}, notFound("price", id)
	}
	now := time.Now()
	p.DeletedAt = &now
	p.Active = false
	p.LastWriter = writer
	p.Revision++
	s.prices[id] = p
	s.writes++
	return p, nil
}

func (s *fakeStore) FindImageAssetByURL(_ context.Context, url string) (content.ImageAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assets {
		if a.URL == url {
			return a, nil
		}
	}
	return content.ImageAsset{}, notFound("image asset", url)
}

func (s *fakeStore) FindImageAsset(_ context.Context, id string) (content.ImageAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return content.ImageAsset{}, notFound("image asset", id)
	}
	return a, nil
}

func (s *fakeStore) UpdateCheckoutSessionStatus(
	_ context.Context,
	id string,
	status content.CheckoutStatus,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	s.sessions[id] = status
	return true, nil
}

type archived struct {
	id       string
	metadata map[string]string
}

type fakeProvider struct {
	products        map[string]payments.ProductInput
	prices          map[string]payments.Price
	updatedProducts []string
	updatedPrices   []payments.PriceUpdate
	archivedProduct []archived
	archivedPrices  []archived
	defaults        map[string]string
	calls           []string
	seq             int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		products: map[string]payments.ProductInput{},
		prices:   map[string]payments.Price{},
		defaults: map[string]string{},
	}
}

func (p *fakeProvider) next(prefix string) string {
	p.seq++
	return fmt.Sprintf("%s_%d", prefix, p.seq)
}

func (p *fakeProvider) CreateProduct(_ context.Context, input payments.ProductInput) (payments.Product, error) {
	p.calls = append(p.calls, "CreateProduct")
	id := p.next("prod")
	p.products[id] = input
	return payments.Product{ID: id, Name: input.Name, Active: input.Active, Metadata: input.Metadata}, nil
}

func (p *fakeProvider) UpdateProduct(_ context.Context, id string, input payments.ProductInput) (payments.Product, error) {
	p.calls = append(p.calls, "UpdateProduct")
	p.products[id] = input
	p.updatedProducts = append(p.updatedProducts, id)
	return payments.Product{ID: id, Name: input.Name, Active: input.Active, Metadata: input.Metadata}, nil
}

func (p *fakeProvider) ArchiveProduct(_ context.Context, id string, metadata map[string]string) error {
	p.calls = append(p.calls, "ArchiveProduct")
	p.archivedProduct = append(p.archivedProduct, archived{id: id, metadata: metadata})
	return nil
}

func (p *fakeProvider) SetDefaultPrice(_ context.Context, productID string, priceID string) error {
	p.calls = append(p.calls, "SetDefaultPrice")
	p.defaults[productID] = priceID
	return nil
}

func (p *fakeProvider) GetPrice(_ context.Context, id string) (payments.Price, error) {
	p.calls = append(p.calls, "GetPrice")
	price, ok := p.prices[id]
	if !ok {
		return payments.Price{}, notFound("payments price", id)
	}
	return price, nil
}

func (p *fakeProvider) CreatePrice(_ context.Context, input payments.PriceInput) (payments.Price, error) {
	p.calls = append(p.calls, "CreatePrice")
	price := payments.Price{
		ID:         p.next("price"),
		ProductID:  input.ProductID,
		UnitAmount: input.UnitAmount,
		Currency:   input.Currency,
		Active:     input.Active,
		Metadata:   input.Metadata,
	}
	p.prices[price.ID] = price
	return price, nil
}

func (p *fakeProvider) UpdatePrice(_ context.Context, id string, update payments.PriceUpdate) (payments.Price, error) {
	p.calls = append(p.calls, "UpdatePrice")
	p.updatedPrices = append(p.updatedPrices, update)
	price := p.prices[id]
	price.Active = update.Active
	price.Metadata = update.Metadata
	p.prices[id] = price
	return price, nil
}

func (p *fakeProvider) ArchivePrice(_ context.Context, id string, metadata map[string]string) error {
	p.calls = append(p.calls, "ArchivePrice")
	p.archivedPrices = append(p.archivedPrices, archived{id: id, metadata: metadata})
	price := p.prices[id]
	price.Active = false
	p.prices[id] = price
	return nil
}

type fakeCache struct {
	tags [][]string
	err  error
}

func (f *fakeCache) Invalidate(_ context.Context, tags ...string) error {
	f.tags = append(f.tags, tags)
	return f.err
}
