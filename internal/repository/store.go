package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
)

// Store is the content store: queries mapped to content documents, with
// pgx.ErrNoRows reported as errors.ErrNotFound.
type Store struct {
	queries *Queries
}

func NewStore(db DBTX) *Store {
	return &Store{queries: New(db)}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %w", fmt.Sprintf(format, args...), inErrors.ErrNotFound)
	}
	return fmt.Errorf("failed %s with error=%w", fmt.Sprintf(format, args...), err)
}

func (s *Store) FindProduct(c context.Context, id string) (content.Product, error) {
	product, err := s.queries.FindProductById(c, id)
	if err != nil {
		return content.Product{}, notFound(err, "finding product id=%s", id)
	}
	return product.Content()
}

func (s *Store) FindProductByPaymentsID(c context.Context, paymentsProductID string) (content.Product, error) {
	product, err := s.queries.FindProductByPaymentsId(c, paymentsProductID)
	if err != nil {
		return content.Product{}, notFound(err, "finding product paymentsId=%s", paymentsProductID)
	}
	return product.Content()
}

func (s *Store) FindProductsPendingPrice(c context.Context, paymentsPriceID string) ([]content.Product, error) {
	rows, err := s.queries.FindProductsByPendingPrice(c, paymentsPriceID)
	if err != nil {
		return nil, fmt.Errorf("failed finding products pending price=%s with error=%w", paymentsPriceID, err)
	}
	products := make([]content.Product, 0, len(rows))
	for _, row := range rows {
		product, err := row.Content()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

// SaveProduct upserts the document by id. Revision and timestamps are
// assigned by the store.
func (s *Store) SaveProduct(c context.Context, p content.Product) (content.Product, error) {
	images := p.Images
	if images == nil {
		images = []content.ImageRef{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return content.Product{}, fmt.Errorf("failed encoding images of product=%s with error=%w", p.ID, err)
	}
	priceIDs := p.PriceIDs
	if priceIDs == nil {
		priceIDs = []string{}
	}

	product, err := s.queries.UpsertProduct(c, UpsertProductParams{
		ID:                     p.ID,
		PaymentsProductID:      textFrom(p.PaymentsProductID),
		Name:                   p.Name,
		Description:            p.Description,
		Slug:                   p.Slug,
		Brand:                  p.Brand,
		Active:                 p.Active,
		Images:                 encoded,
		DefaultPriceID:         textFrom(p.DefaultPriceID),
		PriceIds:               priceIDs,
		PendingPaymentsPriceID: textFrom(p.PendingPaymentsPriceID),
		DeletedAt:              timestamptzFrom(p.DeletedAt),
		LastWriter:             string(p.LastWriter),
	})
	if err != nil {
		return content.Product{}, fmt.Errorf("failed saving product=%s with error=%w", p.ID, err)
	}
	return product.Content()
}

func (s *Store) SetProductPaymentsID(
	c context.Context,
	id string,
	paymentsProductID string,
	writer content.Writer,
) (content.Product, error) {
	product, err := s.queries.UpdateProductPaymentsId(c, UpdateProductPaymentsIdParams{
		ID:                id,
		PaymentsProductID: textFrom(paymentsProductID),
		LastWriter:        string(writer),
	})
	if err != nil {
		return content.Product{}, notFound(err, "setting paymentsId of product=%s", id)
	}
	return product.Content()
}

// SetProductPrices writes the price references of p: default, list and
// pending payments price.
func (s *Store) SetProductPrices(c context.Context, p content.Product) (content.Product, error) {
	priceIDs := p.PriceIDs
	if priceIDs == nil {
		priceIDs = []string{}
	}
	product, err := s.queries.UpdateProductPrices(c, UpdateProductPricesParams{
		ID:                     p.ID,
		DefaultPriceID:         textFrom(p.DefaultPriceID),
		PriceIds:               priceIDs,
		PendingPaymentsPriceID: textFrom(p.PendingPaymentsPriceID),
		LastWriter:             string(p.LastWriter),
	})
	if err != nil {
		return content.Product{}, notFound(err, "setting prices of product=%s", p.ID)
	}
	return product.Content()
}

func (s *Store) SoftDeleteProduct(c context.Context, id string, writer content.Writer) (content.Product, error) {
	product, err := s.queries.SoftDeleteProduct(c, id, string(writer))
	if err != nil {
		return content.Product{}, notFound(err, "deleting product=%s", id)
	}
	return product.Content()
}

func (s *Store) FindPrice(c context.Context, id string) (content.Price, error) {
	price, err := s.queries.FindPriceById(c, id)
	if err != nil {
		return content.Price{}, notFound(err, "finding price id=%s", id)
	}
	return price.Content(), nil
}

func (s *Store) FindPriceByPaymentsID(c context.Context, paymentsPriceID string) (content.Price, error) {
	price, err := s.queries.FindPriceByPaymentsId(c, paymentsPriceID)
	if err != nil {
		return content.Price{}, notFound(err, "finding price paymentsId=%s", paymentsPriceID)
	}
	return price.Content(), nil
}

func (s *Store) SavePrice(c context.Context, p content.Price) (content.Price, error) {
	price, err := s.queries.UpsertPrice(c, UpsertPriceParams{
		ID:              p.ID,
		PaymentsPriceID: textFrom(p.PaymentsPriceID),
		UnitAmount:      p.UnitAmount,
		Currency:        p.Currency,
		ProductID:       p.ProductID,
		Active:          p.Active,
		DeletedAt:       timestamptzFrom(p.DeletedAt),
		LastWriter:      string(p.LastWriter),
	})
	if err != nil {
		return content.Price{}, fmt.Errorf("failed saving price=%s with error=%w", p.ID, err)
	}
	return price.Content(), nil
}

func (s *Store) SetPricePaymentsID(
	c context.Context,
	id string,
	paymentsPriceID string,
	writer content.Writer,
) (content.Price, error) {
	price, err := s.queries.UpdatePricePaymentsId(c, UpdatePricePaymentsIdParams{
		ID:              id,
		PaymentsPriceID: textFrom(paymentsPriceID),
		LastWriter:      string(writer),
	})
	if err != nil {
		return content.Price{}, notFound(err, "setting paymentsId of price=%s", id)
	}
	return price.Content(), nil
}

func (s *Store) SoftDeletePrice(c context.Context, id string, writer content.Writer) (content.Price, error) {
	price, err := s.queries.SoftDeletePrice(c, id, string(writer))
	if err != nil {
		return content.Price{}, notFound(err, "deleting price=%s", id)
	}
	return price.Content(), nil
}

func (s *Store) FindImageAssetByURL(c context.Context, url string) (content.ImageAsset, error) {
	asset, err := s.queries.FindImageAssetByUrl(c, url)
	if err != nil {
		return content.ImageAsset{}, notFound(err, "finding image asset url=%s", url)
	}
	return asset.Content(), nil
}

func (s *Store) FindImageAsset(c context.Context, id string) (content.ImageAsset, error) {
	asset, err := s.queries.FindImageAssetById(c, id)
	if err != nil {
		return content.ImageAsset{}, notFound(err, "finding image asset id=%s", id)
	}
	return asset.Content(), nil
}

func (s *Store) FindActiveProducts(c context.Context) ([]content.ProductView, error) {
	rows, err := s.queries.FindActiveProducts(c)
	if err != nil {
		return nil, fmt.Errorf("failed finding active products with error=%w", err)
	}
	views := make([]content.ProductView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.View())
	}
	return views, nil
}

func (s *Store) FindProductViewBySlug(c context.Context, slug string) (content.ProductView, error) {
	row, err := s.queries.FindProductViewBySlug(c, slug)
	if err != nil {
		return content.ProductView{}, notFound(err, "finding product slug=%s", slug)
	}
	return row.View(), nil
}

func (s *Store) FindProductView(c context.Context, id string) (content.ProductView, error) {
	row, err := s.queries.FindProductViewById(c, id)
	if err != nil {
		return content.ProductView{}, notFound(err, "finding product id=%s", id)
	}
	return row.View(), nil
}

func (s *Store) FindCartByUserID(c context.Context, userID string) (content.Cart, error) {
	cart, err := s.queries.FindCartByUserId(c, userID)
	if err != nil {
		return content.Cart{}, notFound(err, "finding cart of user=%s", userID)
	}
	items, err := s.queries.FindCartItems(c, cart.ID)
	if err != nil {
		return content.Cart{}, fmt.Errorf("failed finding items of cart=%s with error=%w", cart.ID, err)
	}
	return cart.Content(items), nil
}

func (s *Store) FindCart(c context.Context, id uuid.UUID) (content.Cart, error) {
	cart, err := s.queries.FindCartById(c, id)
	if err != nil {
		return content.Cart{}, notFound(err, "finding cart=%s", id)
	}
	items, err := s.queries.FindCartItems(c, cart.ID)
	if err != nil {
		return content.Cart{}, fmt.Errorf("failed finding items of cart=%s with error=%w", cart.ID, err)
	}
	return cart.Content(items), nil
}

// EnsureCart returns the cart of userID, creating an empty one when the user
// has none.
func (s *Store) EnsureCart(c context.Context, userID string) (content.Cart, error) {
	cart, err := s.queries.UpsertCart(c, userID)
	if err != nil {
		return content.Cart{}, fmt.Errorf("failed ensuring cart of user=%s with error=%w", userID, err)
	}
	return cart.Content(nil), nil
}

func (s *Store) IncrementCartItem(
	c context.Context,
	cartID uuid.UUID,
	productID string,
	key string,
) (content.CartItem, error) {
	item, err := s.queries.IncrementCartItem(c, IncrementCartItemParams{
		CartID:    cartID,
		Key:       key,
		ProductID: productID,
	})
	if err != nil {
		return content.CartItem{}, fmt.Errorf("failed incrementing product=%s in cart=%s with error=%w", productID, cartID, err)
	}
	if err = s.queries.TouchCart(c, cartID); err != nil {
		return content.CartItem{}, fmt.Errorf("failed touching cart=%s with error=%w", cartID, err)
	}
	return item.Content(), nil
}

// SetCartItemQuantity reports whether a line with key existed.
func (s *Store) SetCartItemQuantity(c context.Context, cartID uuid.UUID, key string, quantity int32) (bool, error) {
	affected, err := s.queries.SetCartItemQuantity(c, SetCartItemQuantityParams{
		CartID:   cartID,
		Key:      key,
		Quantity: quantity,
	})
	if err != nil {
		return false, fmt.Errorf("failed setting quantity of item=%s in cart=%s with error=%w", key, cartID, err)
	}
	return affected > 0, nil
}

func (s *Store) DeleteCartItem(c context.Context, cartID uuid.UUID, key string) (bool, error) {
	affected, err := s.queries.DeleteCartItem(c, cartID, key)
	if err != nil {
		return false, fmt.Errorf("failed deleting item=%s in cart=%s with error=%w", key, cartID, err)
	}
	return affected > 0, nil
}

func (s *Store) FindCartLines(c context.Context, cartID uuid.UUID) ([]content.CartLine, error) {
	rows, err := s.queries.FindCartLines(c, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed finding lines of cart=%s with error=%w", cartID, err)
	}
	lines := make([]content.CartLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, row.Line())
	}
	return lines, nil
}

func (s *Store) InsertCheckoutSession(c context.Context, session content.CheckoutSession) (content.CheckoutSession, error) {
	var cartID *uuid.UUID
	if session.CartID != uuid.Nil {
		cartID = &session.CartID
	}
	inserted, err := s.queries.InsertCheckoutSession(c, InsertCheckoutSessionParams{
		ID:     session.ID,
		CartID: cartID,
		Status: string(session.Status),
		Url:    session.URL,
	})
	if err != nil {
		return content.CheckoutSession{}, fmt.Errorf("failed inserting checkout session=%s with error=%w", session.ID, err)
	}
	return inserted.Content(), nil
}

func (s *Store) FindCheckoutSession(c context.Context, id string) (content.CheckoutSession, error) {
	session, err := s.queries.FindCheckoutSessionById(c, id)
	if err != nil {
		return content.CheckoutSession{}, notFound(err, "finding checkout session=%s", id)
	}
	return session.Content(), nil
}

// UpdateCheckoutSessionStatus reports whether the session was known.
func (s *Store) UpdateCheckoutSessionStatus(c context.Context, id string, status content.CheckoutStatus) (bool, error) {
	affected, err := s.queries.UpdateCheckoutSessionStatus(c, id, string(status))
	if err != nil {
		return false, fmt.Errorf("failed updating checkout session=%s with error=%w", id, err)
	}
	return affected > 0, nil
}

func (s *Store) InsertImageAsset(c context.Context, asset content.ImageAsset) (content.ImageAsset, error) {
	inserted, err := s.queries.InsertImageAsset(c, InsertImageAssetParams{
		ID:      asset.ID,
		AssetID: asset.AssetID,
		Url:     asset.URL,
	})
	if err != nil {
		return content.ImageAsset{}, fmt.Errorf("failed inserting image asset=%s with error=%w", asset.ID, err)
	}
	return inserted.Content(), nil
}
