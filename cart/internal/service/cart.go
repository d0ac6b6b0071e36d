package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/cart/internal/common/otel"
	"github.com/Alturino/commercesync/internal/config"
	"github.com/Alturino/commercesync/internal/content"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/log"
	inOtel "github.com/Alturino/commercesync/internal/otel"
	"github.com/Alturino/commercesync/internal/payments"
)

type CartStore interface {
	FindCartByUserID(c context.Context, userID string) (content.Cart, error)
	FindCart(c context.Context, id uuid.UUID) (content.Cart, error)
	EnsureCart(c context.Context, userID string) (content.Cart, error)
	IncrementCartItem(c context.Context, cartID uuid.UUID, productID string, key string) (content.CartItem, error)
	SetCartItemQuantity(c context.Context, cartID uuid.UUID, key string, quantity int32) (bool, error)
	DeleteCartItem(c context.Context, cartID uuid.UUID, key string) (bool, error)
	FindCartLines(c context.Context, cartID uuid.UUID) ([]content.CartLine, error)
	FindProductView(c context.Context, id string) (content.ProductView, error)
	InsertCheckoutSession(c context.Context, session content.CheckoutSession) (content.CheckoutSession, error)
}

type CheckoutProvider interface {
	CreateCheckoutSession(c context.Context, input payments.CheckoutInput) (payments.CheckoutSession, error)
}

// CartDetail is a cart with its lines expanded to product display fields.
type CartDetail struct {
	Cart  content.Cart
	Lines []content.CartLine
}

type CartService struct {
	store      CartStore
	provider   CheckoutProvider
	successURL string
	cancelURL  string
	newKey     func() string
}

func NewCartService(store CartStore, provider CheckoutProvider, cfg config.Payments) *CartService {
	return &CartService{
		store:      store,
		provider:   provider,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		newKey:     newItemKey,
	}
}

func newItemKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// GetCart returns nil without error when the user has no cart.
func (svc *CartService) GetCart(c context.Context, userID string) (*CartDetail, error) {
	c, span := otel.Tracer.Start(c, "CartService GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CartService GetCart").
		Str(log.KeyUserID, userID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Trace().Msg("finding cart")
	cart, err := svc.store.FindCartByUserID(c, userID)
	if errors.Is(err, inErrors.ErrNotFound) {
		logger.Trace().Msg("user has no cart")
		return nil, nil
	}
	if err != nil {
		err = fmt.Errorf("failed finding cart of user=%s with error=%w", userID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Trace().Msg("found cart")

	logger = logger.With().Str(log.KeyProcess, "expanding cart lines").Logger()
	logger.Trace().Msg("expanding cart lines")
	lines, err := svc.store.FindCartLines(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed expanding lines of cart=%s with error=%w", cart.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Trace().Int("lines", len(lines)).Msg("expanded cart lines")

	return &CartDetail{Cart: cart, Lines: lines}, nil
}

// AddItem adds one unit of productID to the user's cart, creating the cart
// on first use. An existing line for the product is incremented in place.
func (svc *CartService) AddItem(c context.Context, userID string, productID string) (content.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyUserID, userID).
		Str(log.KeyProductID, productID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Trace().Msg("finding product")
	if _, err := svc.store.FindProductView(c, productID); err != nil {
		err = fmt.Errorf("failed finding product=%s with error=%w", productID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return content.Cart{}, err
	}
	logger.Trace().Msg("found product")

	logger = logger.With().Str(log.KeyProcess, "ensuring cart").Logger()
	logger.Trace().Msg("ensuring cart")
	cart, err := svc.store.EnsureCart(c, userID)
	if err != nil {
		err = fmt.Errorf("failed ensuring cart of user=%s with error=%w", userID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return content.Cart{}, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Trace().Msg("ensured cart")

	logger = logger.With().Str(log.KeyProcess, "incrementing cart item").Logger()
	logger.Trace().Msg("incrementing cart item")
	item, err := svc.store.IncrementCartItem(c, cart.ID, productID, svc.newKey())
	if err != nil {
		err = fmt.Errorf("failed adding product=%s to cart=%s with error=%w", productID, cart.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return content.Cart{}, err
	}
	logger.Info().
		Str(log.KeyCartItemKey, item.Key).
		Int32(log.KeyQuantity, item.Quantity).
		Msg("added item to cart")

	return svc.store.FindCart(c, cart.ID)
}

// UpdateQuantity sets the quantity of the line key. Zero removes the line and
// an unknown key is a no-op.
func (svc *CartService) UpdateQuantity(c context.Context, cartID uuid.UUID, key string, quantity int) error {
	c, span := otel.Tracer.Start(c, "CartService UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CartService UpdateQuantity").
		Str(log.KeyCartID, cartID.String()).
		Str(log.KeyCartItemKey, key).
		Int(log.KeyQuantity, quantity).
		Logger()
	c = logger.WithContext(c)

	if quantity < 0 || quantity > content.MaxQuantity {
		err := fmt.Errorf("failed updating quantity=%d with error=%w", quantity, inErrors.ErrValidation)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if quantity == 0 {
		logger.Trace().Msg("quantity is zero removing item")
		return svc.RemoveItem(c, cartID, key)
	}

	logger = logger.With().Str(log.KeyProcess, "setting quantity").Logger()
	logger.Trace().Msg("setting quantity")
	found, err := svc.store.SetCartItemQuantity(c, cartID, key, int32(quantity))
	if err != nil {
		err = fmt.Errorf("failed setting quantity of item=%s with error=%w", key, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if !found {
		logger.Info().Msg("item not in cart nothing to update")
		return nil
	}
	logger.Info().Msg("updated quantity")
	return nil
}

func (svc *CartService) RemoveItem(c context.Context, cartID uuid.UUID, key string) error {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyCartID, cartID.String()).
		Str(log.KeyCartItemKey, key).
		Logger()

	logger.Trace().Msg("removing item")
	found, err := svc.store.DeleteCartItem(c, cartID, key)
	if err != nil {
		err = fmt.Errorf("failed removing item=%s with error=%w", key, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Bool("found", found).Msg("removed item")
	return nil
}

func (svc *CartService) createSession(
	c context.Context,
	cartID uuid.UUID,
	lines []payments.CheckoutLine,
) (string, error) {
	c, span := otel.Tracer.Start(c, "CartService createSession")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CartService createSession").
		Int(log.KeyLineItems, len(lines)).
		Logger()

	metadata := map[string]string{}
	if cartID != uuid.Nil {
		metadata[content.MetadataCartID] = cartID.String()
	}

	logger = logger.With().Str(log.KeyProcess, "creating checkout session").Logger()
	logger.Trace().Msg("creating checkout session")
	session, err := svc.provider.CreateCheckoutSession(c, payments.CheckoutInput{
		Lines:      lines,
		SuccessURL: svc.successURL,
		CancelURL:  svc.cancelURL,
		Metadata:   metadata,
	})
	if err != nil {
		err = fmt.Errorf("failed creating checkout session with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger = logger.With().Str(log.KeySessionID, session.ID).Logger()
	logger.Info().Msg("created checkout session")

	logger = logger.With().Str(log.KeyProcess, "recording checkout session").Logger()
	logger.Trace().Msg("recording checkout session")
	_, err = svc.store.InsertCheckoutSession(c, content.CheckoutSession{
		ID:     session.ID,
		CartID: cartID,
		Status: content.CheckoutPending,
		URL:    session.URL,
	})
	if err != nil {
		err = fmt.Errorf("failed recording checkout session=%s with error=%w", session.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Msg("recorded checkout session")

	return session.URL, nil
}

// Checkout opens a payments checkout session for the purchasable lines of
// cartID and returns its URL. Lines whose product has no payments price are
// left out.
func (svc *CartService) Checkout(c context.Context, cartID uuid.UUID) (string, error) {
	c, span := otel.Tracer.Start(c, "CartService Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CartService Checkout").
		Str(log.KeyCartID, cartID.String()).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "finding cart lines").Logger()
	logger.Trace().Msg("finding cart lines")
	lines, err := svc.store.FindCartLines(c, cartID)
	if err != nil {
		err = fmt.Errorf("failed finding lines of cart=%s with error=%w", cartID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}

	checkoutLines := make([]payments.CheckoutLine, 0, len(lines))
	for _, line := range lines {
		if line.Product == nil || line.Product.PaymentsPriceID == "" {
			logger.Warn().
				Str(log.KeyCartItemKey, line.Key).
				Str(log.KeyProductID, line.ProductID).
				Msg("product has no payments price dropping line")
			continue
		}
		checkoutLines = append(checkoutLines, payments.CheckoutLine{
			PriceID:  line.Product.PaymentsPriceID,
			Quantity: int64(line.Quantity),
		})
	}
	if len(checkoutLines) == 0 {
		err = fmt.Errorf("failed checking out cart=%s with error=%w", cartID, inErrors.ErrCartEmpty)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Int(log.KeyLineItems, len(checkoutLines)).Msg("found cart lines")

	url, err := svc.createSession(c, cartID, checkoutLines)
	if err != nil {
		return "", err
	}
	logger.Info().Str(log.KeyCheckoutURL, url).Msg("checked out cart")
	return url, nil
}

// BuyNow opens a checkout session for a single unit of productID, bypassing
// the cart.
func (svc *CartService) BuyNow(c context.Context, productID string) (string, error) {
	c, span := otel.Tracer.Start(c, "CartService BuyNow")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "CartService BuyNow").
		Str(log.KeyProductID, productID).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Trace().Msg("finding product")
	product, err := svc.store.FindProductView(c, productID)
	if err != nil {
		err = fmt.Errorf("failed finding product=%s with error=%w", productID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	if product.PaymentsPriceID == "" {
		err = fmt.Errorf("failed buying product=%s with error=%w", productID, inErrors.ErrProductNotSynced)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	logger.Trace().Str(log.KeyPriceID, product.PaymentsPriceID).Msg("found product")

	return svc.createSession(c, uuid.Nil, []payments.CheckoutLine{{PriceID: product.PaymentsPriceID, Quantity: 1}})
}

// CartBelongsTo fails with errors.ErrCartNotOwned unless cartID is userID's.
func (svc *CartService) CartBelongsTo(c context.Context, cartID uuid.UUID, userID string) error {
	c, span := otel.Tracer.Start(c, "CartService CartBelongsTo")
	defer span.End()

	cart, err := svc.store.FindCart(c, cartID)
	if err != nil {
		err = fmt.Errorf("failed finding cart=%s with error=%w", cartID, err)
		inOtel.RecordError(err, span)
		return err
	}
	if cart.UserID != userID {
		err = fmt.Errorf("failed accessing cart=%s with error=%w", cartID, inErrors.ErrCartNotOwned)
		inOtel.RecordError(err, span)
		return err
	}
	return nil
}
