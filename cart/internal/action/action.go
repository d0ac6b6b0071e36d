// Package action is the callable boundary of the cart service. Every method
// reports failures in the result's Error field and never returns an error.
package action

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/cart/internal/common/otel"
	"github.com/Alturino/commercesync/cart/internal/service"
	"github.com/Alturino/commercesync/cart/pkg/request"
	"github.com/Alturino/commercesync/cart/pkg/response"
	"github.com/Alturino/commercesync/internal/common/validate"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/log"
	inOtel "github.com/Alturino/commercesync/internal/otel"
)

// Result carries the failure message of an action. Status is the HTTP
// status the failure maps to.
type Result struct {
	Error  string `json:"error,omitempty"`
	Status int    `json:"-"`
}

func (r Result) Failed() bool { return r.Error != "" }

type CartResult struct {
	Result
	Cart *response.Cart `json:"cart"`
}

type CheckoutResult struct {
	Result
	URL string `json:"url,omitempty"`
}

type Actions struct {
	service *service.CartService
}

func New(service *service.CartService) *Actions {
	return &Actions{service: service}
}

// failure maps err to a result. Messages of unexpected failures are replaced
// by fallback so internals never reach the caller.
func failure(c context.Context, err error, fallback string) Result {
	logger := zerolog.Ctx(c)
	logger.Error().Err(err).Msg(err.Error())

	switch {
	case errors.Is(err, inErrors.ErrValidation):
		return Result{Error: err.Error(), Status: http.StatusBadRequest}
	case errors.Is(err, inErrors.ErrCartEmpty):
		return Result{Error: inErrors.ErrCartEmpty.Error(), Status: http.StatusUnprocessableEntity}
	case errors.Is(err, inErrors.ErrCartNotOwned):
		return Result{Error: inErrors.ErrCartNotOwned.Error(), Status: http.StatusForbidden}
	case errors.Is(err, inErrors.ErrNotFound):
		return Result{Error: "not found", Status: http.StatusNotFound}
	case errors.Is(err, inErrors.ErrProductNotSynced):
		return Result{Error: "product is not available for purchase", Status: http.StatusConflict}
	default:
		return Result{Error: fallback, Status: http.StatusInternalServerError}
	}
}

func validationFailure(c context.Context, err error) Result {
	return failure(c, fmt.Errorf("%w: %w", inErrors.ErrValidation, err), "")
}

func (a *Actions) GetCart(c context.Context, userID string) CartResult {
	c, span := otel.Tracer.Start(c, "Actions GetCart")
	defer span.End()

	c = zerolog.Ctx(c).With().Str(log.KeyTag, "Actions GetCart").Logger().WithContext(c)
	detail, err := a.service.GetCart(c, userID)
	if err != nil {
		inOtel.RecordError(err, span)
		return CartResult{Result: failure(c, err, "failed to get cart")}
	}
	if detail == nil {
		return CartResult{}
	}
	cart := response.FromCart(detail.Cart, detail.Lines)
	return CartResult{Cart: &cart}
}

func (a *Actions) AddToCart(c context.Context, userID string, req request.AddItem) CartResult {
	c, span := otel.Tracer.Start(c, "Actions AddToCart")
	defer span.End()

	c = zerolog.Ctx(c).With().Str(log.KeyTag, "Actions AddToCart").Logger().WithContext(c)
	if err := validate.New().StructCtx(c, req); err != nil {
		inOtel.RecordError(err, span)
		return CartResult{Result: validationFailure(c, err)}
	}
	if _, err := a.service.AddItem(c, userID, req.ProductID); err != nil {
		inOtel.RecordError(err, span)
		return CartResult{Result: failure(c, err, "failed to add to cart")}
	}
	return a.GetCart(c, userID)
}

func (a *Actions) UpdateCartItemQuantity(
	c context.Context,
	userID string,
	cartID uuid.UUID,
	key string,
	req request.UpdateQuantity,
) CartResult {
	c, span := otel.Tracer.Start(c, "Actions UpdateCartItemQuantity")
	defer span.End()

	c = zerolog.Ctx(c).With().Str(log.KeyTag, "Actions UpdateCartItemQuantity").Logger().WithContext(c)
	if err := validate.New().StructCtx(c, req); err != nil {
		inOtel.RecordError(err, span)
		return CartResult{Result: validationFailure(c, err)}
	}
	if err := a.service.CartBelongsTo(c, cartID, userID); err != nil {
		inOtel.RecordError(err, span)
		return CartResult{Result: failure(c, err, "failed to update cart item quantity")}
	}
	if err := a.service.UpdateQuantity(c, cartID, key, *req.Quantity); err != nil {
		inOtel.RecordError(err, span)
		return CartResult{Result: failure(c, err, "failed to update cart item quantity")}
	}
	return a.GetCart(c, userID)
}

func (a *Actions) RemoveCartItem(c context.Context, userID string, cartID uuid.UUID, key string) CartResult {
	c, span := otel.Tracer.Start(c, "Actions RemoveCartItem")
	defer span.End()

	c = zerolog.Ctx(c).With().Str(log.KeyTag, "Actions RemoveCartItem").Logger().WithContext(c)
	if err := a.service.CartBelongsTo(c, cartID, userID); err != nil {
		inOtel.RecordError(err, span)
		return CartResult{Result: failure(c, err, "failed to remove cart item")}
	}
	if err := a.service.RemoveItem(c, cartID, key); err != nil {
		inOtel.RecordError(err, span)
		return CartResult{Result: failure(c, err, "failed to remove cart item")}
	}
	return a.GetCart(c, userID)
}

func (a *Actions) CheckoutCart(c context.Context, userID string, cartID uuid.UUID) CheckoutResult {
	c, span := otel.Tracer.Start(c, "Actions CheckoutCart")
	defer span.End()

	c = zerolog.Ctx(c).With().Str(log.KeyTag, "Actions CheckoutCart").Logger().WithContext(c)
	if err := a.service.CartBelongsTo(c, cartID, userID); err != nil {
		inOtel.RecordError(err, span)
		return CheckoutResult{Result: failure(c, err, "failed to create checkout session")}
	}
	url, err := a.service.Checkout(c, cartID)
	if err != nil {
		inOtel.RecordError(err, span)
		return CheckoutResult{Result: failure(c, err, "failed to create checkout session")}
	}
	return CheckoutResult{URL: url}
}

func (a *Actions) BuyNow(c context.Context, req request.BuyNow) CheckoutResult {
	c, span := otel.Tracer.Start(c, "Actions BuyNow")
	defer span.End()

	c = zerolog.Ctx(c).With().Str(log.KeyTag, "Actions BuyNow").Logger().WithContext(c)
	if err := validate.New().StructCtx(c, req); err != nil {
		inOtel.RecordError(err, span)
		return CheckoutResult{Result: validationFailure(c, err)}
	}
	url, err := a.service.BuyNow(c, req.ProductID)
	if err != nil {
		inOtel.RecordError(err, span)
		return CheckoutResult{Result: failure(c, err, "failed to create checkout session")}
	}
	return CheckoutResult{URL: url}
}
