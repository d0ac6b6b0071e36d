package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/cart/internal/action"
	"github.com/Alturino/commercesync/cart/internal/common/otel"
	"github.com/Alturino/commercesync/cart/pkg/request"
	"github.com/Alturino/commercesync/internal/common"
	inHttp "github.com/Alturino/commercesync/internal/http"
	"github.com/Alturino/commercesync/internal/log"
	"github.com/Alturino/commercesync/internal/middleware"
	inOtel "github.com/Alturino/commercesync/internal/otel"
)

type CartController struct {
	actions *action.Actions
}

func AttachCartController(mux *mux.Router, actions *action.Actions, secretKey string) {
	controller := CartController{actions: actions}

	router := mux.PathPrefix("/carts").Subrouter()
	router.Use(middleware.Auth(secretKey))
	router.HandleFunc("", controller.GetCart).Methods(http.MethodGet)
	router.HandleFunc("/items", controller.AddItem).Methods(http.MethodPost)
	router.HandleFunc("/buy-now", controller.BuyNow).Methods(http.MethodPost)
	router.HandleFunc("/{cartId}/items/{itemKey}", controller.UpdateQuantity).Methods(http.MethodPatch)
	router.HandleFunc("/{cartId}/items/{itemKey}", controller.RemoveItem).Methods(http.MethodDelete)
	router.HandleFunc("/{cartId}/checkout", controller.Checkout).Methods(http.MethodPost)
}

func writeResult(w http.ResponseWriter, r *http.Request, result action.Result, message string, data map[string]interface{}) {
	c := r.Context()
	if result.Failed() {
		inHttp.WriteFailed(c, w, result.Status, result.Error)
		return
	}
	inHttp.WriteSuccess(c, w, message, data)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	c, span := otel.Tracer.Start(r.Context(), "CartController userID")
	defer span.End()

	id, err := common.UserIDFromJwtToken(c)
	if err != nil {
		err = fmt.Errorf("failed getting userId from jwtToken with error=%w", err)
		inOtel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err.Error())
		return "", false
	}
	return id, true
}

func cartID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["cartId"])
	if err != nil {
		err = fmt.Errorf("failed parsing cartId with error=%w", err)
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(r.Context(), w, http.StatusBadRequest, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w", err)
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(r.Context(), w, http.StatusBadRequest, err.Error())
		return v, false
	}
	return v, true
}

func (t CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController GetCart").Logger()
	r = r.WithContext(logger.WithContext(c))

	user, ok := userID(w, r)
	if !ok {
		return
	}
	logger.Trace().Str(log.KeyUserID, user).Msg("getting cart")
	result := t.actions.GetCart(r.Context(), user)
	writeResult(w, r, result.Result, "successfully found cart", map[string]interface{}{"cart": result.Cart})
}

func (t CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController AddItem").Logger()
	r = r.WithContext(logger.WithContext(c))

	user, ok := userID(w, r)
	if !ok {
		return
	}
	req, ok := decode[request.AddItem](w, r)
	if !ok {
		return
	}
	logger.Trace().Str(log.KeyUserID, user).Str(log.KeyProductID, req.ProductID).Msg("adding item")
	result := t.actions.AddToCart(r.Context(), user, req)
	writeResult(w, r, result.Result, "successfully added item", map[string]interface{}{"cart": result.Cart})
}

func (t CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController UpdateQuantity").Logger()
	r = r.WithContext(logger.WithContext(c))

	user, ok := userID(w, r)
	if !ok {
		return
	}
	cart, ok := cartID(w, r)
	if !ok {
		return
	}
	req, ok := decode[request.UpdateQuantity](w, r)
	if !ok {
		return
	}
	key := mux.Vars(r)["itemKey"]
	logger.Trace().Str(log.KeyCartID, cart.String()).Str(log.KeyCartItemKey, key).Msg("updating quantity")
	result := t.actions.UpdateCartItemQuantity(r.Context(), user, cart, key, req)
	writeResult(w, r, result.Result, "successfully updated quantity", map[string]interface{}{"cart": result.Cart})
}

func (t CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController RemoveItem").Logger()
	r = r.WithContext(logger.WithContext(c))

	user, ok := userID(w, r)
	if !ok {
		return
	}
	cart, ok := cartID(w, r)
	if !ok {
		return
	}
	key := mux.Vars(r)["itemKey"]
	logger.Trace().Str(log.KeyCartID, cart.String()).Str(log.KeyCartItemKey, key).Msg("removing item")
	result := t.actions.RemoveCartItem(r.Context(), user, cart, key)
	writeResult(w, r, result.Result, "successfully removed item", map[string]interface{}{"cart": result.Cart})
}

func (t CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController Checkout").Logger()
	r = r.WithContext(logger.WithContext(c))

	user, ok := userID(w, r)
	if !ok {
		return
	}
	cart, ok := cartID(w, r)
	if !ok {
		return
	}
	logger.Trace().Str(log.KeyCartID, cart.String()).Msg("checking out cart")
	result := t.actions.CheckoutCart(r.Context(), user, cart)
	writeResult(w, r, result.Result, "successfully created checkout session", map[string]interface{}{"url": result.URL})
}

func (t CartController) BuyNow(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController BuyNow")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController BuyNow").Logger()
	r = r.WithContext(logger.WithContext(c))

	if _, ok := userID(w, r); !ok {
		return
	}
	req, ok := decode[request.BuyNow](w, r)
	if !ok {
		return
	}
	logger.Trace().Str(log.KeyProductID, req.ProductID).Msg("buying product")
	result := t.actions.BuyNow(r.Context(), req)
	writeResult(w, r, result.Result, "successfully created checkout session", map[string]interface{}{"url": result.URL})
}
