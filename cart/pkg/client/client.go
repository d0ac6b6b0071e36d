// Package client calls the cart HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/commercesync/cart/internal/common/otel"
	"github.com/Alturino/commercesync/cart/pkg/request"
	"github.com/Alturino/commercesync/cart/pkg/response"
	inHttp "github.com/Alturino/commercesync/internal/http"
	"github.com/Alturino/commercesync/internal/log"
	inOtel "github.com/Alturino/commercesync/internal/otel"
)

// APIError is a failed envelope returned by the cart API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client of the cart API at baseURL authenticating with the
// bearer token.
func New(baseURL string, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (cl *Client) do(c context.Context, method string, path string, body any, out any) error {
	c, span := otel.Tracer.Start(c, "Client do")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Client do").
		Str("method", method).
		Str("path", path).
		Logger()

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed encoding request body with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(c, method, cl.baseURL+path, payload)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	req.Header.Set(inHttp.KeyHeaderAuthorization, "Bearer "+cl.token)
	req.Header.Set(inHttp.KeyHeaderContentType, inHttp.ValueHeaderApplicationJson)
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Set(inHttp.KeyHeaderRequestID, requestID)
	}

	logger.Trace().Msg("sending request")
	resp, err := cl.http.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending request with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		err = fmt.Errorf("failed decoding response with status=%d with error=%w", resp.StatusCode, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if resp.StatusCode != http.StatusOK {
		err := &APIError{StatusCode: resp.StatusCode, Message: env.Message}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Int("statusCode", resp.StatusCode).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("received response")

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		err = fmt.Errorf("failed decoding response data with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

type cartData struct {
	Cart *response.Cart `json:"cart"`
}

type checkoutData struct {
	URL string `json:"url"`
}

func itemPath(cartID uuid.UUID, key string) string {
	return fmt.Sprintf("/carts/%s/items/%s", cartID, url.PathEscape(key))
}

// GetCart returns nil when the user has no cart.
func (cl *Client) GetCart(c context.Context) (*response.Cart, error) {
	var data cartData
	if err := cl.do(c, http.MethodGet, "/carts", nil, &data); err != nil {
		return nil, err
	}
	return data.Cart, nil
}

func (cl *Client) AddItem(c context.Context, productID string) (*response.Cart, error) {
	var data cartData
	err := cl.do(c, http.MethodPost, "/carts/items", request.AddItem{ProductID: productID}, &data)
	if err != nil {
		return nil, err
	}
	return data.Cart, nil
}

func (cl *Client) UpdateQuantity(c context.Context, cartID uuid.UUID, key string, quantity int) (*response.Cart, error) {
	var data cartData
	err := cl.do(c, http.MethodPatch, itemPath(cartID, key), request.UpdateQuantity{Quantity: &quantity}, &data)
	if err != nil {
		return nil, err
	}
	return data.Cart, nil
}

func (cl *Client) RemoveItem(c context.Context, cartID uuid.UUID, key string) (*response.Cart, error) {
	var data cartData
	if err := cl.do(c, http.MethodDelete, itemPath(cartID, key), nil, &data); err != nil {
		return nil, err
	}
	return data.Cart, nil
}

// Checkout returns the URL of the payments checkout page.
func (cl *Client) Checkout(c context.Context, cartID uuid.UUID) (string, error) {
	var data checkoutData
	if err := cl.do(c, http.MethodPost, fmt.Sprintf("/carts/%s/checkout", cartID), nil, &data); err != nil {
		return "", err
	}
	return data.URL, nil
}

func (cl *Client) BuyNow(c context.Context, productID string) (string, error) {
	var data checkoutData
	if err := cl.do(c, http.MethodPost, "/carts/buy-now", request.BuyNow{ProductID: productID}, &data); err != nil {
		return "", err
	}
	return data.URL, nil
}
