package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/commercesync/internal/config"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/log"
	"github.com/Alturino/commercesync/internal/otel"
)

type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(cfg config.Payments) *Stripe {
	httpClient := &http.Client{
		Timeout:   80 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(2),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIBase != "" {
		backendConfig.URL = stripe.String(cfg.APIBase)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	api := client.New(cfg.SecretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
	return &Stripe{api: api, webhookSecret: cfg.WebhookSecret}
}

// ParseWebhook verifies the Stripe-Signature header against the configured
// secret and returns the event. Verification failures wrap
// ErrMissingSignature or ErrInvalidSignature.
func (s *Stripe) ParseWebhook(c context.Context, payload []byte, signature string) (Event, error) {
	c, span := otel.Tracer.Start(c, "Stripe ParseWebhook")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Stripe ParseWebhook").Logger()

	if signature == "" {
		err := fmt.Errorf("failed verifying webhook with error=%w", inErrors.ErrMissingSignature)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Event{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "verifying webhook signature").Logger()
	logger.Trace().Msg("verifying webhook signature")
	event, err := webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		err = fmt.Errorf("failed verifying webhook with error=%w", errors.Join(inErrors.ErrInvalidSignature, err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Event{}, err
	}
	logger.Trace().Str(log.KeyEventID, event.ID).Msg("verified webhook signature")

	result := Event{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: time.Unix(event.Created, 0).UTC(),
	}
	if event.Data != nil {
		result.Object = event.Data.Raw
	}
	return result, nil
}

func (s *Stripe) CreateProduct(c context.Context, input ProductInput) (Product, error) {
	c, span := otel.Tracer.Start(c, "Stripe CreateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "Stripe CreateProduct").Logger()

	params := &stripe.ProductParams{
		Params:      stripe.Params{Context: c},
		Name:        stripe.String(input.Name),
		Description: stripe.String(input.Description),
		Images:      stripe.StringSlice(input.Images),
		Active:      stripe.Bool(input.Active),
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}

	logger.Trace().Msg("creating product")
	product, err := s.api.Products.New(params)
	if err != nil {
		err = fmt.Errorf("failed creating product with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Product{}, err
	}
	logger.Info().Str(log.KeyPaymentsID, product.ID).Msg("created product")
	return productFromStripe(product), nil
}

func (s *Stripe) UpdateProduct(c context.Context, id string, input ProductInput) (Product, error) {
	c, span := otel.Tracer.Start(c, "Stripe UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Stripe UpdateProduct").
		Str(log.KeyPaymentsID, id).
		Logger()

	params := &stripe.ProductParams{
		Params:      stripe.Params{Context: c},
		Name:        stripe.String(input.Name),
		Description: stripe.String(input.Description),
		Images:      stripe.StringSlice(input.Images),
		Active:      stripe.Bool(input.Active),
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}

	logger.Trace().Msg("updating product")
	product, err := s.api.Products.Update(id, params)
	if err != nil {
		err = fmt.Errorf("failed updating product=%s with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Product{}, err
	}
	logger.Info().Msg("updated product")
	return productFromStripe(product), nil
}

// ArchiveProduct deactivates the product. Provider products referenced by
// prices cannot be deleted.
func (s *Stripe) ArchiveProduct(c context.Context, id string, metadata map[string]string) error {
	c, span := otel.Tracer.Start(c, "Stripe ArchiveProduct")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Stripe ArchiveProduct").
		Str(log.KeyPaymentsID, id).
		Logger()

	params := &stripe.ProductParams{
		Params: stripe.Params{Context: c},
		Active: stripe.Bool(false),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	logger.Trace().Msg("archiving product")
	if _, err := s.api.Products.Update(id, params); err != nil {
		err = fmt.Errorf("failed archiving product=%s with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("archived product")
	return nil
}

func (s *Stripe) SetDefaultPrice(c context.Context, productID string, priceID string) error {
	c, span := otel.Tracer.Start(c, "Stripe SetDefaultPrice")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Stripe SetDefaultPrice").
		Str(log.KeyPaymentsID, productID).
		Str(log.KeyPriceID, priceID).
		Logger()

	params := &stripe.ProductParams{
		Params:       stripe.Params{Context: c},
		DefaultPrice: stripe.String(priceID),
	}
	logger.Trace().Msg("setting default price")
	if _, err := s.api.Products.Update(productID, params); err != nil {
		err = fmt.Errorf("failed setting default price of product=%s with error=%w", productID, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("set default price")
	return nil
}

func (s *Stripe) GetPrice(c context.Context, id string) (Price, error) {
	c, span := otel.Tracer.Start(c, "Stripe GetPrice")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Stripe GetPrice").
		Str(log.KeyPriceID, id).
		Logger()

	logger.Trace().Msg("getting price")
	price, err := s.api.Prices.Get(id, &stripe.PriceParams{Params: stripe.Params{Context: c}})
	if err != nil {
		err = fmt.Errorf("failed getting price=%s with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Price{}, err
	}
	logger.Trace().Msg("got price")
	return priceFromStripe(price), nil
}

func (s *Stripe) CreatePrice(c context.Context, input PriceInput) (Price, error) {
	c, span := otel.Tracer.Start(c, "Stripe CreatePrice")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Stripe CreatePrice").
		Str(log.KeyProductID, input.ProductID).
		Logger()

	params := &stripe.PriceParams{
		Params:     stripe.Params{Context: c},
		Product:    stripe.String(input.ProductID),
		UnitAmount: stripe.Int64(input.UnitAmount),
		Currency:   stripe.String(input.Currency),
		Active:     stripe.Bool(input.Active),
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}

	logger.Trace().Msg("creating price")
	price, err := s.api.Prices.New(params)
	if err != nil {
		err = fmt.Errorf("failed creating price with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Price{}, err
	}
	logger.Info().Str(log.KeyPriceID, price.ID).Msg("created price")
	return priceFromStripe(price), nil
}

// UpdatePrice changes the mutable fields of a price. Amount and currency are
// immutable on the provider side.
func (s *Stripe) UpdatePrice(c context.Context, id string, update PriceUpdate) (Price, error) {
	c, span := otel.Tracer.Start(c, "Stripe UpdatePrice")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Stripe UpdatePrice").
		Str(log.KeyPriceID, id).
		Logger()

	params := &stripe.PriceParams{
		Params: stripe.Params{Context: c},
		Active: stripe.Bool(update.Active),
	}
	for k, v := range update.Metadata {
		params.AddMetadata(k, v)
	}

	logger.Trace().Msg("updating price")
	price, err := s.api.Prices.Update(id, params)
	if err != nil {
		err = fmt.Errorf("failed updating price=%s with error=%w", id, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Price{}, err
	}
	logger.Info().Msg("updated price")
	return priceFromStripe(price), nil
}

func (s *Stripe) ArchivePrice(c context.Context, id string, metadata map[string]string) error {
	_, err := s.UpdatePrice(c, id, PriceUpdate{Active: false, Metadata: metadata})
	return err
}

func (s *Stripe) CreateCheckoutSession(c context.Context, input CheckoutInput) (CheckoutSession, error) {
	c, span := otel.Tracer.Start(c, "Stripe CreateCheckoutSession")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "Stripe CreateCheckoutSession").
		Int(log.KeyLineItems, len(input.Lines)).
		Logger()

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Lines))
	for _, line := range input.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(line.PriceID),
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: c},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(input.SuccessURL),
		CancelURL:          stripe.String(input.CancelURL),
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}

	logger.Trace().Msg("creating checkout session")
	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		err = fmt.Errorf("failed creating checkout session with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return CheckoutSession{}, err
	}
	if session.URL == "" {
		err = fmt.Errorf("failed creating checkout session=%s with error=missing url", session.ID)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return CheckoutSession{}, err
	}
	logger.Info().Str(log.KeySessionID, session.ID).Msg("created checkout session")
	return CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func productFromStripe(p *stripe.Product) Product {
	product := Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
		Active:      p.Active,
		Metadata:    p.Metadata,
	}
	if p.DefaultPrice != nil {
		product.DefaultPriceID = p.DefaultPrice.ID
	}
	return product
}

func priceFromStripe(p *stripe.Price) Price {
	price := Price{
		ID:         p.ID,
		UnitAmount: p.UnitAmount,
		Currency:   string(p.Currency),
		Active:     p.Active,
		Metadata:   p.Metadata,
	}
	if p.Product != nil {
		price.ProductID = p.Product.ID
	}
	return price
}
