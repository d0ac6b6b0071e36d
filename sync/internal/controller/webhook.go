package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	inErrors "github.com/Alturino/commercesync/internal/errors"
	inHttp "github.com/Alturino/commercesync/internal/http"
	"github.com/Alturino/commercesync/internal/log"
	inOtel "github.com/Alturino/commercesync/internal/otel"
	"github.com/Alturino/commercesync/internal/payments"
	"github.com/Alturino/commercesync/sync/internal/metrics"
	"github.com/Alturino/commercesync/sync/internal/otel"
	"github.com/Alturino/commercesync/sync/internal/service"
	"github.com/Alturino/commercesync/sync/internal/signature"
	"github.com/Alturino/commercesync/sync/pkg/request"
)

const (
	maxBodyBytes = 512 << 10

	headerPaymentsSignature = "Stripe-Signature"
)

type PaymentsWebhookParser interface {
	ParseWebhook(c context.Context, payload []byte, signature string) (payments.Event, error)
}

type PaymentsEventHandler interface {
	HandleEvent(c context.Context, event payments.Event) (service.Outcome, error)
}

type ContentEventHandler interface {
	HandleEvent(c context.Context, event request.ContentEvent) (service.Outcome, error)
	SyncStoredProduct(c context.Context, id string) (service.Outcome, error)
	SyncStoredPrice(c context.Context, id string) (service.Outcome, error)
}

type WebhookController struct {
	parser          PaymentsWebhookParser
	paymentsService PaymentsEventHandler
	contentService  ContentEventHandler
	contentSecret   string
	metrics         *metrics.Webhook
}

func AttachWebhookController(
	mux *mux.Router,
	parser PaymentsWebhookParser,
	paymentsService PaymentsEventHandler,
	contentService ContentEventHandler,
	contentSecret string,
	m *metrics.Webhook,
) {
	controller := WebhookController{
		parser:          parser,
		paymentsService: paymentsService,
		contentService:  contentService,
		contentSecret:   contentSecret,
		metrics:         m,
	}

	router := mux.PathPrefix("/webhooks").Subrouter()
	router.HandleFunc("/payments", controller.HandlePayments).Methods(http.MethodPost)
	router.HandleFunc("/content", controller.HandleContent).Methods(http.MethodPost)
}

// statusFor maps a handling error to the response status. Validation
// failures will not succeed on redelivery, everything else may. Exhausted
// retries and canceled waits wrap their last cause and always answer 5xx.
func statusFor(err error) int {
	switch {
	case errors.Is(err, inErrors.ErrRetryExhausted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusInternalServerError
	case errors.Is(err, inErrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, inErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inErrors.ErrProductNotSynced):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("failed reading body larger than %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("failed reading body with error=%w", err)
	}
	if len(body) == 0 {
		return nil, http.StatusBadRequest, fmt.Errorf("failed reading body with error=%w", errors.New("empty body"))
	}
	return body, http.StatusOK, nil
}

func (t WebhookController) HandlePayments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, span := otel.Tracer.Start(r.Context(), "WebhookController HandlePayments")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "WebhookController HandlePayments").
		Str(log.KeyEventSource, metrics.SourcePayments).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "reading request body").Logger()
	logger.Trace().Msg("reading request body")
	body, status, err := readBody(w, r)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.metrics.Observe(metrics.SourcePayments, "", metrics.OutcomeRejected, time.Since(start))
		inHttp.WriteFailed(c, w, status, err.Error())
		return
	}
	logger.Trace().Int("bytes", len(body)).Msg("read request body")

	logger = logger.With().Str(log.KeyProcess, "verifying signature").Logger()
	logger.Trace().Msg("verifying signature")
	c = logger.WithContext(c)
	event, err := t.parser.ParseWebhook(c, body, r.Header.Get(headerPaymentsSignature))
	if err != nil {
		err = fmt.Errorf("failed verifying webhook with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.metrics.Observe(metrics.SourcePayments, "", metrics.OutcomeRejected, time.Since(start))
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String(log.KeyEventID, event.ID),
		attribute.String(log.KeyEventType, event.Type),
	)
	logger = logger.With().
		Str(log.KeyEventID, event.ID).
		Str(log.KeyEventType, event.Type).
		Logger()
	logger.Info().Msg("verified signature")

	logger = logger.With().Str(log.KeyProcess, "handling event").Logger()
	logger.Trace().Msg("handling event")
	c = logger.WithContext(context.WithoutCancel(c))
	outcome, err := t.paymentsService.HandleEvent(c, event)
	if err != nil {
		err = fmt.Errorf("failed handling event=%s with error=%w", event.ID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.metrics.Observe(metrics.SourcePayments, event.Type, metrics.OutcomeFailed, time.Since(start))
		inHttp.WriteFailed(c, w, statusFor(err), err.Error())
		return
	}
	elapsed := time.Since(start)
	logger.Info().Str("outcome", string(outcome)).Dur(log.KeyProcessingTime, elapsed).Msg("handled event")
	t.metrics.Observe(metrics.SourcePayments, event.Type, string(outcome), elapsed)

	inHttp.WriteSuccess(c, w, "webhook received", map[string]interface{}{
		"received":       true,
		"eventId":        event.ID,
		"eventType":      event.Type,
		"outcome":        outcome,
		"requestId":      log.RequestIDFromContext(c),
		"processingTime": elapsed.String(),
	})
}

func (t WebhookController) HandleContent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	c, span := otel.Tracer.Start(r.Context(), "WebhookController HandleContent")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "WebhookController HandleContent").
		Str(log.KeyEventSource, metrics.SourceContent).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "reading request body").Logger()
	logger.Trace().Msg("reading request body")
	body, status, err := readBody(w, r)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.metrics.Observe(metrics.SourceContent, "", metrics.OutcomeRejected, time.Since(start))
		inHttp.WriteFailed(c, w, status, err.Error())
		return
	}
	logger.Trace().Int("bytes", len(body)).Msg("read request body")

	logger = logger.With().Str(log.KeyProcess, "verifying signature").Logger()
	if t.contentSecret == "" {
		logger.Warn().Msg("content webhook secret not configured skipping signature verification")
	} else {
		logger.Trace().Msg("verifying signature")
		if err = signature.Verify(body, r.Header.Get(signature.HeaderName), t.contentSecret); err != nil {
			err = fmt.Errorf("failed verifying webhook with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			t.metrics.Observe(metrics.SourceContent, "", metrics.OutcomeRejected, time.Since(start))
			inHttp.WriteFailed(c, w, http.StatusUnauthorized, err.Error())
			return
		}
		logger.Trace().Msg("verified signature")
	}

	logger = logger.With().Str(log.KeyProcess, "parsing event").Logger()
	logger.Trace().Msg("parsing event")
	event, err := request.ParseContentEvent(body)
	if err != nil {
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.metrics.Observe(metrics.SourceContent, "", metrics.OutcomeRejected, time.Since(start))
		inHttp.WriteFailed(c, w, http.StatusBadRequest, err.Error())
		return
	}

	documentID, documentType := "", ""
	if event.Document != nil {
		documentID, documentType = event.Document.ID, event.Document.Type
	}
	span.SetAttributes(
		attribute.String(log.KeyDocumentID, documentID),
		attribute.String(log.KeyTransition, event.Transition),
	)
	logger = logger.With().
		Str(log.KeyDocumentID, documentID).
		Str(log.KeyDocumentType, documentType).
		Str(log.KeyTransition, event.Transition).
		Logger()
	logger.Trace().Msg("parsed event")

	logger = logger.With().Str(log.KeyProcess, "handling event").Logger()
	logger.Trace().Msg("handling event")
	c = logger.WithContext(context.WithoutCancel(c))
	outcome, err := t.contentService.HandleEvent(c, event)
	if err != nil {
		err = fmt.Errorf("failed handling document=%s with error=%w", documentID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		t.metrics.Observe(metrics.SourceContent, documentType, metrics.OutcomeFailed, time.Since(start))
		inHttp.WriteFailed(c, w, statusFor(err), err.Error())
		return
	}
	elapsed := time.Since(start)
	logger.Info().Str("outcome", string(outcome)).Dur(log.KeyProcessingTime, elapsed).Msg("handled event")
	t.metrics.Observe(metrics.SourceContent, documentType, string(outcome), elapsed)

	inHttp.WriteSuccess(c, w, "webhook received", map[string]interface{}{
		"received":       true,
		"documentId":     documentID,
		"documentType":   documentType,
		"transition":     event.Transition,
		"outcome":        outcome,
		"requestId":      log.RequestIDFromContext(c),
		"processingTime": elapsed.String(),
	})
}
