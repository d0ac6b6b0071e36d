package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/commercesync/internal/common"
	inHttp "github.com/Alturino/commercesync/internal/http"
	"github.com/Alturino/commercesync/internal/log"
	"github.com/Alturino/commercesync/internal/middleware"
	inOtel "github.com/Alturino/commercesync/internal/otel"
	"github.com/Alturino/commercesync/sync/internal/otel"
	"github.com/Alturino/commercesync/sync/internal/service"
)

// SyncController exposes the manual "sync to payments" action for stored
// documents.
type SyncController struct {
	service ContentEventHandler
}

func AttachSyncController(mux *mux.Router, service ContentEventHandler, secretKey string) {
	controller := SyncController{service: service}

	router := mux.PathPrefix("/sync").Subrouter()
	router.Use(middleware.Auth(secretKey))
	router.HandleFunc("/products/{documentId}", controller.SyncProduct).Methods(http.MethodPost)
	router.HandleFunc("/prices/{documentId}", controller.SyncPrice).Methods(http.MethodPost)
}

func (t SyncController) SyncProduct(w http.ResponseWriter, r *http.Request) {
	t.sync(w, r, "product", t.service.SyncStoredProduct)
}

func (t SyncController) SyncPrice(w http.ResponseWriter, r *http.Request) {
	t.sync(w, r, "price", t.service.SyncStoredPrice)
}

func (t SyncController) sync(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	push func(c context.Context, id string) (service.Outcome, error),
) {
	documentID := mux.Vars(r)["documentId"]
	c, span := otel.Tracer.Start(
		r.Context(),
		"SyncController sync",
		trace.WithAttributes(attribute.String(log.KeyDocumentType, kind), attribute.String(log.KeyDocumentID, documentID)),
	)
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "SyncController sync").
		Str(log.KeyDocumentType, kind).
		Str(log.KeyDocumentID, documentID).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "getting userId from jwtToken").Logger()
	userID, err := common.UserIDFromJwtToken(c)
	if err != nil {
		err = fmt.Errorf("failed getting userId from jwtToken with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, http.StatusUnauthorized, err.Error())
		return
	}
	logger = logger.With().Str(log.KeyUserID, userID).Logger()

	logger = logger.With().Str(log.KeyProcess, "pushing document").Logger()
	logger.Info().Msg("pushing document to payments")
	c = logger.WithContext(context.WithoutCancel(c))
	outcome, err := push(c, documentID)
	if err != nil {
		err = fmt.Errorf("failed pushing %s=%s with error=%w", kind, documentID, err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailed(c, w, statusFor(err), err.Error())
		return
	}
	logger.Info().Str("outcome", string(outcome)).Msg("pushed document to payments")

	inHttp.WriteSuccess(c, w, fmt.Sprintf("successfully synced %s", kind), map[string]interface{}{
		"documentId": documentID,
		"outcome":    outcome,
	})
}
