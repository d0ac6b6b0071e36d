package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/commercesync/internal/http"
	"github.com/Alturino/commercesync/internal/log"
	"github.com/Alturino/commercesync/internal/otel"
)

// RecoverPanic turns a panicking handler into a 500 envelope. Aborted
// handlers keep panicking so net/http drops the connection.
func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, span := otel.Tracer.Start(r.Context(), "middleware RecoverPanic")
		defer span.End()

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			err, ok := rec.(error)
			if ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			err = fmt.Errorf("failed serving %s %s with error=%w", r.Method, r.URL.Path, err)
			zerolog.Ctx(c).Error().
				Err(err).
				Stack().
				Str(log.KeyTag, "middleware RecoverPanic").
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("recovered from panic")
			otel.RecordError(err, span)
			inHttp.WriteFailed(c, w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}()

		next.ServeHTTP(w, r.WithContext(c))
	})
}
