package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/commercesync/internal/common"
	inErrors "github.com/Alturino/commercesync/internal/errors"
	inHttp "github.com/Alturino/commercesync/internal/http"
	"github.com/Alturino/commercesync/internal/log"
)

func Auth(secretKey string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).With().Str(log.KeyTag, "middleware Auth").Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get(inHttp.KeyHeaderAuthorization)
			if len(authorization) <= len("bearer ") ||
				!strings.EqualFold(authorization[:len("bearer ")], "bearer ") {
				logger.Error().Err(inErrors.ErrEmptyAuth).Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrEmptyAuth.Error())
				return
			}

			token, err := common.VerifyToken(c, authorization[len("bearer "):], secretKey)
			if err != nil {
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteFailed(c, w, http.StatusUnauthorized, inErrors.ErrTokenInvalid.Error())
				return
			}

			c = common.AttachJwtToken(c, token)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
