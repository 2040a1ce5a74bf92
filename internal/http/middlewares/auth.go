package middlewares

import (
	stderrors "errors"
	"net/http"

	"github.com/dropDatabas3/hellochat/internal/http/errors"
	"github.com/dropDatabas3/hellochat/internal/http/helpers"
	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

// TokenVerifier lo implementa jwt.TokenVerifier (solo clave pública).
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// TokenError traduce un error del verifier a su AppError.
func TokenError(err error) *errors.AppError {
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return errors.ErrTokenExpired
	}
	return errors.ErrTokenInvalid
}

// RequireAuth valida Authorization: Bearer <JWT> y guarda las claims en el contexto.
// Si el token falta o es inválido responde 401.
func RequireAuth(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := helpers.BearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				appErr := TokenError(err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				logger.From(r.Context()).Debug("token rejected", logger.Layer("middleware"), logger.Err(err))
				errors.WriteError(w, appErr)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UserID(claims.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
