package middlewares

import (
	"context"

	"github.com/dropDatabas3/hellochat/internal/jwt"
)

type ctxKey string

const (
	ctxClaimsKey    ctxKey = "claims"
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta la identidad verificada en el contexto.
func WithClaims(ctx context.Context, c *jwt.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

// GetClaims devuelve nil si RequireAuth no corrió.
func GetClaims(ctx context.Context) *jwt.Claims {
	c, _ := ctx.Value(ctxClaimsKey).(*jwt.Claims)
	return c
}

// UserID devuelve el id autenticado o 0.
func UserID(ctx context.Context) int64 {
	if c := GetClaims(ctx); c != nil {
		return c.ID
	}
	return 0
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}
