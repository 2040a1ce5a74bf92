package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Constantes del servicio. El verifier las exige tal cual.
const (
	IssuerID   = "chat_server"
	AudienceID = "chat_web"
	TokenTTL   = 7 * 24 * time.Hour
)

// Claims es la identidad que viaja dentro del token.
type Claims struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// tokenClaims es el payload completo: custom (flat) + registrados.
// "id" es el id numérico del usuario; el id del token va en "jti".
type tokenClaims struct {
	UserID      int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	jwtv5.RegisteredClaims
}

func (tc *tokenClaims) identity() *Claims {
	return &Claims{ID: tc.UserID, DisplayName: tc.DisplayName, Email: tc.Email}
}
