package jwt

import (
	"crypto/ed25519"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer firma tokens de sesión con la clave privada del proceso.
// Se construye una vez al arrancar y es de solo lectura; se comparte entre requests sin lock.
type TokenIssuer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	kid  string
	ttl  time.Duration
	now  func() time.Time
}

// IssuerOption configura el TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithIssuerClock reemplaza time.Now (tests).
func WithIssuerClock(now func() time.Time) IssuerOption {
	return func(i *TokenIssuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer carga la clave privada PEM. Error => ErrKeyLoad.
func NewIssuer(signingKeyPEM string, opts ...IssuerOption) (*TokenIssuer, error) {
	priv, err := LoadSigningKey(signingKeyPEM)
	if err != nil {
		return nil, err
	}
	pub := priv.Public().(ed25519.PublicKey)
	i := &TokenIssuer{
		priv: priv,
		pub:  pub,
		kid:  KeyID(pub),
		ttl:  TokenTTL,
		now:  time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// KID devuelve el key id que se pone en el header.
func (i *TokenIssuer) KID() string { return i.kid }

// PublicKey devuelve la mitad pública (para JWKS).
func (i *TokenIssuer) PublicKey() ed25519.PublicKey { return i.pub }

// Generate emite un token EdDSA con iss/aud fijos y exp = ahora + 7 días.
func (i *TokenIssuer) Generate(c Claims) (string, error) {
	now := i.now().UTC()
	tc := tokenClaims{
		UserID:      c.ID,
		DisplayName: c.DisplayName,
		Email:       c.Email,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    IssuerID,
			Audience:  jwtv5.ClaimStrings{AudienceID},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, tc)
	tk.Header["kid"] = i.kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.priv)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}
