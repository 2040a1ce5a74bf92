package jwt

import (
	"crypto/ed25519"
	"errors"
	"slices"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// maxTokenLen acota el trabajo de parseo sobre input del atacante.
const maxTokenLen = 8 << 10

// TokenVerifier valida tokens con la clave pública. No puede firmar:
// el notify-server arranca solo con esto.
type TokenVerifier struct {
	pub    ed25519.PublicKey
	kid    string
	now    func() time.Time
	parser *jwtv5.Parser
}

// VerifierOption configura el TokenVerifier.
type VerifierOption func(*TokenVerifier)

// WithVerifierClock reemplaza time.Now (tests).
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *TokenVerifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier carga la clave pública PEM. Error => ErrKeyLoad.
func NewVerifier(verificationKeyPEM string, opts ...VerifierOption) (*TokenVerifier, error) {
	pub, err := LoadVerificationKey(verificationKeyPEM)
	if err != nil {
		return nil, err
	}
	return newVerifier(pub, opts...), nil
}

func newVerifier(pub ed25519.PublicKey, opts ...VerifierOption) *TokenVerifier {
	v := &TokenVerifier{
		pub: pub,
		kid: KeyID(pub),
		now: time.Now,
		// Las claims se validan aparte en checkEnvelope; el parser solo chequea firma y alg.
		parser: jwtv5.NewParser(
			jwtv5.WithValidMethods([]string{jwtv5.SigningMethodEdDSA.Alg()}),
			jwtv5.WithoutClaimsValidation(),
		),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// KID devuelve el key id de la clave pública cargada.
func (v *TokenVerifier) KID() string { return v.kid }

// Verify chequea firma y después iss/aud/exp. Devuelve la identidad embebida.
func (v *TokenVerifier) Verify(token string) (*Claims, error) {
	if token == "" || len(token) > maxTokenLen {
		return nil, ErrTokenMalformed
	}

	tc := &tokenClaims{}
	_, err := v.parser.ParseWithClaims(token, tc, func(*jwtv5.Token) (any, error) {
		return v.pub, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	if err := checkEnvelope(&tc.RegisteredClaims, v.now()); err != nil {
		return nil, err
	}
	return tc.identity(), nil
}

// checkEnvelope valida issuer, audience y expiración. No depende de la firma:
// se ejecuta siempre, aunque el chequeo de firma cambie.
func checkEnvelope(rc *jwtv5.RegisteredClaims, now time.Time) error {
	if rc.Issuer != IssuerID {
		return ErrWrongIssuer
	}
	if !slices.Contains(rc.Audience, AudienceID) {
		return ErrWrongAudience
	}
	if rc.ExpiresAt == nil || !now.Before(rc.ExpiresAt.Time) {
		return ErrTokenExpired
	}
	return nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwtv5.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		// unverifiable, alg raro, etc.
		return ErrInvalidSignature
	}
}
