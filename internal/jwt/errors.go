package jwt

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyLoad: PEM malformado o tipo de clave incorrecto. Fatal al arrancar.
	ErrKeyLoad = errors.New("jwt: key load failed")

	// ErrInvalidSignature: la firma no corresponde a la clave pública cargada
	// (o el token usa un alg distinto de EdDSA).
	ErrInvalidSignature = errors.New("jwt: invalid signature")

	// ErrTokenRejected agrupa todos los rechazos de envelope. Usar errors.Is para el caso colapsado.
	ErrTokenRejected = errors.New("jwt: token rejected")

	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenRejected)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrTokenRejected)
	ErrWrongIssuer    = fmt.Errorf("%w: wrong issuer", ErrTokenRejected)
	ErrWrongAudience  = fmt.Errorf("%w: wrong audience", ErrTokenRejected)
)
