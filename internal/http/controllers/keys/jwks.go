// Package keys publica la clave pública de firma como JWKS.
package keys

import (
	"crypto/ed25519"
	"net/http"

	"github.com/dropDatabas3/hellochat/internal/jwt"
)

type Controller struct {
	body []byte
	kid  string
}

// NewController precalcula el documento: la clave no cambia en la vida del proceso.
func NewController(pub ed25519.PublicKey) *Controller {
	return &Controller{body: jwt.JWKSJSON(pub), kid: jwt.KeyID(pub)}
}

// JWKS maneja GET /.well-known/jwks.json
func (c *Controller) JWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("X-JWKS-KID", c.kid)
	_, _ = w.Write(c.body)
}
