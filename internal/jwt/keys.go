package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// LoadSigningKey parsea una clave privada Ed25519 PKCS#8 en PEM.
func LoadSigningKey(pemStr string) (ed25519.PrivateKey, error) {
	k, err := jwtv5.ParseEdPrivateKeyFromPEM([]byte(strings.TrimSpace(pemStr)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyLoad, err)
	}
	priv, ok := k.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ed25519 private key", ErrKeyLoad)
	}
	return priv, nil
}

// LoadVerificationKey parsea una clave pública Ed25519 PKIX en PEM.
func LoadVerificationKey(pemStr string) (ed25519.PublicKey, error) {
	k, err := jwtv5.ParseEdPublicKeyFromPEM([]byte(strings.TrimSpace(pemStr)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyLoad, err)
	}
	pub, ok := k.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ed25519 public key", ErrKeyLoad)
	}
	return pub, nil
}

// GenerateKeyPairPEM genera un par Ed25519 nuevo y lo devuelve como (privatePEM, publicPEM).
// Lo usa `hellochat keys gen` y los tests.
func GenerateKeyPairPEM() (string, string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", err
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", "", err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", "", err
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return string(privPEM), string(pubPEM), nil
}

// KeyID es el thumbprint RFC 7638 de la clave pública (OKP/Ed25519).
func KeyID(pub ed25519.PublicKey) string {
	// miembros requeridos en orden lexicográfico, sin espacios
	canon := `{"crv":"Ed25519","kty":"OKP","x":"` + base64.RawURLEncoding.EncodeToString(pub) + `"}`
	sum := sha256.Sum256([]byte(canon))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
