package helpers

import (
	"net/http"
	"strings"
)

// BearerToken extrae el token de "Authorization: Bearer <jwt>".
func BearerToken(r *http.Request) (string, bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < len("bearer ") || !strings.EqualFold(ah[:len("bearer ")], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(ah[len("bearer "):])
	return tok, tok != ""
}

// StreamToken es BearerToken con fallback a ?access_token=. EventSource y
// WebSocket desde el browser no pueden mandar headers.
func StreamToken(r *http.Request) (string, bool) {
	if tok, ok := BearerToken(r); ok {
		return tok, true
	}
	tok := strings.TrimSpace(r.URL.Query().Get("access_token"))
	return tok, tok != ""
}
