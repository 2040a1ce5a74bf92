// Package validation tiene los chequeos sintácticos de input de usuario.
// No sabe nada de storage: unicidad y permisos se resuelven en los services.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Username: letras (cualquier script), dígitos, '_', '.', '-'. 1..32 runas.
var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_.\-]{1,32}$`)

// Email: local@dominio.tld, sin espacios. Deliberadamente laxo, la verificación real no existe.
var emailRe = regexp.MustCompile(`^[^\s@]{1,64}@[^\s@]+\.[^\s@.]{2,}$`)

const (
	MaxEmailLen       = 254
	MaxDisplayNameLen = 64
	MaxChatNameLen    = 100
)

func ValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

func ValidEmail(s string) bool {
	return len(s) <= MaxEmailLen && emailRe.MatchString(s)
}

// ValidDisplayName acepta vacío (se usa el username).
func ValidDisplayName(s string) bool {
	return utf8.RuneCountInString(s) <= MaxDisplayNameLen && printable(s)
}

func ValidChatName(s string) bool {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= MaxChatNameLen && printable(s)
}

func printable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
