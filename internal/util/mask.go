// Package util junta helpers chicos sin dependencias del dominio.
package util

import "strings"

// MaskEmail deja la primera letra del usuario y del dominio: "alice@mail.com" => "a…@m….com".
// Para logs, nunca para respuestas.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" {
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	labels := strings.Split(domain, ".")
	labels[0] = firstRune(labels[0])
	return firstRune(local) + "@" + strings.Join(labels, ".")
}

// MaskToken deja solo los primeros 8 chars (suficiente para correlacionar en logs).
func MaskToken(tok string) string {
	if len(tok) <= 8 {
		return "***"
	}
	return tok[:8] + "…"
}

func firstRune(s string) string {
	for i := range s {
		if i > 0 {
			return s[:i] + "…"
		}
	}
	return s
}
