package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Policy valida passwords en signup. No se aplica en signin.
type Policy struct {
	MinLength     int
	MaxBytes      int // 0 = sin límite
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
	Blacklist     *Blacklist
}

// DefaultPolicy es la política usada si config no define otra.
var DefaultPolicy = Policy{MinLength: 6, MaxBytes: 1024}

// Validate devuelve ok=false y los motivos (códigos cortos) si el password no cumple.
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	if !utf8.ValidString(s) {
		return false, []string{"invalid_utf8"}
	}
	if p.MaxBytes > 0 && len(s) > p.MaxBytes {
		reasons = append(reasons, "too_long")
	}
	if utf8.RuneCountInString(s) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, "blacklisted")
	}
	return len(reasons) == 0, reasons
}

// Reasons junta los motivos para mensajes de error.
func Reasons(r []string) string { return strings.Join(r, ",") }
