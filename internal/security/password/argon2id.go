package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMalformedDigest se devuelve cuando el digest almacenado no es un PHC argon2id reconocible.
var ErrMalformedDigest = errors.New("password: malformed digest")

// Params son los costos de Argon2id.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     uint32
}

// Default usa los costos por defecto de Argon2id (m=19MiB, t=2, p=1).
// Los digests generados por la versión anterior del servicio usan los mismos valores.
var Default = Params{Memory: 19 * 1024, Time: 2, Parallelism: 1, KeyLen: 32, SaltLen: 16}

// Límites para parámetros embebidos en un digest. Un digest fuera de rango se trata como malformado.
const (
	maxMemory      = 1 << 20 // 1 GiB
	maxTime        = 16
	maxParallelism = 16
	minKeyLen      = 16
	maxKeyLen      = 128
	minSaltLen     = 8
)

// dummySalt se usa para quemar el mismo costo cuando el digest no se puede parsear.
var dummySalt = []byte("hellochat-dummy-salt")

// Hasher implementa hash/verify con unos Params fijos.
type Hasher struct {
	params Params
}

// NewHasher crea un Hasher. Campos en cero toman el valor de Default.
func NewHasher(p Params) *Hasher {
	if p.Memory == 0 {
		p.Memory = Default.Memory
	}
	if p.Time == 0 {
		p.Time = Default.Time
	}
	if p.Parallelism == 0 {
		p.Parallelism = Default.Parallelism
	}
	if p.KeyLen == 0 {
		p.KeyLen = Default.KeyLen
	}
	if p.SaltLen < 16 {
		p.SaltLen = Default.SaltLen
	}
	return &Hasher{params: p}
}

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func (h *Hasher) Hash(plain string) (string, error) {
	p := h.params
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: salt: %w", err)
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify recalcula el hash con los parámetros del digest y compara en tiempo constante.
// Un digest malformado devuelve (false, ErrMalformedDigest) después de pagar el mismo costo
// que una verificación normal.
func (h *Hasher) Verify(plain, digest string) (bool, error) {
	d, err := parsePHC(digest)
	if err != nil {
		p := h.params
		_ = argon2.IDKey([]byte(plain), dummySalt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
		return false, ErrMalformedDigest
	}
	key := argon2.IDKey([]byte(plain), d.salt, d.time, d.memory, d.parallelism, uint32(len(d.key)))
	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

// Hash usa los parámetros Default.
func Hash(plain string) (string, error) {
	return NewHasher(Default).Hash(plain)
}

// Verify usa los parámetros Default para el camino malformado.
func Verify(plain, digest string) (bool, error) {
	return NewHasher(Default).Verify(plain, digest)
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

// parsePHC: "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
func parsePHC(s string) (*phc, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrMalformedDigest
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, ErrMalformedDigest
	}

	var out phc
	seen := 0
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, ErrMalformedDigest
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return nil, ErrMalformedDigest
		}
		switch k {
		case "m":
			if n > maxMemory {
				return nil, ErrMalformedDigest
			}
			out.memory = uint32(n)
		case "t":
			if n > maxTime {
				return nil, ErrMalformedDigest
			}
			out.time = uint32(n)
		case "p":
			if n > maxParallelism {
				return nil, ErrMalformedDigest
			}
			out.parallelism = uint8(n)
		default:
			return nil, ErrMalformedDigest
		}
		seen++
	}
	if seen != 3 || out.memory == 0 || out.time == 0 || out.parallelism == 0 {
		return nil, ErrMalformedDigest
	}
	// argon2 exige m >= 8*p
	if out.memory < 8*uint32(out.parallelism) {
		return nil, ErrMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minSaltLen {
		return nil, ErrMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) < minKeyLen || len(key) > maxKeyLen {
		return nil, ErrMalformedDigest
	}
	out.salt = salt
	out.key = key
	return &out, nil
}
