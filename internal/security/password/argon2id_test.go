package password

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap mantiene los tests rápidos; el formato es el mismo.
var cheap = Params{Memory: 64, Time: 1, Parallelism: 1, KeyLen: 32, SaltLen: 16}

func TestHashVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	h := NewHasher(cheap)

	for _, pw := range []string{"secret123", "", "ñandú ✓ contraseña", strings.Repeat("x", 4096)} {
		digest, err := h.Hash(pw)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(digest, "$argon2id$v=19$m=64,t=1,p=1$"), digest)

		ok, err := h.Verify(pw, digest)
		require.NoError(t, err)
		assert.True(t, ok, "password %q should verify", pw)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	t.Parallel()
	h := NewHasher(cheap)

	digest, err := h.Hash("secret123")
	require.NoError(t, err)

	ok, err := h.Verify("wrongpass", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHash_SaltIsRandom(t *testing.T) {
	t.Parallel()
	h := NewHasher(cheap)

	d1, err := h.Hash("same")
	require.NoError(t, err)
	d2, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)

	for _, d := range []string{d1, d2} {
		ok, err := h.Verify("same", d)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestHash_DefaultParamsEncoded(t *testing.T) {
	t.Parallel()

	digest, err := Hash("secret123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$m=19456,t=2,p=1$"), digest)

	parts := strings.Split(digest, "$")
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	require.NoError(t, err)
	assert.Len(t, salt, 16)

	ok, err := Verify("secret123", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_UsesEmbeddedParams(t *testing.T) {
	t.Parallel()

	digest, err := NewHasher(Params{Memory: 128, Time: 2, Parallelism: 2}).Hash("pw")
	require.NoError(t, err)

	// otro hasher, otros params por defecto: debe usar los del digest
	ok, err := NewHasher(cheap).Verify("pw", digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_MalformedDigest(t *testing.T) {
	t.Parallel()
	h := NewHasher(cheap)

	good, err := h.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	cases := map[string]string{
		"empty":          "",
		"plaintext":      "pw",
		"bcrypt":         "$2a$10$abcdefghijklmnopqrstuu5Vd7d9E5X8h0tV2Pw2o6l2oXx1nqgq",
		"argon2i":        strings.Replace(good, "argon2id", "argon2i", 1),
		"wrong version":  strings.Replace(good, "v=19", "v=16", 1),
		"missing param":  "$argon2id$v=19$m=64,t=1$" + parts[4] + "$" + parts[5],
		"unknown param":  "$argon2id$v=19$m=64,t=1,x=1$" + parts[4] + "$" + parts[5],
		"zero time":      "$argon2id$v=19$m=64,t=0,p=1$" + parts[4] + "$" + parts[5],
		"huge memory":    "$argon2id$v=19$m=4294967295,t=1,p=1$" + parts[4] + "$" + parts[5],
		"huge time":      "$argon2id$v=19$m=64,t=1000,p=1$" + parts[4] + "$" + parts[5],
		"bad salt b64":   "$argon2id$v=19$m=64,t=1,p=1$!!!$" + parts[5],
		"short salt":     "$argon2id$v=19$m=64,t=1,p=1$" + base64.RawStdEncoding.EncodeToString([]byte("abc")) + "$" + parts[5],
		"bad hash b64":   "$argon2id$v=19$m=64,t=1,p=1$" + parts[4] + "$%%%",
		"short hash":     "$argon2id$v=19$m=64,t=1,p=1$" + parts[4] + "$" + base64.RawStdEncoding.EncodeToString([]byte("x")),
		"trailing parts": good + "$extra",
	}
	for name, digest := range cases {
		name, digest := name, digest
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ok, err := h.Verify("pw", digest)
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrMalformedDigest)
		})
	}
}

func TestNewHasher_EnforcesMinimumSalt(t *testing.T) {
	t.Parallel()

	digest, err := NewHasher(Params{Memory: 64, Time: 1, Parallelism: 1, SaltLen: 4}).Hash("pw")
	require.NoError(t, err)
	salt, err := base64.RawStdEncoding.DecodeString(strings.Split(digest, "$")[4])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(salt), 16)
}
