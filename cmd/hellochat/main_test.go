package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/util/atomicwrite"
)

func TestGenerateKeys(t *testing.T) {
	dir := t.TempDir()
	kid, err := generateKeys(dir, false)
	require.NoError(t, err)
	assert.NotEmpty(t, kid)

	sk, err := os.ReadFile(filepath.Join(dir, "sk.pem"))
	require.NoError(t, err)
	pk, err := os.ReadFile(filepath.Join(dir, "pk.pem"))
	require.NoError(t, err)

	st, err := os.Stat(filepath.Join(dir, "sk.pem"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	// el par sirve de punta a punta
	iss, err := jwt.NewIssuer(string(sk))
	require.NoError(t, err)
	ver, err := jwt.NewVerifier(string(pk))
	require.NoError(t, err)
	assert.Equal(t, kid, ver.KID())
	tok, err := iss.Generate(jwt.Claims{ID: 1, DisplayName: "a", Email: "a@x.com"})
	require.NoError(t, err)
	_, err = ver.Verify(tok)
	assert.NoError(t, err)

	_, err = generateKeys(dir, false)
	assert.ErrorIs(t, err, atomicwrite.ErrExists)

	kid2, err := generateKeys(dir, true)
	require.NoError(t, err)
	assert.NotEqual(t, kid, kid2)
}

func TestKeysGenCommand(t *testing.T) {
	dir := t.TempDir()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--env-file", "", "keys", "gen", "--out-dir", dir})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "kid=")
	assert.FileExists(t, filepath.Join(dir, "pk.pem"))
}

func TestPingCommand(t *testing.T) {
	ready := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/readyz", r.URL.Path)
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}))
	defer srv.Close()

	run := func() (string, error) {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{"--env-file", "", "ping", "--url", srv.URL, "--out", "json"})
		err := root.Execute()
		return out.String(), err
	}

	out, err := run()
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ready"`)

	ready = false
	_, err = run()
	assert.Error(t, err)
}
