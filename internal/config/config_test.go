package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadFile_Defaults(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, "dev", c.App.Env)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 8081, c.Server.NotifyPort)
	assert.Equal(t, "memory", c.Storage.Driver)
	assert.Equal(t, "memory", c.Broker.Kind)
	assert.Equal(t, time.Minute, c.Rate.Window)
	assert.Equal(t, 6, c.Auth.PasswordPolicy.MinLength)
	assert.Equal(t, "info", c.Log.Level)
	assert.Empty(t, c.Source)
}

func TestLoadFile_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "app.yaml", `
app:
  env: PROD
server:
  port: 9000
  cors_allowed_origins: ["http://a.test"]
storage:
  driver: postgres
  dsn: postgres://u:p@localhost/db
  postgres:
    max_conns: 5
    conn_max_lifetime: 30m
broker:
  kind: redis
  redis:
    addr: localhost:6379
rate:
  enabled: true
  kind: redis
  window: 10s
`)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "http://b.test,http://c.test")
	t.Setenv("BROKER_REDIS_PREFIX", "x:")

	c, err := LoadFile(p)
	require.NoError(t, err)
	assert.True(t, c.IsProd())
	assert.Equal(t, 9100, c.Server.Port)
	assert.Equal(t, []string{"http://b.test", "http://c.test"}, c.Server.CORSAllowedOrigins)
	assert.Equal(t, int32(5), c.Storage.Postgres.MaxConns)
	assert.Equal(t, 30*time.Minute, c.Storage.Postgres.ConnMaxLifetime)
	assert.Equal(t, "x:", c.Broker.Redis.Prefix)
	assert.Equal(t, 10*time.Second, c.Rate.Window)
	// el limiter hereda el redis del broker
	assert.Equal(t, "localhost:6379", c.Rate.Redis.Addr)
	assert.Equal(t, p, c.Source)
}

func TestLoadFile_KeyFilesRelativeToYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sk.pem", "PRIVATE")
	writeFile(t, dir, "pk.pem", "PUBLIC")
	p := writeFile(t, dir, "app.yaml", "auth:\n  sk_file: sk.pem\n  pk_file: pk.pem\n")

	c, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "PRIVATE", c.Auth.SK)
	assert.Equal(t, "PUBLIC", c.Auth.PK)
	assert.NoError(t, c.RequireSigningKeys())
}

func TestLoadFile_InlineKeyWins(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "app.yaml", "auth:\n  pk: INLINE\n  pk_file: missing.pem\n")
	c, err := LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "INLINE", c.Auth.PK)
	assert.NoError(t, c.RequireVerificationKey())
	assert.ErrorIs(t, c.RequireSigningKeys(), ErrMissingKey)
}

func TestLoadFile_MissingKeyFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "app.yaml", "auth:\n  sk_file: nope.pem\n")
	_, err := LoadFile(p)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"unknown driver":   "storage:\n  driver: mongo\n",
		"postgres no dsn":  "storage:\n  driver: postgres\n",
		"redis no addr":    "broker:\n  kind: redis\n",
		"unknown rate":     "rate:\n  kind: etcd\n",
		"port range":       "server:\n  port: 70000\n",
		"min > max conns":  "storage:\n  postgres:\n    max_conns: 2\n    min_conns: 3\n",
		"malformed yaml":   "server: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "app.yaml", body)
			_, err := LoadFile(p)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestResolve_Cascade(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, "from-env.yaml", "server:\n  port: 7000\n")
	t.Setenv("CONFIG_PATH", envPath)

	got, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, envPath, got)

	explicit := writeFile(t, dir, "explicit.yaml", "server:\n  port: 7001\n")
	got, err = Resolve(explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, got)

	_, err = Resolve(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalid)

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, c.Server.Port)
}

func TestCandidates_Order(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/x/app.yaml")
	assert.Equal(t,
		[]string{"cfg.yaml", "../app.yaml", "./app.yaml", "/etc/config/app.yaml", "/x/app.yaml"},
		Candidates("cfg.yaml"))
}
