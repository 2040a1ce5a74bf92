package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalid    = errors.New("config: invalid")
	ErrMissingKey = errors.New("config: missing key material")
)

// RedisConfig lo comparten broker y rate limiter.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	Prefix   string `yaml:"prefix" env:"PREFIX"`
}

type Config struct {
	App struct {
		// dev | prod
		Env     string `yaml:"env" env:"APP_ENV"`
		Version string `yaml:"version" env:"APP_VERSION"`
	} `yaml:"app"`

	Server struct {
		Port               int      `yaml:"port" env:"SERVER_PORT"`
		NotifyPort         int      `yaml:"notify_port" env:"SERVER_NOTIFY_PORT"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"SERVER_CORS_ALLOWED_ORIGINS" envSeparator:","`
	} `yaml:"server"`

	// Claves Ed25519 en PEM, inline o por archivo. El notify-server solo necesita pk.
	Auth struct {
		SK     string `yaml:"sk" env:"AUTH_SK"`
		PK     string `yaml:"pk" env:"AUTH_PK"`
		SKFile string `yaml:"sk_file" env:"AUTH_SK_FILE"`
		PKFile string `yaml:"pk_file" env:"AUTH_PK_FILE"`

		PasswordPolicy struct {
			MinLength     int  `yaml:"min_length" env:"PASSWORD_MIN_LENGTH"`
			RequireUpper  bool `yaml:"require_upper" env:"PASSWORD_REQUIRE_UPPER"`
			RequireLower  bool `yaml:"require_lower" env:"PASSWORD_REQUIRE_LOWER"`
			RequireDigit  bool `yaml:"require_digit" env:"PASSWORD_REQUIRE_DIGIT"`
			RequireSymbol bool `yaml:"require_symbol" env:"PASSWORD_REQUIRE_SYMBOL"`
		} `yaml:"password_policy"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path" env:"PASSWORD_BLACKLIST_PATH"`
	} `yaml:"auth"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver" env:"STORAGE_DRIVER"`
		DSN      string `yaml:"dsn" env:"STORAGE_DSN"`
		Postgres struct {
			MaxConns        int32         `yaml:"max_conns" env:"POSTGRES_MAX_CONNS"`
			MinConns        int32         `yaml:"min_conns" env:"POSTGRES_MIN_CONNS"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"POSTGRES_CONN_MAX_LIFETIME"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Broker struct {
		// memory | redis
		Kind  string      `yaml:"kind" env:"BROKER_KIND"`
		Redis RedisConfig `yaml:"redis" envPrefix:"BROKER_REDIS_"`
	} `yaml:"broker"`

	Rate struct {
		Enabled bool `yaml:"enabled" env:"RATE_ENABLED"`
		// memory | redis
		Kind        string        `yaml:"kind" env:"RATE_KIND"`
		Window      time.Duration `yaml:"window" env:"RATE_WINDOW"`
		MaxRequests int           `yaml:"max_requests" env:"RATE_MAX_REQUESTS"`
		Redis       RedisConfig   `yaml:"redis" envPrefix:"RATE_REDIS_"`
	} `yaml:"rate"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`

	Flags struct {
		Migrate bool `yaml:"migrate" env:"FLAGS_MIGRATE"`
	} `yaml:"flags"`

	// path del YAML efectivamente cargado ("" si solo env)
	Source string `yaml:"-"`
}

// Candidates es la cascada de búsqueda del YAML; gana el primero que exista.
func Candidates(explicit string) []string {
	out := make([]string, 0, 5)
	if s := strings.TrimSpace(explicit); s != "" {
		out = append(out, s)
	}
	out = append(out, "../app.yaml", "./app.yaml", "/etc/config/app.yaml")
	if p := strings.TrimSpace(os.Getenv("CONFIG_PATH")); p != "" {
		out = append(out, p)
	}
	return out
}

// Resolve devuelve el primer candidato existente. Un -config explícito que no existe es error.
func Resolve(explicit string) (string, error) {
	for i, p := range Candidates(explicit) {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
		if i == 0 && strings.TrimSpace(explicit) != "" {
			return "", fmt.Errorf("%w: config file %q not found", ErrInvalid, explicit)
		}
	}
	return "", nil
}

// Load resuelve la cascada, parsea YAML (si hay), aplica env, defaults y valida.
func Load(explicit string) (*Config, error) {
	path, err := Resolve(explicit)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile carga un YAML puntual. path vacío = solo env + defaults.
func LoadFile(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
		}
		c.Source = path
	}

	// env pisa YAML solo para las variables seteadas
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrInvalid, err)
	}

	c.applyDefaults()

	if err := c.resolveKeyFiles(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	c.App.Env = strings.ToLower(strings.TrimSpace(c.App.Env))
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.NotifyPort == 0 {
		c.Server.NotifyPort = 8081
	}
	if c.Storage.Driver == "" {
		if c.Storage.DSN != "" {
			c.Storage.Driver = "postgres"
		} else {
			c.Storage.Driver = "memory"
		}
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Storage.Postgres.ConnMaxLifetime == 0 {
		c.Storage.Postgres.ConnMaxLifetime = time.Hour
	}
	if c.Broker.Kind == "" {
		c.Broker.Kind = "memory"
	}
	if c.Broker.Redis.Prefix == "" {
		c.Broker.Redis.Prefix = "hellochat:"
	}
	if c.Rate.Kind == "" {
		c.Rate.Kind = "memory"
	}
	if c.Rate.Window == 0 {
		c.Rate.Window = time.Minute
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 20
	}
	// el limiter redis reusa el server del broker si no tiene uno propio
	if c.Rate.Redis.Addr == "" {
		c.Rate.Redis.Addr = c.Broker.Redis.Addr
		c.Rate.Redis.Password = c.Broker.Redis.Password
		c.Rate.Redis.DB = c.Broker.Redis.DB
	}
	if c.Rate.Redis.Prefix == "" {
		c.Rate.Redis.Prefix = "hellochat:rl:"
	}
	if c.Auth.PasswordPolicy.MinLength == 0 {
		c.Auth.PasswordPolicy.MinLength = 6
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// resolveKeyFiles lee sk_file/pk_file si el PEM inline está vacío.
// Paths relativos se interpretan respecto al YAML.
func (c *Config) resolveKeyFiles() error {
	read := func(dst *string, file string) error {
		if strings.TrimSpace(*dst) != "" || strings.TrimSpace(file) == "" {
			return nil
		}
		b, err := os.ReadFile(c.rel(file))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMissingKey, err)
		}
		*dst = string(b)
		return nil
	}
	if err := read(&c.Auth.SK, c.Auth.SKFile); err != nil {
		return err
	}
	if err := read(&c.Auth.PK, c.Auth.PKFile); err != nil {
		return err
	}
	if p := strings.TrimSpace(c.Auth.PasswordBlacklistPath); p != "" {
		c.Auth.PasswordBlacklistPath = c.rel(p)
	}
	return nil
}

func (c *Config) rel(p string) string {
	if filepath.IsAbs(p) || c.Source == "" {
		return p
	}
	return filepath.Clean(filepath.Join(filepath.Dir(c.Source), p))
}

// Validate chequea enums y rangos. Las claves se exigen por binario (RequireSigningKeys / RequireVerificationKey).
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("%w: storage.dsn required for postgres", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: storage.driver %q", ErrInvalid, c.Storage.Driver)
	}
	switch c.Broker.Kind {
	case "memory":
	case "redis":
		if c.Broker.Redis.Addr == "" {
			return fmt.Errorf("%w: broker.redis.addr required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: broker.kind %q", ErrInvalid, c.Broker.Kind)
	}
	switch c.Rate.Kind {
	case "memory":
	case "redis":
		if c.Rate.Enabled && c.Rate.Redis.Addr == "" {
			return fmt.Errorf("%w: rate.redis.addr required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: rate.kind %q", ErrInvalid, c.Rate.Kind)
	}
	for _, p := range []int{c.Server.Port, c.Server.NotifyPort} {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrInvalid, p)
		}
	}
	if c.Storage.Postgres.MinConns > c.Storage.Postgres.MaxConns {
		return fmt.Errorf("%w: postgres.min_conns > max_conns", ErrInvalid)
	}
	return nil
}

// RequireSigningKeys: el chat-server firma y además publica JWKS.
func (c *Config) RequireSigningKeys() error {
	if strings.TrimSpace(c.Auth.SK) == "" {
		return fmt.Errorf("%w: auth.sk", ErrMissingKey)
	}
	return c.RequireVerificationKey()
}

// RequireVerificationKey: el notify-server solo verifica.
func (c *Config) RequireVerificationKey() error {
	if strings.TrimSpace(c.Auth.PK) == "" {
		return fmt.Errorf("%w: auth.pk", ErrMissingKey)
	}
	return nil
}

func (c *Config) IsProd() bool { return c.App.Env == "prod" }
