// Package infra abre las dependencias externas (storage, redis, broker,
// rate limiter) según la config. Lo usan las mains y el CLI.
package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellochat/internal/config"
	"github.com/dropDatabas3/hellochat/internal/notify"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
	"github.com/dropDatabas3/hellochat/internal/rate"
	"github.com/dropDatabas3/hellochat/internal/store"
	"github.com/dropDatabas3/hellochat/internal/store/memory"
	"github.com/dropDatabas3/hellochat/internal/store/pg"
)

const pingTimeout = 5 * time.Second

// Resources abre dependencias y recuerda cómo cerrarlas.
// Broker y limiter comparten cliente redis si apuntan al mismo server/db.
type Resources struct {
	cfg     *config.Config
	redis   map[string]*redis.Client
	closers []func()

	// PG es nil con storage.driver=memory.
	PG *pg.Store
}

func New(cfg *config.Config) *Resources {
	return &Resources{cfg: cfg, redis: map[string]*redis.Client{}}
}

func (r *Resources) add(fn func()) { r.closers = append(r.closers, fn) }

// Close cierra en orden inverso de apertura.
func (r *Resources) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// OpenStore abre postgres o memory. Con flags.migrate aplica migraciones pendientes.
func (r *Resources) OpenStore(ctx context.Context) (store.Store, error) {
	log := logger.From(ctx).With(logger.Component("infra"))
	cfg := r.cfg

	switch cfg.Storage.Driver {
	case "postgres":
		s, err := OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		r.add(s.Close)
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := s.Ping(pctx); err != nil {
			// el pool reconecta solo; /readyz lo reporta mientras tanto
			log.Warn("postgres not reachable at startup", logger.Err(err))
		}
		if cfg.Flags.Migrate {
			if err := s.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		r.PG = s
		return s, nil
	default:
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	}
}

// OpenPostgres solo abre el pool (el CLI de migraciones no necesita más).
func OpenPostgres(ctx context.Context, cfg *config.Config) (*pg.Store, error) {
	if cfg.Storage.Driver != "postgres" {
		return nil, fmt.Errorf("%w: storage.driver is %q, postgres required", config.ErrInvalid, cfg.Storage.Driver)
	}
	return pg.New(ctx, cfg.Storage.DSN, pg.Options{
		MaxConns:        cfg.Storage.Postgres.MaxConns,
		MinConns:        cfg.Storage.Postgres.MinConns,
		ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
	})
}

// OpenRedis crea el cliente y verifica la conexión.
func OpenRedis(ctx context.Context, rc config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", rc.Addr, err)
	}
	return client, nil
}

func (r *Resources) redisFor(ctx context.Context, rc config.RedisConfig) (*redis.Client, error) {
	key := fmt.Sprintf("%s/%d", strings.ToLower(rc.Addr), rc.DB)
	if c, ok := r.redis[key]; ok {
		return c, nil
	}
	c, err := OpenRedis(ctx, rc)
	if err != nil {
		return nil, err
	}
	r.redis[key] = c
	r.add(func() { _ = c.Close() })
	return c, nil
}

// OpenBroker devuelve el broker configurado. El memory broker solo sirve
// cuando publicador y suscriptor viven en el mismo proceso.
func (r *Resources) OpenBroker(ctx context.Context) (notify.Broker, error) {
	var b notify.Broker
	switch r.cfg.Broker.Kind {
	case "redis":
		c, err := r.redisFor(ctx, r.cfg.Broker.Redis)
		if err != nil {
			return nil, err
		}
		b = notify.NewRedisBroker(c, r.cfg.Broker.Redis.Prefix)
	default:
		b = notify.NewMemoryBroker()
	}
	r.add(func() { _ = b.Close() })
	return b, nil
}

// OpenLimiter devuelve nil si rate.enabled es false.
func (r *Resources) OpenLimiter(ctx context.Context) (rate.Limiter, error) {
	cfg := r.cfg
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	switch cfg.Rate.Kind {
	case "redis":
		c, err := r.redisFor(ctx, cfg.Rate.Redis)
		if err != nil {
			return nil, err
		}
		return rate.NewRedisLimiter(c, cfg.Rate.Redis.Prefix, cfg.Rate.MaxRequests, cfg.Rate.Window), nil
	default:
		return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.Rate.Window), nil
	}
}
