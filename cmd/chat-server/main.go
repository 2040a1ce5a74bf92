package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellochat/internal/auth"
	"github.com/dropDatabas3/hellochat/internal/chat"
	"github.com/dropDatabas3/hellochat/internal/config"
	httpserver "github.com/dropDatabas3/hellochat/internal/http"
	authctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/auth"
	chatctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/chat"
	healthctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/health"
	keysctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/keys"
	mw "github.com/dropDatabas3/hellochat/internal/http/middlewares"
	"github.com/dropDatabas3/hellochat/internal/http/router"
	"github.com/dropDatabas3/hellochat/internal/infra"
	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
	"github.com/dropDatabas3/hellochat/internal/security/password"
)

const serviceName = "chat-server"

func main() {
	configPath := flag.String("config", "", "ruta a app.yaml (default: cascada ../app.yaml, ./app.yaml, /etc/config/app.yaml, $CONFIG_PATH)")
	envFile := flag.String("env-file", ".env", "ruta a .env (opcional)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireSigningKeys(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: serviceName, Version: cfg.App.Version})
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.L().Fatal("chat-server stopped", logger.Err(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.L()
	ctx = logger.ToContext(ctx, log)

	issuer, err := jwt.NewIssuer(cfg.Auth.SK)
	if err != nil {
		return err
	}
	verifier, err := jwt.NewVerifier(cfg.Auth.PK)
	if err != nil {
		return err
	}
	if issuer.KID() != verifier.KID() {
		return fmt.Errorf("%w: auth.sk and auth.pk are not a pair", jwt.ErrKeyLoad)
	}

	policy := password.Policy{
		MinLength:     cfg.Auth.PasswordPolicy.MinLength,
		MaxBytes:      password.DefaultPolicy.MaxBytes,
		RequireUpper:  cfg.Auth.PasswordPolicy.RequireUpper,
		RequireLower:  cfg.Auth.PasswordPolicy.RequireLower,
		RequireDigit:  cfg.Auth.PasswordPolicy.RequireDigit,
		RequireSymbol: cfg.Auth.PasswordPolicy.RequireSymbol,
	}
	if p := cfg.Auth.PasswordBlacklistPath; p != "" {
		bl, err := password.LoadBlacklist(p)
		if err != nil {
			return fmt.Errorf("password blacklist: %w", err)
		}
		policy.Blacklist = bl
		log.Info("password blacklist loaded", logger.Count(bl.Len()))
	}

	res := infra.New(cfg)
	defer res.Close()

	st, err := res.OpenStore(ctx)
	if err != nil {
		return err
	}
	broker, err := res.OpenBroker(ctx)
	if err != nil {
		return err
	}
	if cfg.Broker.Kind == "memory" {
		log.Warn("broker.kind=memory: events will not reach a separate notify-server")
	}
	limiter, err := res.OpenLimiter(ctx)
	if err != nil {
		return err
	}

	authSvc, err := auth.New(auth.Deps{
		Users:    st,
		Hasher:   password.NewHasher(password.Default),
		Issuer:   issuer,
		Verifier: verifier,
		Policy:   &policy,
	})
	if err != nil {
		return err
	}
	chatSvc, err := chat.New(chat.Deps{Repo: st, Publisher: broker})
	if err != nil {
		return err
	}

	metrics := mw.NewMetrics(serviceName)
	if res.PG != nil {
		if err := metrics.Register(mw.NewDBPoolCollector(res.PG.PoolStats)); err != nil {
			return err
		}
	}

	handler := router.NewChatRouter(router.ChatRouterDeps{
		Port:               cfg.Server.Port,
		Auth:               authctrl.NewController(authSvc),
		Chat:               chatctrl.NewController(chatSvc),
		Health:             healthctrl.NewController(cfg.App.Version, healthctrl.Check{Name: "storage", Ping: st.Ping}),
		Keys:               keysctrl.NewController(issuer.PublicKey()),
		Verifier:           verifier,
		Metrics:            metrics,
		Limiter:            limiter,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	log.Info("starting chat-server",
		logger.Int("port", cfg.Server.Port),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("broker", cfg.Broker.Kind),
		logger.Bool("rate_limit", limiter != nil),
		logger.String("kid", issuer.KID()),
		logger.String("config", cfg.Source),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Start(gctx, httpserver.ServerOptions{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      handler,
			WriteTimeout: 30 * time.Second,
		})
	})
	return g.Wait()
}
