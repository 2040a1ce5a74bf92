package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellochat/internal/config"
	httpserver "github.com/dropDatabas3/hellochat/internal/http"
	healthctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/health"
	mw "github.com/dropDatabas3/hellochat/internal/http/middlewares"
	"github.com/dropDatabas3/hellochat/internal/http/router"
	"github.com/dropDatabas3/hellochat/internal/infra"
	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/notify"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

const serviceName = "notify-server"

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
	// solo verifica: nunca necesita la privada
	if err := cfg.RequireVerificationKey(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: serviceName, Version: cfg.App.Version})
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.L().Fatal("notify-server stopped", logger.Err(err))
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.L()
	ctx = logger.ToContext(ctx, log)

	verifier, err := jwt.NewVerifier(cfg.Auth.PK)
	if err != nil {
		return err
	}

	res := infra.New(cfg)
	defer res.Close()

	broker, err := res.OpenBroker(ctx)
	if err != nil {
		return err
	}
	if cfg.Broker.Kind == "memory" {
		log.Warn("broker.kind=memory: no events will arrive from chat-server")
	}

	hub := notify.NewHub()
	metrics := mw.NewMetrics(serviceName)
	if err := metrics.Register(notify.NewHubCollector(hub)); err != nil {
		return err
	}

	handler := router.NewNotifyRouter(router.NotifyRouterDeps{
		Notify: notify.NewHandler(hub, verifier, notify.HandlerConfig{
			AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		}),
		Health:             healthctrl.NewController(cfg.App.Version),
		Metrics:            metrics,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	log.Info("starting notify-server",
		logger.Int("port", cfg.Server.NotifyPort),
		logger.String("broker", cfg.Broker.Kind),
		logger.String("kid", verifier.KID()),
		logger.String("config", cfg.Source),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hub.Run(gctx, broker); err != nil {
			return err
		}
		if gctx.Err() == nil {
			return errors.New("event subscription closed")
		}
		return nil
	})
	g.Go(func() error {
		// WriteTimeout 0: SSE y WS son de larga duración
		return httpserver.Start(gctx, httpserver.ServerOptions{
			Addr:    fmt.Sprintf(":%d", cfg.Server.NotifyPort),
			Handler: handler,
		})
	})
	return g.Wait()
}
