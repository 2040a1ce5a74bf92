// Package http contiene el ciclo de vida de los servers HTTP.
package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

const defaultShutdownTimeout = 10 * time.Second

type ServerOptions struct {
	Addr    string
	Handler stdhttp.Handler
	// WriteTimeout 0 = sin límite (SSE/WS del notify-server).
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Start sirve hasta que ctx se cancela y después hace shutdown ordenado.
// Devuelve nil en un cierre normal.
func Start(ctx context.Context, opts ServerOptions) error {
	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, opts)
}

// Serve es Start sobre un listener ya abierto (tests con puerto :0).
func Serve(ctx context.Context, ln net.Listener, opts ServerOptions) error {
	log := logger.From(ctx).With(logger.Layer("server"), logger.String("addr", ln.Addr().String()))

	srv := &stdhttp.Server{
		Handler:           opts.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("shutting down http server")
	if err := srv.Shutdown(sctx); err != nil {
		// conexiones SSE/WS abiertas: se cortan
		log.Warn("graceful shutdown timed out", logger.Err(err))
		_ = srv.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
