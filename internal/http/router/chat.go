// Package router arma los http.Handler de chat-server y notify-server sobre chi.
package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/auth"
	chatctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/chat"
	healthctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/health"
	keysctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/keys"
	httperrors "github.com/dropDatabas3/hellochat/internal/http/errors"
	mw "github.com/dropDatabas3/hellochat/internal/http/middlewares"
	"github.com/dropDatabas3/hellochat/internal/rate"
)

// ChatRouterDeps contiene lo que necesita el router del chat-server.
type ChatRouterDeps struct {
	Port int

	Auth   *authctrl.Controller
	Chat   *chatctrl.Controller
	Health *healthctrl.Controller
	Keys   *keysctrl.Controller

	Verifier mw.TokenVerifier
	Metrics  *mw.Metrics
	// Limiter opcional: nil deshabilita el rate limit de signup/signin.
	Limiter rate.Limiter

	CORSAllowedOrigins []string
}

// NewChatRouter registra todas las rutas del chat-server.
func NewChatRouter(deps ChatRouterDeps) http.Handler {
	r := chi.NewRouter()
	base(r, deps.Metrics, deps.CORSAllowedOrigins)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "server started at: %d", deps.Port)
	})

	// ─── Auth (público) ───
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		if deps.Limiter != nil {
			r.Use(mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.Limiter, KeyFunc: mw.IPPathRateKey}))
		}
		r.Post("/api/signup", deps.Auth.Signup)
		r.Post("/api/signin", deps.Auth.Signin)
	})

	// ─── Chats (requiere Bearer) ───
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth(deps.Verifier), mw.WithNoStore())
		r.Route("/api/chat", func(r chi.Router) {
			r.Get("/", deps.Chat.List)
			r.Post("/", deps.Chat.Create)
			r.Patch("/{id}", deps.Chat.Update)
			r.Delete("/{id}", deps.Chat.Delete)
			r.Get("/{id}/messages", deps.Chat.ListMessages)
			r.Post("/{id}/messages", deps.Chat.SendMessage)
		})
	})

	r.Get("/.well-known/jwks.json", deps.Keys.JWKS)
	ops(r, deps.Health, deps.Metrics)
	return r
}

// base aplica los middlewares comunes a ambos servers. El orden importa:
// recover envuelve todo y request id va antes del logging.
func base(r chi.Router, m *mw.Metrics, origins []string) {
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(origins),
		mw.WithLogging(),
	)
	if m != nil {
		r.Use(m.WithMetrics())
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})
}

func ops(r chi.Router, h *healthctrl.Controller, m *mw.Metrics) {
	if h != nil {
		r.Get("/healthz", h.Healthz)
		r.Get("/readyz", h.Readyz)
	}
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
}
