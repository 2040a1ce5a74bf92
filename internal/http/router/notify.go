package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/hellochat/internal/http/controllers/health"
	mw "github.com/dropDatabas3/hellochat/internal/http/middlewares"
	"github.com/dropDatabas3/hellochat/internal/notify"
)

type NotifyRouterDeps struct {
	Notify  *notify.Handler
	Health  *healthctrl.Controller
	Metrics *mw.Metrics

	CORSAllowedOrigins []string
}

// NewNotifyRouter: la auth la hace el propio handler (header o ?access_token=).
func NewNotifyRouter(deps NotifyRouterDeps) http.Handler {
	r := chi.NewRouter()
	base(r, deps.Metrics, deps.CORSAllowedOrigins)

	r.Get("/", deps.Notify.Index)
	r.Group(func(r chi.Router) {
		r.Use(mw.WithNoStore())
		r.Get("/events", deps.Notify.Events)
		r.Get("/ws", deps.Notify.WS)
	})

	ops(r, deps.Health, deps.Metrics)
	return r
}
