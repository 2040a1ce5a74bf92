// Package health contiene /healthz (liveness) y /readyz (dependencias).
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellochat/internal/http/helpers"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

// Check es una dependencia a chequear en /readyz (storage, broker...).
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Response struct {
	Status     string            `json:"status"`
	Version    string            `json:"version,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

type Controller struct {
	version string
	checks  []Check
	timeout time.Duration
}

func NewController(version string, checks ...Check) *Controller {
	return &Controller{version: version, checks: checks, timeout: 2 * time.Second}
}

// Healthz maneja GET /healthz: el proceso responde.
func (c *Controller) Healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, Response{Status: "ok", Version: c.version})
}

// Readyz maneja GET /readyz: 503 si alguna dependencia falla.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("Readyz"))
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	resp := Response{Status: "ready", Version: c.version, Components: map[string]string{}}
	status := http.StatusOK
	for _, ch := range c.checks {
		if err := ch.Ping(ctx); err != nil {
			log.Warn("dependency not ready", logger.String("component", ch.Name), logger.Err(err))
			resp.Components[ch.Name] = "down"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[ch.Name] = "up"
	}
	if c.version != "" {
		w.Header().Set("X-Service-Version", c.version)
	}
	helpers.WriteJSON(w, status, resp)
}
