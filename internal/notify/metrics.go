package notify

import "github.com/prometheus/client_golang/prometheus"

// NewHubCollector expone las conexiones abiertas del hub en /metrics.
func NewHubCollector(h *Hub) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "notify_connected_clients",
		Help: "Conexiones SSE/WS registradas en el hub",
	}, func() float64 { return float64(h.Count()) })
}
