package middlewares

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors HTTP de un server.
type Metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

// NewMetrics crea un registry propio con métricas de proceso/Go más las HTTP.
// service se agrega como label constante.
func NewMetrics(service string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}
	m := &Metrics{
		reg: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Número total de requests procesadas",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Latencia de los requests HTTP",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "path"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "http_inflight_requests",
			Help:        "Requests en vuelo por método",
			ConstLabels: labels,
		}, []string{"method"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.inflight,
	)
	return m
}

// Register agrega collectors extra (pool de Postgres, hub).
func (m *Metrics) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := m.reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler sirve /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Gatherer expone el registry (tests).
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.reg }

// WithMetrics instrumenta requests. El label path es el patrón de chi cuando
// existe, así /api/chat/{id} no explota la cardinalidad.
func (m *Metrics) WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method := strings.ToUpper(r.Method)
			m.inflight.WithLabelValues(method).Inc()
			start := time.Now()
			rec := newRecorder(w)

			defer func() {
				m.inflight.WithLabelValues(method).Dec()
				path := routePattern(r)
				m.duration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
				m.requests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath reemplaza segmentos numéricos o largos por :param.
func normalizePath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	out := segs[:0]
	for _, s := range segs {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil || len(s) > 32 {
			s = ":param"
		}
		out = append(out, s)
	}
	return "/" + strings.Join(out, "/")
}

// PoolStatsFunc devuelve las stats actuales del pool o nil.
type PoolStatsFunc func() *pgxpool.Stat

type dbPoolCollector struct {
	stats        PoolStatsFunc
	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
	maxDesc      *prometheus.Desc
}

// NewDBPoolCollector expone gauges del pgxpool.
func NewDBPoolCollector(stats PoolStatsFunc) prometheus.Collector {
	return &dbPoolCollector{
		stats:        stats,
		acquiredDesc: prometheus.NewDesc("pg_pool_acquired_conns", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("pg_pool_idle_conns", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("pg_pool_total_conns", "Conexiones totales", nil, nil),
		maxDesc:      prometheus.NewDesc("pg_pool_max_conns", "Máximo configurado", nil, nil),
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquiredDesc
	ch <- c.idleDesc
	ch <- c.totalDesc
	ch <- c.maxDesc
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	if c.stats == nil {
		return
	}
	st := c.stats()
	if st == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(st.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(st.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(st.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.maxDesc, prometheus.GaugeValue, float64(st.MaxConns()))
}
