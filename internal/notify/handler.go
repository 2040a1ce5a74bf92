package notify

import (
	_ "embed"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dropDatabas3/hellochat/internal/http/errors"
	"github.com/dropDatabas3/hellochat/internal/http/helpers"
	"github.com/dropDatabas3/hellochat/internal/http/middlewares"
	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

//go:embed static/index.html
var indexHTML []byte

const (
	defaultHeartbeat = 15 * time.Second

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

// TokenVerifier lo implementa jwt.TokenVerifier. El notify-server nunca firma.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

type HandlerConfig struct {
	// AllowedOrigins para /ws. "*" acepta cualquiera.
	AllowedOrigins []string
	// Heartbeat SSE; 0 => 15s
	Heartbeat time.Duration
}

// Handler expone la página de prueba, el stream SSE y el endpoint WebSocket.
type Handler struct {
	hub       *Hub
	verifier  TokenVerifier
	heartbeat time.Duration
	origins   map[string]struct{}
	allowAll  bool
	upgrader  websocket.Upgrader
}

func NewHandler(hub *Hub, verifier TokenVerifier, cfg HandlerConfig) *Handler {
	h := &Handler{
		hub:       hub,
		verifier:  verifier,
		heartbeat: cfg.Heartbeat,
		origins:   map[string]struct{}{},
	}
	if h.heartbeat <= 0 {
		h.heartbeat = defaultHeartbeat
	}
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			h.allowAll = true
			continue
		}
		if n, ok := normalizeOrigin(o); ok {
			h.origins[n] = struct{}{}
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Index sirve la página embebida.
func (h *Handler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy",
		"default-src 'none'; script-src 'unsafe-inline'; style-src 'unsafe-inline'; connect-src 'self'")
	_, _ = w.Write(indexHTML)
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (*jwt.Claims, bool) {
	raw, ok := helpers.StreamToken(r)
	if !ok {
		errors.WriteError(w, errors.ErrTokenMissing)
		return nil, false
	}
	claims, err := h.verifier.Verify(raw)
	if err != nil {
		logger.From(r.Context()).Debug("stream token rejected", logger.Layer("notify"), logger.Err(err))
		errors.WriteError(w, middlewares.TokenError(err))
		return nil, false
	}
	return claims, true
}

// Events es el stream SSE. Cada evento sale como "event: <tipo>" + "data: <json>".
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	log := logger.From(r.Context()).With(logger.Layer("notify"), logger.Component("sse"), logger.UserID(claims.ID))

	rc := http.NewResponseController(w)
	c, err := h.hub.Register(claims.ID)
	if err != nil {
		errors.WriteError(w, errors.ErrServiceUnavailable)
		return
	}
	defer h.hub.Unregister(c)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprint(w, "retry: 3000\n: connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		log.Warn("sse flush unsupported", logger.Err(err))
		return
	}
	log.Info("sse client connected")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("sse client disconnected")
			return
		case msg, ok := <-c.send:
			if !ok {
				// el hub nos soltó (cliente lento o shutdown)
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.typ, msg.data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// WS hace el upgrade y entrega los mismos eventos como frames de texto JSON.
// Lo que manda el cliente se descarta; solo se leen control frames.
func (h *Handler) WS(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	log := logger.From(r.Context()).With(logger.Layer("notify"), logger.Component("ws"), logger.UserID(claims.ID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// el upgrader ya respondió
		log.Debug("websocket upgrade failed", logger.Err(err))
		return
	}
	c, err := h.hub.Register(claims.ID)
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	log.Info("ws client connected")

	go h.readPump(conn, c)
	h.writePump(conn, c)
	log.Info("ws client disconnected")
}

func (h *Handler) readPump(conn *websocket.Conn, c *Client) {
	defer func() {
		h.hub.Unregister(c)
		_ = conn.Close()
	}()
	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// checkOrigin: sin Origin (cliente no-browser) pasa; mismo host pasa; el resto
// tiene que estar en la allow-list.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	n, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	if h.allowAll {
		return true
	}
	if u, err := url.Parse(n); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if _, ok := h.origins[n]; ok {
		return true
	}
	logger.From(r.Context()).Warn("websocket origin blocked", logger.Layer("notify"), logger.String("origin", origin))
	return false
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(origin), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}
