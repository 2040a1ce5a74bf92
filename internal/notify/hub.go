package notify

import (
	"context"
	"sync"

	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

const clientBuffer = 64

// outbound es un evento ya serializado, listo para escribir en el stream.
type outbound struct {
	typ  EventType
	data []byte
}

// Client es una conexión abierta (SSE o WS) de un usuario.
// El hub es el único que cierra send.
type Client struct {
	userID int64
	send   chan outbound
}

func (c *Client) UserID() int64 { return c.userID }

// Hub registra clientes por usuario y les entrega los eventos de la suscripción.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	count   int
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: map[int64]map[*Client]struct{}{}}
}

// Register da de alta una conexión para userID.
func (h *Hub) Register(userID int64) (*Client, error) {
	c := &Client{userID: userID, send: make(chan outbound, clientBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	set, ok := h.clients[userID]
	if !ok {
		set = map[*Client]struct{}{}
		h.clients[userID] = set
	}
	set[c] = struct{}{}
	h.count++
	return c, nil
}

// Unregister es idempotente.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) bool {
	set, ok := h.clients[c.userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	h.count--
	close(c.send)
	return true
}

// Count devuelve la cantidad de conexiones abiertas.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Deliver manda ev a cada conexión de cada destinatario. Un cliente con el
// buffer lleno se desconecta. Devuelve cuántas conexiones lo recibieron.
func (h *Hub) Deliver(ctx context.Context, ev Event) int {
	if len(ev.Recipients) == 0 {
		return 0
	}
	data, err := ev.frame()
	if err != nil {
		logger.From(ctx).Error("encode event", logger.Layer("hub"), logger.Err(err))
		return 0
	}
	msg := outbound{typ: ev.Type, data: data}

	var slow []*Client
	delivered := 0
	seen := make(map[int64]struct{}, len(ev.Recipients))

	h.mu.RLock()
	for _, uid := range ev.Recipients {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		for c := range h.clients[uid] {
			select {
			case c.send <- msg:
				delivered++
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, c := range slow {
			if h.removeLocked(c) {
				logger.From(ctx).Warn("dropping slow client",
					logger.Layer("hub"), logger.UserID(c.userID))
			}
		}
		h.mu.Unlock()
	}
	return delivered
}

// Run consume la suscripción hasta que ctx termina o el broker cierra el canal.
// Al salir cierra todas las conexiones.
func (h *Hub) Run(ctx context.Context, sub Subscriber) error {
	events, err := sub.Subscribe(ctx)
	if err != nil {
		return err
	}
	log := logger.From(ctx).With(logger.Layer("hub"))
	log.Info("hub running")
	defer h.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				log.Info("subscription closed")
				return nil
			}
			n := h.Deliver(ctx, ev)
			log.Debug("event delivered",
				logger.Event(string(ev.Type)), logger.ChatID(ev.ChatID),
				logger.Recipients(len(ev.Recipients)), logger.Count(n))
		}
	}
}

// Close desconecta a todos y rechaza registros nuevos.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.clients {
		for c := range set {
			h.removeLocked(c)
		}
	}
}
