// Package notify reparte eventos de chat a los clientes conectados al
// notify-server. El chat-server publica; el notify-server se suscribe y
// entrega por SSE o WebSocket a cada destinatario.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	ChatCreated EventType = "chat_created"
	ChatUpdated EventType = "chat_updated"
	ChatDeleted EventType = "chat_deleted"
	MessageSent EventType = "message_sent"
)

type Event struct {
	Type       EventType       `json:"type"`
	ChatID     int64           `json:"chat_id"`
	Recipients []int64         `json:"recipients,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	At         time.Time       `json:"at"`
}

// NewEvent serializa payload y fija At.
func NewEvent(t EventType, chatID int64, recipients []int64, payload any) (Event, error) {
	ev := Event{Type: t, ChatID: chatID, Recipients: recipients, At: time.Now().UTC()}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Event{}, fmt.Errorf("notify: marshal payload: %w", err)
		}
		ev.Payload = b
	}
	return ev, nil
}

// frame es lo que ve el cliente: sin la lista de destinatarios.
func (e Event) frame() ([]byte, error) {
	e.Recipients = nil
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber entrega eventos hasta que ctx termina; después cierra el canal.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Broker es lo que arma la factory: publica y se suscribe.
type Broker interface {
	Publisher
	Subscriber
	Close() error
}
