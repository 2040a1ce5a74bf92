package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

// RedisBroker usa pub/sub de Redis en el canal <prefix>events.
// Permite separar chat-server y notify-server en procesos distintos.
type RedisBroker struct {
	client  *redis.Client
	channel string
}

var _ Broker = (*RedisBroker)(nil)

func NewRedisBroker(client *redis.Client, prefix string) *RedisBroker {
	return &RedisBroker{client: client, channel: prefix + "events"}
}

func (b *RedisBroker) Channel() string { return b.channel }

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: redis publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	// esperar la confirmación para no perder eventos publicados justo después
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("notify: redis subscribe: %w", err)
	}

	log := logger.From(ctx).With(logger.Layer("broker"), logger.Component("redis"))
	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					log.Warn("discarding undecodable event", logger.Err(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close no cierra el cliente: es compartido con el rate limiter y lo cierra main.
func (b *RedisBroker) Close() error { return nil }
