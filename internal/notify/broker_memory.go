package notify

import (
	"context"
	"sync"

	"github.com/dropDatabas3/hellochat/internal/observability/logger"
)

const subscriberBuffer = 256

// MemoryBroker reparte en proceso. Sirve cuando chat y notify corren en el
// mismo binario y en tests.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

var _ Broker = (*MemoryBroker)(nil)

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[chan Event]struct{}{}}
}

// Publish no bloquea: un suscriptor lleno pierde el evento.
func (b *MemoryBroker) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBrokerClosed
	}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			logger.From(ctx).Warn("memory broker subscriber full, event dropped",
				logger.Layer("broker"), logger.Event(string(ev.Type)), logger.ChatID(ev.ChatID))
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrBrokerClosed
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(ch)
	}()
	return ch, nil
}

func (b *MemoryBroker) remove(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	return nil
}
