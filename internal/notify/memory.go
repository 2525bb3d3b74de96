package notify

import (
	"context"
	"sync"

	"cardattend/internal/logging"
	"cardattend/internal/metrics"
)

const defaultBuffer = 16

// InMemory is a channel-backed broker for a single process.
type InMemory struct {
	log    logging.Logger
	buffer int

	mu     sync.RWMutex
	subs   map[*memSub]struct{}
	closed bool
}

type memSub struct {
	filter Filter
	ch     chan Event
}

// NewInMemory creates a broker whose subscribers buffer up to buffer events.
func NewInMemory(log logging.Logger, buffer int) *InMemory {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &InMemory{log: logging.For(log, "broker"), buffer: buffer, subs: make(map[*memSub]struct{})}
}

// Publish delivers e to every matching subscriber without blocking. A full
// subscriber misses the event.
func (b *InMemory) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for s := range b.subs {
		if !s.filter.Match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			metrics.BrokerDropped.WithLabelValues("memory").Inc()
			b.log.Warn(ctx, "subscriber too slow, event dropped", "type", e.Type, "record_id", e.RecordID)
		}
	}
	return nil
}

// Subscribe registers a subscriber for events matching f.
func (b *InMemory) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	s := &memSub{filter: f, ch: make(chan Event, b.buffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	return newSubscription(ctx, s.ch, func() { b.remove(s) }), nil
}

func (b *InMemory) remove(s *memSub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *InMemory) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close releases every subscriber.
func (b *InMemory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
	return nil
}
