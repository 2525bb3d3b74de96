package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cardattend/internal/logging"
	"cardattend/internal/metrics"
)

const defaultChannel = "cardattend:events"

// Redis is a broker over Redis pub/sub so that every API instance sees the
// events published by the others.
type Redis struct {
	client  *redis.Client
	channel string
	buffer  int
	log     logging.Logger
}

// NewRedis builds a broker publishing JSON events on channel.
func NewRedis(client *redis.Client, channel string, log logging.Logger) *Redis {
	if channel == "" {
		channel = defaultChannel
	}
	return &Redis{client: client, channel: channel, buffer: defaultBuffer, log: logging.For(log, "broker")}
}

// Publish sends e to every subscriber on the channel.
func (b *Redis) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe opens a Redis subscription and forwards matching events.
func (b *Redis) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	ps := b.client.Subscribe(ctx, b.channel)
	// wait for the subscription confirmation so early publishes are not missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	out := make(chan Event, b.buffer)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.log.Warn(ctx, "discarding malformed event", "error", err)
				continue
			}
			if !f.Match(e) {
				continue
			}
			select {
			case out <- e:
			default:
				metrics.BrokerDropped.WithLabelValues("redis").Inc()
				b.log.Warn(ctx, "subscriber too slow, event dropped", "type", e.Type, "record_id", e.RecordID)
			}
		}
	}()

	// closing the pubsub closes ps.Channel(), which ends the forwarder
	return newSubscription(ctx, out, func() { _ = ps.Close() }), nil
}

// Close is a no-op; the client is owned by the caller.
func (b *Redis) Close() error { return nil }
