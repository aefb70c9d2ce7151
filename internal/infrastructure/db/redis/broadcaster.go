package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/api/metrics"
	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

var errBroadcastClosed = errors.New("broadcast subscription closed")

// MessageSink receives relayed broadcast payloads. realtime.Hub implements it.
type MessageSink interface {
	Broadcast(msg []byte) int
}

// Broadcaster publishes board events on a Redis channel so that every API
// instance can forward them to its own realtime clients.
type Broadcaster struct {
	client  *redis.Client
	channel string
	log     zerolog.Logger
}

var _ ports.EventPublisher = (*Broadcaster)(nil)

func NewBroadcaster(client *redis.Client, channel string, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{client: client, channel: channel, log: log}
}

// Publish sends the JSON envelope of evt on the broadcast channel.
func (b *Broadcaster) Publish(ctx context.Context, evt domain.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.Name, err)
	}

	start := time.Now()
	err = b.client.Publish(ctx, b.channel, payload).Err()
	metrics.BroadcastPublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("publish %s: %w", evt.Name, err)
	}
	return nil
}

// Relay subscribes to the broadcast channel and forwards every message to
// sink until ctx is cancelled.
func (b *Broadcaster) Relay(ctx context.Context, sink MessageSink) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription confirmation so a dead server fails fast.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Msg("relaying broadcast channel")

	return relay(ctx, sub.Channel(), sink)
}

func relay(ctx context.Context, msgs <-chan *redis.Message, sink MessageSink) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errBroadcastClosed
			}
			sink.Broadcast([]byte(msg.Payload))
		}
	}
}
