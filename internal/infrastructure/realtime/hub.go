// Package realtime fans broadcast messages out to the clients connected to
// this process.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/api/metrics"
	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

const defaultBuffer = 64

// Hub delivers every message to every current subscriber. Delivery never
// blocks: a subscriber whose buffer is full is disconnected.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]*Subscription
	buffer int
	closed bool
	log    zerolog.Logger
}

var _ ports.EventPublisher = (*Hub)(nil)

// NewHub returns a Hub giving each subscriber buffer pending messages.
func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[uuid.UUID]*Subscription),
		buffer: buffer,
		log:    log,
	}
}

// Subscription is one connected client.
type Subscription struct {
	id   uuid.UUID
	hub  *Hub
	msgs chan []byte
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Messages is closed when the subscription ends, either by Close or because
// the client fell behind.
func (s *Subscription) Messages() <-chan []byte {
	return s.msgs
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s.id)
}

// Subscribe registers a new client. After Close it returns a subscription
// whose channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{id: uuid.New(), hub: h, msgs: make(chan []byte, h.buffer)}
	if h.closed {
		close(sub.msgs)
		return sub
	}
	h.subs[sub.id] = sub
	metrics.RealtimeSubscribers.Set(float64(len(h.subs)))
	return sub
}

// Broadcast queues msg for every subscriber and returns how many accepted it.
func (h *Hub) Broadcast(msg []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, sub := range h.subs {
		select {
		case sub.msgs <- msg:
			delivered++
		default:
			h.log.Warn().Stringer("subscriber", id).Msg("subscriber too slow, disconnecting")
			delete(h.subs, id)
			close(sub.msgs)
		}
	}
	metrics.RealtimeSubscribers.Set(float64(len(h.subs)))
	return delivered
}

// Publish encodes evt and broadcasts it to local subscribers. It is the
// broadcast backend for single-instance deployments.
func (h *Hub) Publish(_ context.Context, evt domain.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", evt.Name, err)
	}
	h.Broadcast(payload)
	return nil
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.msgs)
	}
	metrics.RealtimeSubscribers.Set(0)
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(sub.msgs)
	metrics.RealtimeSubscribers.Set(float64(len(h.subs)))
}
