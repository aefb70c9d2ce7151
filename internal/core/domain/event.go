package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventName identifies a broadcast event type.
type EventName string

const (
	EventTaskCreated EventName = "taskCreated"
	EventTaskUpdated EventName = "taskUpdated"
	EventTaskDeleted EventName = "taskDeleted"
)

// Event is a change notification delivered to every connected subscriber.
// Data is the canonical task for created/updated and the bare id for deleted.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Name      EventName       `json:"event"`
	Data      json.RawMessage `json:"data"`
	EmittedAt time.Time       `json:"emittedAt"`

	// Key groups events that must keep their relative order (the task id).
	Key string `json:"-"`
}

// NewEvent encodes payload as the event data.
func NewEvent(name EventName, key string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", name, err)
	}
	return Event{
		ID:        uuid.New(),
		Name:      name,
		Data:      data,
		EmittedAt: time.Now().UTC(),
		Key:       key,
	}, nil
}
