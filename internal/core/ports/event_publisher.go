package ports

import (
	"context"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// EventPublisher fans an event out to every connected subscriber.
// Delivery is fire-and-forget: there is no acknowledgment and no replay.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
