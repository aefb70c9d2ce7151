package ports

import (
	"context"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// TaskService is the request/response contract for board mutations. Every
// successful mutation is also broadcast to all subscribers.
type TaskService interface {
	ListTasks(ctx context.Context, uid string) ([]*domain.Task, error)
	CreateTask(ctx context.Context, payload map[string]any) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, payload map[string]any) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) (bool, error)
}
