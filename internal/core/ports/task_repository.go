package ports

import (
	"context"
	"iter"
	"time"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

// TaskRepository is the document store holding tasks. Single-document
// operations are atomic; nothing else is.
type TaskRepository interface {
	// ValidID reports whether id has the store's identifier syntax.
	ValidID(id string) bool

	// Count returns the number of tasks for the exact (uid, category) pair.
	Count(ctx context.Context, uid, category string) (int64, error)

	// Insert persists a new task and returns the store-generated id.
	Insert(ctx context.Context, task *domain.Task) (string, error)

	// FindByID returns domain.ErrTaskNotFound when no task has the id.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// FindOrdered streams every task owned by uid sorted by category, position
	// and id. Each call runs a fresh query.
	FindOrdered(ctx context.Context, uid string) iter.Seq2[*domain.Task, error]

	// UpdateByID merges changes into the task and bumps updatedAt to a value
	// strictly after the previous one (never earlier than now). It reports
	// false when no task has the id or when every change equals the stored value.
	UpdateByID(ctx context.Context, id string, changes map[string]any, now time.Time) (bool, error)

	// DeleteByID removes the task. Deleting a missing id is not an error.
	DeleteByID(ctx context.Context, id string) (bool, error)
}
