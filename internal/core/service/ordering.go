package service

import (
	"context"
	"fmt"
	"iter"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

// OrderingEngine owns the (category, position) ordering of a user's board.
//
// A new task is appended to its category: its position is the number of tasks
// already in that (uid, category) pair. The count is read, not reserved, so two
// concurrent creations into the same category can receive the same position.
// Moves are caller-directed; siblings are never renumbered.
type OrderingEngine struct {
	repo ports.TaskRepository
}

func NewOrderingEngine(repo ports.TaskRepository) *OrderingEngine {
	return &OrderingEngine{repo: repo}
}

// AssignPosition returns the position for a task about to be inserted.
func (o *OrderingEngine) AssignPosition(ctx context.Context, uid, category string) (int64, error) {
	n, err := o.repo.Count(ctx, uid, category)
	if err != nil {
		return 0, fmt.Errorf("assign position: %w", err)
	}
	return n, nil
}

// OrderedView yields every task owned by uid, ascending by category and then
// position. The sequence is lazy and can be ranged over again to re-query.
func (o *OrderingEngine) OrderedView(ctx context.Context, uid string) iter.Seq2[*domain.Task, error] {
	return o.repo.FindOrdered(ctx, uid)
}
