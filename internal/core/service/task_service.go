package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

// TaskService applies board mutations and broadcasts the canonical result.
//
// After every write the task is re-read from the store so that the response and
// the broadcast carry exactly what was persisted.
type TaskService struct {
	repo      ports.TaskRepository
	ordering  *OrderingEngine
	publisher ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

var _ ports.TaskService = (*TaskService)(nil)

func NewTaskService(repo ports.TaskRepository, publisher ports.EventPublisher, log zerolog.Logger) *TaskService {
	return &TaskService{
		repo:      repo,
		ordering:  NewOrderingEngine(repo),
		publisher: publisher,
		log:       log,
		now:       utcNow,
	}
}

// ListTasks returns the user's board in (category, position) order.
func (s *TaskService) ListTasks(ctx context.Context, uid string) ([]*domain.Task, error) {
	if uid == "" {
		return nil, domain.NewValidationError(domain.FieldUID, "User ID (uid) is required")
	}

	tasks := make([]*domain.Task, 0)
	for task, err := range s.ordering.OrderedView(ctx, uid) {
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// CreateTask appends a task to the end of its category and broadcasts taskCreated.
func (s *TaskService) CreateTask(ctx context.Context, payload map[string]any) (*domain.Task, error) {
	uid, err := requiredString(payload, domain.FieldUID, "User ID (uid) is required")
	if err != nil {
		return nil, err
	}
	title, err := requiredString(payload, domain.FieldTitle, "Title is required")
	if err != nil {
		return nil, err
	}
	category, err := categoryOf(payload)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	for k, v := range payload {
		switch {
		case domain.IsReservedField(k):
		case k == domain.FieldUID, k == domain.FieldTitle, k == domain.FieldCategory:
		case !domain.ValidFieldName(k):
			return nil, domain.NewValidationError(k, "invalid field name")
		default:
			fields[k] = v
		}
	}

	position, err := s.ordering.AssignPosition(ctx, uid, category)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	now := s.now()
	task := &domain.Task{
		UID:       uid,
		Title:     title,
		Category:  category,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
		Fields:    fields,
	}

	id, err := s.repo.Insert(ctx, task)
	if err != nil {
		s.log.Error().Err(err).Str("uid", uid).Msg("failed to insert task")
		return nil, fmt.Errorf("create task: %w", err)
	}

	canonical, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create task: reload %s: %w", id, err)
	}

	s.publish(ctx, domain.EventTaskCreated, canonical.ID, canonical)
	s.log.Info().
		Str("task_id", canonical.ID).
		Str("uid", uid).
		Str("category", canonical.Category).
		Int64("position", canonical.Position).
		Msg("task created")

	return canonical, nil
}

// UpdateTask merges payload into the task and broadcasts taskUpdated. A missing
// task and an update that changes nothing both yield domain.ErrTaskNotFound.
func (s *TaskService) UpdateTask(ctx context.Context, id string, payload map[string]any) (*domain.Task, error) {
	if !s.repo.ValidID(id) {
		return nil, domain.NewValidationError(domain.FieldID, "Invalid task id")
	}

	changes, err := updateChanges(payload)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("update task %s: %w", id, domain.ErrTaskNotFound)
	}

	matched, err := s.repo.UpdateByID(ctx, id, changes, s.now())
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	if !matched {
		return nil, fmt.Errorf("update task %s: %w", id, domain.ErrTaskNotFound)
	}

	canonical, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update task %s: reload: %w", id, err)
	}

	s.publish(ctx, domain.EventTaskUpdated, canonical.ID, canonical)
	s.log.Info().Str("task_id", id).Int("fields", len(changes)).Msg("task updated")

	return canonical, nil
}

// DeleteTask removes the task and broadcasts its id on taskDeleted. Deleting an
// id that does not exist succeeds with deleted=false.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (bool, error) {
	if !s.repo.ValidID(id) {
		return false, domain.NewValidationError(domain.FieldID, "Invalid task id")
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete task %s: %w", id, err)
	}

	s.publish(ctx, domain.EventTaskDeleted, id, id)
	s.log.Info().Str("task_id", id).Bool("deleted", deleted).Msg("task deleted")

	return deleted, nil
}

// publish is fire-and-forget: a failed broadcast never fails the mutation.
func (s *TaskService) publish(ctx context.Context, name domain.EventName, key string, payload any) {
	evt, err := domain.NewEvent(name, key, payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", string(name)).Msg("failed to build event")
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		s.log.Warn().Err(err).Str("event", string(name)).Str("key", key).Msg("failed to publish event")
	}
}

func requiredString(payload map[string]any, field, missing string) (string, error) {
	v, ok := payload[field]
	if !ok || v == nil {
		return "", domain.NewValidationError(field, missing)
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.NewValidationError(field, field+" must be a string")
	}
	if s == "" {
		return "", domain.NewValidationError(field, missing)
	}
	return s, nil
}

func categoryOf(payload map[string]any) (string, error) {
	v, ok := payload[domain.FieldCategory]
	if !ok || v == nil {
		return domain.DefaultCategory, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", domain.NewValidationError(domain.FieldCategory, "category must be a string")
	}
	if s == "" {
		return domain.DefaultCategory, nil
	}
	return s, nil
}

// updateChanges drops immutable fields and validates the ones the ordering
// depends on. Everything else is merged as sent.
func updateChanges(payload map[string]any) (map[string]any, error) {
	changes := make(map[string]any, len(payload))
	for k, v := range payload {
		if domain.IsImmutableField(k) {
			continue
		}
		switch k {
		case domain.FieldTitle:
			title, ok := v.(string)
			if !ok || title == "" {
				return nil, domain.NewValidationError(k, "Title is required")
			}
			changes[k] = title
		case domain.FieldCategory:
			category, err := categoryOf(map[string]any{k: v})
			if err != nil {
				return nil, err
			}
			changes[k] = category
		case domain.FieldPosition:
			position, ok := domain.PositionValue(v)
			if !ok {
				return nil, domain.NewValidationError(k, "position must be a non-negative integer")
			}
			changes[k] = position
		default:
			if !domain.ValidFieldName(k) {
				return nil, domain.NewValidationError(k, "invalid field name")
			}
			changes[k] = v
		}
	}
	return changes, nil
}
