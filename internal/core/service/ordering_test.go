package service

import (
	"context"
	"errors"
	"testing"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

func TestOrderingEngine_AssignPosition_CountsCategory(t *testing.T) {
	repo := newStubTaskRepo()
	repo.tasks["000000000000000000000001"] = &domain.Task{ID: "000000000000000000000001", UID: "u1", Category: "To-Do"}
	repo.tasks["000000000000000000000002"] = &domain.Task{ID: "000000000000000000000002", UID: "u1", Category: "To-Do", Position: 5}
	repo.tasks["000000000000000000000003"] = &domain.Task{ID: "000000000000000000000003", UID: "u1", Category: "Done"}
	engine := NewOrderingEngine(repo)

	// Gaps do not matter: the next position is the count.
	pos, err := engine.AssignPosition(context.Background(), "u1", "To-Do")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if pos != 2 {
		t.Errorf("expected 2, got %d", pos)
	}

	pos, _ = engine.AssignPosition(context.Background(), "u2", "To-Do")
	if pos != 0 {
		t.Errorf("other users' tasks must not count, got %d", pos)
	}
}

func TestOrderingEngine_AssignPosition_WrapsError(t *testing.T) {
	repo := newStubTaskRepo()
	cause := errors.New("socket closed")
	repo.countErr = domain.WrapStoreError("count tasks", cause)

	_, err := NewOrderingEngine(repo).AssignPosition(context.Background(), "u1", "To-Do")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestOrderingEngine_OrderedView_RequeriesOnEachRange(t *testing.T) {
	repo := newStubTaskRepo()
	repo.tasks["000000000000000000000001"] = &domain.Task{ID: "000000000000000000000001", UID: "u1", Category: "To-Do"}
	view := NewOrderingEngine(repo).OrderedView(context.Background(), "u1")

	count := func() int {
		n := 0
		for _, err := range view {
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			n++
		}
		return n
	}

	if got := count(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	repo.tasks["000000000000000000000002"] = &domain.Task{ID: "000000000000000000000002", UID: "u1", Category: "Done"}
	if got := count(); got != 2 {
		t.Errorf("second range must see the new task, got %d", got)
	}
}

func TestOrderingEngine_OrderedView_StopsEarly(t *testing.T) {
	repo := newStubTaskRepo()
	for _, id := range []string{"000000000000000000000001", "000000000000000000000002", "000000000000000000000003"} {
		repo.tasks[id] = &domain.Task{ID: id, UID: "u1", Category: "To-Do"}
	}

	var first *domain.Task
	for task, err := range NewOrderingEngine(repo).OrderedView(context.Background(), "u1") {
		if err != nil {
			t.Fatalf("range: %v", err)
		}
		first = task
		break
	}
	if first == nil || first.ID != "000000000000000000000001" {
		t.Errorf("unexpected first task: %+v", first)
	}
}
