package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"
	"time"
)

func TestTask_MarshalJSON_FlattensFields(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:        "65f000000000000000000001",
		UID:       "u1",
		Title:     "Write report",
		Category:  "Doing",
		Position:  3,
		CreatedAt: created,
		UpdatedAt: created,
		Fields: map[string]any{
			"description": "quarterly numbers",
			"title":       "shadowed",
		},
	}

	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["id"] != task.ID {
		t.Errorf("id: got %v", got["id"])
	}
	if got["title"] != "Write report" {
		t.Errorf("well-known field must win over passthrough, got %v", got["title"])
	}
	if got["description"] != "quarterly numbers" {
		t.Errorf("passthrough field lost: %v", got["description"])
	}
	if got["position"] != float64(3) {
		t.Errorf("position: got %v", got["position"])
	}
	if got["createdAt"] != "2026-03-01T12:00:00Z" {
		t.Errorf("createdAt: got %v", got["createdAt"])
	}
}

func TestCompareTasks_CategoryThenPositionThenID(t *testing.T) {
	tasks := []*Task{
		{ID: "c", Category: "To-Do", Position: 1},
		{ID: "a", Category: "Done", Position: 5},
		{ID: "b", Category: "To-Do", Position: 0},
		{ID: "e", Category: "Doing", Position: 2},
		{ID: "d", Category: "To-Do", Position: 1},
	}

	slices.SortFunc(tasks, CompareTasks)

	var order []string
	for _, task := range tasks {
		order = append(order, task.ID)
	}
	want := []string{"e", "a", "b", "c", "d"}
	if !slices.Equal(order, want) {
		t.Fatalf("order: got %v, want %v", order, want)
	}
}

func TestPositionValue(t *testing.T) {
	cases := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{float64(4), 4, true},
		{float64(0), 0, true},
		{float64(-1), 0, false},
		{1.5, 0, false},
		{int64(7), 7, true},
		{int32(2), 2, true},
		{9, 9, true},
		{json.Number("12"), 12, true},
		{json.Number("1.2"), 0, false},
		{float64(math.MaxInt64), 0, false},
		{float64(1 << 62), 1 << 62, true},
		{json.Number("9223372036854775807"), math.MaxInt64, true},
		{"3", 0, false},
		{nil, 0, false},
	}

	for _, tc := range cases {
		got, ok := PositionValue(tc.in)
		if ok != tc.wantOK || (ok && got != tc.want) {
			t.Errorf("PositionValue(%#v) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestFieldClassification(t *testing.T) {
	if !IsReservedField("position") || IsReservedField("uid") {
		t.Error("position is server-assigned on create, uid is caller-supplied")
	}
	if !IsImmutableField("uid") || IsImmutableField("category") {
		t.Error("uid is immutable, category is caller-directed")
	}
}

func TestStoreError_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("create task: %w", WrapStoreError("insert task", cause))

	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError in chain")
	}
	if !errors.Is(err, cause) {
		t.Error("StoreError must unwrap to its cause")
	}
	if WrapStoreError("noop", nil) != nil {
		t.Error("nil cause must stay nil")
	}
}

func TestNewEvent_EncodesPayload(t *testing.T) {
	evt, err := NewEvent(EventTaskDeleted, "abc", "abc")
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if string(evt.Data) != `"abc"` {
		t.Errorf("deleted event data must be the bare id, got %s", evt.Data)
	}
	if evt.Key != "abc" || evt.Name != EventTaskDeleted {
		t.Errorf("unexpected event: %+v", evt)
	}

	raw, _ := json.Marshal(evt)
	var wire map[string]any
	_ = json.Unmarshal(raw, &wire)
	if wire["event"] != "taskDeleted" {
		t.Errorf("wire name: %v", wire["event"])
	}
	if _, leaked := wire["Key"]; leaked {
		t.Error("routing key must not be serialized")
	}
}

func TestValidFieldName(t *testing.T) {
	for _, ok := range []string{"description", "labels", "due_at"} {
		if !ValidFieldName(ok) {
			t.Errorf("%q should be accepted", ok)
		}
	}
	for _, bad := range []string{"", "$set", "a.b"} {
		if ValidFieldName(bad) {
			t.Errorf("%q should be rejected", bad)
		}
	}
}
