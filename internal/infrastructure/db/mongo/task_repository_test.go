package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

func TestToDocument_WellKnownFieldsWin(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task := &domain.Task{
		UID:       "u1",
		Title:     "A",
		Category:  "Doing",
		Position:  2,
		CreatedAt: now,
		UpdatedAt: now,
		Fields:    map[string]any{"title": "shadow", "description": "d"},
	}

	doc := toDocument(task)

	if doc["title"] != "A" {
		t.Errorf("title: got %v", doc["title"])
	}
	if doc["position"] != int64(2) {
		t.Errorf("position must be stored as int64, got %T", doc["position"])
	}
	if doc["description"] != "d" {
		t.Errorf("passthrough lost: %v", doc)
	}
	if _, ok := doc["_id"]; ok {
		t.Error("_id is assigned on insert")
	}
}

func TestFromDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	doc := bson.M{
		"_id":       oid,
		"uid":       "u1",
		"title":     "A",
		"category":  "To-Do",
		"position":  int32(4),
		"createdAt": primitive.NewDateTimeFromTime(created),
		"updatedAt": primitive.NewDateTimeFromTime(created.Add(time.Second)),
		"labels":    bson.A{"x"},
	}

	task := fromDocument(doc)

	if task.ID != oid.Hex() {
		t.Errorf("id: got %q", task.ID)
	}
	if task.Position != 4 {
		t.Errorf("int32 positions must decode, got %d", task.Position)
	}
	if !task.CreatedAt.Equal(created) || task.CreatedAt.Location() != time.UTC {
		t.Errorf("createdAt: got %v", task.CreatedAt)
	}
	if !task.UpdatedAt.After(task.CreatedAt) {
		t.Errorf("updatedAt: got %v", task.UpdatedAt)
	}
	if _, ok := task.Fields["labels"]; !ok {
		t.Error("passthrough field missing")
	}
	if _, ok := task.Fields["_id"]; ok {
		t.Error("_id must not leak into passthrough fields")
	}
}

func TestBuildUpdate(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	filter, pipeline := buildUpdate(oid, map[string]any{"title": "B", "category": "Done"}, now)

	if filter["_id"] != oid {
		t.Errorf("filter must select by _id, got %v", filter)
	}
	differs := changeClauses(t, filter)
	if len(differs) != 4 {
		t.Fatalf("expected a missing check and a $ne per change, got %v", differs)
	}
	// Keys are sorted so the filter is deterministic.
	if operand := differs[1].(bson.M)["$ne"].(bson.A); operand[0] != "$category" {
		t.Errorf("clauses not sorted: %v", differs)
	}

	if len(pipeline) != 1 || pipeline[0][0].Key != "$set" {
		t.Fatalf("expected a single $set stage, got %v", pipeline)
	}
	set := pipeline[0][0].Value.(bson.D)
	if len(set) != 3 {
		t.Fatalf("expected 2 changes plus updatedAt, got %v", set)
	}
	if set[1].Key != "title" || set[1].Value.(bson.M)["$literal"] != "B" {
		t.Errorf("values must be literal, got %v", set[1])
	}
	if set[2].Key != "updatedAt" {
		t.Errorf("updatedAt must be bumped last, got %v", set[2].Key)
	}
}

func changeClauses(t *testing.T, filter bson.M) bson.A {
	t.Helper()
	expr, ok := filter["$expr"].(bson.M)
	if !ok {
		t.Fatalf("change detection must be an $expr, got %v", filter)
	}
	differs, ok := expr["$or"].(bson.A)
	if !ok {
		t.Fatalf("expected an $or of comparisons, got %v", expr)
	}
	return differs
}

// Query operators treat {tags: {$ne: "a"}} as false for tags ["a","b"] and
// {note: {$ne: null}} as false for an absent note. The filter has to compare
// whole values instead.
func TestBuildUpdate_ComparesWholeValues(t *testing.T) {
	oid := primitive.NewObjectID()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	cases := []struct {
		name  string
		field string
		value any
	}{
		{"array replaced by element", "tags", "a"},
		{"absent field set to null", "note", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			filter, _ := buildUpdate(oid, map[string]any{tc.field: tc.value}, now)

			if _, ok := filter[tc.field]; ok {
				t.Fatalf("field must not be matched with query operators: %v", filter)
			}
			differs := changeClauses(t, filter)
			if len(differs) != 2 {
				t.Fatalf("expected two clauses, got %v", differs)
			}

			missing := differs[0].(bson.M)["$eq"].(bson.A)
			if missing[0].(bson.M)["$type"] != "$"+tc.field || missing[1] != "missing" {
				t.Errorf("absent field must count as a change, got %v", missing)
			}

			ne := differs[1].(bson.M)["$ne"].(bson.A)
			if ne[0] != "$"+tc.field {
				t.Errorf("must compare the stored value, got %v", ne[0])
			}
			if lit, ok := ne[1].(bson.M); !ok || lit["$literal"] != tc.value {
				t.Errorf("new value must be a literal, got %v", ne[1])
			}
		})
	}
}

func TestTaskRepository_ValidID(t *testing.T) {
	r := &TaskRepository{}
	if !r.ValidID(primitive.NewObjectID().Hex()) {
		t.Error("ObjectID hex should be valid")
	}
	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if r.ValidID(bad) {
			t.Errorf("%q should be invalid", bad)
		}
	}
}
