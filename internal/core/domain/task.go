package domain

import (
	"cmp"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// DefaultCategory is applied to tasks created without a category.
const DefaultCategory = "To-Do"

// Well-known task fields. Anything else a caller sends is stored verbatim.
const (
	FieldID        = "id"
	FieldStoreID   = "_id"
	FieldUID       = "uid"
	FieldTitle     = "title"
	FieldCategory  = "category"
	FieldPosition  = "position"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Task is a single card on a user's board.
//
// Category and Position form the ordering key inside a user's board; positions are
// neither contiguous nor unique. Fields holds caller-supplied attributes that the
// core does not interpret (description, labels, due dates...).
type Task struct {
	ID        string
	UID       string
	Title     string
	Category  string
	Position  int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Fields    map[string]any
}

// MarshalJSON flattens the passthrough fields next to the well-known ones.
// Well-known fields always win over a passthrough key with the same name.
func (t Task) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Fields)+7)
	for k, v := range t.Fields {
		out[k] = v
	}
	out[FieldID] = t.ID
	out[FieldUID] = t.UID
	out[FieldTitle] = t.Title
	out[FieldCategory] = t.Category
	out[FieldPosition] = t.Position
	out[FieldCreatedAt] = t.CreatedAt
	out[FieldUpdatedAt] = t.UpdatedAt
	return json.Marshal(out)
}

// CompareTasks orders tasks by category, then position, then id. It is the same
// order the store produces for a board listing.
func CompareTasks(a, b *Task) int {
	if c := strings.Compare(a.Category, b.Category); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// IsReservedField reports whether key is managed by the service and must not be
// taken from a create payload.
func IsReservedField(key string) bool {
	switch key {
	case FieldID, FieldStoreID, FieldPosition, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// IsImmutableField reports whether key may never change after creation.
func IsImmutableField(key string) bool {
	switch key {
	case FieldID, FieldStoreID, FieldUID, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// ValidFieldName rejects names the store would read as operators or paths.
func ValidFieldName(key string) bool {
	return key != "" && !strings.HasPrefix(key, "$") && !strings.Contains(key, ".")
}

// PositionValue converts a decoded JSON/BSON number into a position.
// It rejects negative and fractional values.
func PositionValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), n >= 0
	case int32:
		return int64(n), n >= 0
	case int64:
		return n, n >= 0
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
		if n < 0 || n != math.Trunc(n) || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, i >= 0
	}
	return 0, false
}
