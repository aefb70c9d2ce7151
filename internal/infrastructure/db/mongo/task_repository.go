package mongo

import (
	"context"
	"errors"
	"iter"
	"maps"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

const collectionTasks = "tasks"

// TaskRepository stores tasks as open documents: the well-known fields plus
// whatever passthrough fields the client sent.
type TaskRepository struct {
	col *mongo.Collection
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: collection(db, collectionTasks)}
}

// ValidID reports whether id is a hex ObjectID.
func (r *TaskRepository) ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func (r *TaskRepository) Count(ctx context.Context, uid, category string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{
		domain.FieldUID:      uid,
		domain.FieldCategory: category,
	})
	if err != nil {
		return 0, domain.WrapStoreError("count tasks", err)
	}
	return n, nil
}

func (r *TaskRepository) Insert(ctx context.Context, t *domain.Task) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(t)
	oid := primitive.NewObjectID()
	doc[domain.FieldStoreID] = oid

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return "", domain.WrapStoreError("insert task", err)
	}
	return oid.Hex(), nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bson.M
	if err := r.col.FindOne(ctx, bson.M{domain.FieldStoreID: oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, domain.WrapStoreError("find task", err)
	}
	return fromDocument(doc), nil
}

// FindOrdered streams the user's tasks sorted by (category, position, _id).
// Each range opens a fresh cursor.
func (r *TaskRepository) FindOrdered(ctx context.Context, uid string) iter.Seq2[*domain.Task, error] {
	return func(yield func(*domain.Task, error) bool) {
		ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
		defer cancel()

		opts := options.Find().SetSort(bson.D{
			{Key: domain.FieldCategory, Value: 1},
			{Key: domain.FieldPosition, Value: 1},
			{Key: domain.FieldStoreID, Value: 1},
		})
		cur, err := r.col.Find(ctx, bson.M{domain.FieldUID: uid}, opts)
		if err != nil {
			yield(nil, domain.WrapStoreError("find tasks", err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var doc bson.M
			if err := cur.Decode(&doc); err != nil {
				yield(nil, domain.WrapStoreError("decode task", err))
				return
			}
			if !yield(fromDocument(doc), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, domain.WrapStoreError("find tasks", err))
		}
	}
}

// UpdateByID applies changes only when at least one of them differs from the
// stored value. It reports false when no document matched, which covers both
// an unknown id and a no-op update.
func (r *TaskRepository) UpdateByID(ctx context.Context, id string, changes map[string]any, now time.Time) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, update := buildUpdate(oid, changes, now)
	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, domain.WrapStoreError("update task", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *TaskRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{domain.FieldStoreID: oid})
	if err != nil {
		return false, domain.WrapStoreError("delete task", err)
	}
	return res.DeletedCount > 0, nil
}

// EnsureIndexes backs the position count and the ordered board query.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: domain.FieldUID, Value: 1},
			{Key: domain.FieldCategory, Value: 1},
			{Key: domain.FieldPosition, Value: 1},
		},
		Options: options.Index().SetName("uid_category_position"),
	})
	if err != nil {
		return domain.WrapStoreError("ensure task indexes", err)
	}
	return nil
}

// buildUpdate returns the filter and aggregation-pipeline update for
// UpdateByID. The filter matches only when some change differs from the stored
// value by exact comparison: an array is not equal to one of its elements and
// an absent field is not equal to null. Values are wrapped in $literal so
// strings beginning with "$" are stored as sent. updatedAt is bumped past its
// previous value even when the clock has not advanced.
func buildUpdate(oid primitive.ObjectID, changes map[string]any, now time.Time) (bson.M, mongo.Pipeline) {
	keys := slices.Sorted(maps.Keys(changes))

	differs := make(bson.A, 0, 2*len(keys))
	set := make(bson.D, 0, len(keys)+1)
	for _, k := range keys {
		v := bson.M{"$literal": changes[k]}
		differs = append(differs,
			bson.M{"$eq": bson.A{bson.M{"$type": "$" + k}, "missing"}},
			bson.M{"$ne": bson.A{"$" + k, v}},
		)
		set = append(set, bson.E{Key: k, Value: v})
	}
	set = append(set, bson.E{Key: domain.FieldUpdatedAt, Value: bson.M{
		"$max": bson.A{now, bson.M{"$add": bson.A{"$" + domain.FieldUpdatedAt, 1}}},
	}})

	filter := bson.M{
		domain.FieldStoreID: oid,
		"$expr":             bson.M{"$or": differs},
	}
	return filter, mongo.Pipeline{{{Key: "$set", Value: set}}}
}

func toDocument(t *domain.Task) bson.M {
	doc := make(bson.M, len(t.Fields)+6)
	for k, v := range t.Fields {
		doc[k] = v
	}
	doc[domain.FieldUID] = t.UID
	doc[domain.FieldTitle] = t.Title
	doc[domain.FieldCategory] = t.Category
	doc[domain.FieldPosition] = t.Position
	doc[domain.FieldCreatedAt] = t.CreatedAt
	doc[domain.FieldUpdatedAt] = t.UpdatedAt
	return doc
}

func fromDocument(doc bson.M) *domain.Task {
	t := &domain.Task{Fields: make(map[string]any)}
	for k, v := range doc {
		switch k {
		case domain.FieldStoreID:
			if oid, ok := v.(primitive.ObjectID); ok {
				t.ID = oid.Hex()
			}
		case domain.FieldUID:
			t.UID, _ = v.(string)
		case domain.FieldTitle:
			t.Title, _ = v.(string)
		case domain.FieldCategory:
			t.Category, _ = v.(string)
		case domain.FieldPosition:
			t.Position, _ = domain.PositionValue(v)
		case domain.FieldCreatedAt:
			t.CreatedAt = timeValue(v)
		case domain.FieldUpdatedAt:
			t.UpdatedAt = timeValue(v)
		default:
			t.Fields[k] = v
		}
	}
	return t
}

func timeValue(v any) time.Time {
	switch ts := v.(type) {
	case primitive.DateTime:
		return ts.Time().UTC()
	case time.Time:
		return ts.UTC()
	}
	return time.Time{}
}
