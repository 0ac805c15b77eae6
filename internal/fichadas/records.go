package fichadas

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordStore is the append-only attendance-event log.
type RecordStore interface {
	Insert(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
	List(ctx context.Context, q ListQuery) ([]AttendanceRecord, error)
}

type MongoRecordStore struct{ c *mongo.Collection }

func NewRecordStore(mdb *mongo.Database) *MongoRecordStore {
	return &MongoRecordStore{c: mdb.Collection(CollectionRecords)}
}

func (s *MongoRecordStore) Insert(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error) {
	res, err := s.c.InsertOne(ctx, rec)
	if err != nil {
		return AttendanceRecord{}, ErrDestination(err)
	}
	rec.ID = res.InsertedID.(primitive.ObjectID)
	return rec, nil
}

func (s *MongoRecordStore) List(ctx context.Context, q ListQuery) ([]AttendanceRecord, error) {
	filter, err := listFilter(q)
	if err != nil {
		return nil, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "fecha", Value: -1}}).
		SetLimit(int64(pageLimit(q.Limit))).
		SetSkip(int64(q.Offset))

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, ErrDestination(err)
	}
	defer cur.Close(ctx)

	var out []AttendanceRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, ErrDestination(err)
	}
	return out, nil
}

// listFilter builds the shared agent/day-range filter for the API views.
func listFilter(q ListQuery) (bson.M, error) {
	filter := bson.M{}
	if q.AgentID != nil && *q.AgentID != "" {
		oid, err := primitive.ObjectIDFromHex(*q.AgentID)
		if err != nil {
			return nil, &SyncError{Code: CodeUnresolvedAgent, Message: "agente must be an ObjectID hex"}
		}
		filter["agente._id"] = oid
	}
	rng := bson.M{}
	if q.From != nil && *q.From != "" {
		t, err := time.ParseInLocation(DateLayout, *q.From, time.UTC)
		if err == nil {
			rng["$gte"] = t
		}
	}
	if q.To != nil && *q.To != "" {
		t, err := time.ParseInLocation(DateLayout, *q.To, time.UTC)
		if err == nil {
			// inclusive end of day
			rng["$lt"] = t.AddDate(0, 0, 1)
		}
	}
	if len(rng) > 0 {
		filter["fecha"] = rng
	}
	return filter, nil
}

func pageLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
