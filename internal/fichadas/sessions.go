package fichadas

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionStore is the mutable daily-session cache.
type SessionStore interface {
	Insert(ctx context.Context, s DailySession) (DailySession, error)
	SetExit(ctx context.Context, id primitive.ObjectID, exit time.Time) error
	// FindOpenInWindow returns the most recent open session (entrance set,
	// exit null) for the agent whose day falls in [from, to], both
	// day-truncated, or nil when none exists.
	FindOpenInWindow(ctx context.Context, agentID primitive.ObjectID, from, to time.Time) (*DailySession, error)
	List(ctx context.Context, q ListQuery) ([]DailySession, error)
}

type MongoSessionStore struct{ c *mongo.Collection }

func NewSessionStore(mdb *mongo.Database) *MongoSessionStore {
	return &MongoSessionStore{c: mdb.Collection(CollectionSessions)}
}

func (s *MongoSessionStore) Insert(ctx context.Context, sess DailySession) (DailySession, error) {
	res, err := s.c.InsertOne(ctx, sess)
	if err != nil {
		return DailySession{}, ErrDestination(err)
	}
	sess.ID = res.InsertedID.(primitive.ObjectID)
	return sess, nil
}

func (s *MongoSessionStore) SetExit(ctx context.Context, id primitive.ObjectID, exit time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"salida": exit}})
	if err != nil {
		return ErrDestination(err)
	}
	return nil
}

func (s *MongoSessionStore) FindOpenInWindow(ctx context.Context, agentID primitive.ObjectID, from, to time.Time) (*DailySession, error) {
	filter := bson.M{
		"agente._id": agentID,
		"entrada":    bson.M{"$ne": nil},
		"salida":     nil,
		"fecha":      bson.M{"$gte": from, "$lte": to},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "fecha", Value: -1}})

	var sess DailySession
	err := s.c.FindOne(ctx, filter, opts).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, ErrDestination(err)
	}
	return &sess, nil
}

func (s *MongoSessionStore) List(ctx context.Context, q ListQuery) ([]DailySession, error) {
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

	var out []DailySession
	if err := cur.All(ctx, &out); err != nil {
		return nil, ErrDestination(err)
	}
	return out, nil
}
