package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Config struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// Connect opens a client and verifies the primary is reachable.
func Connect(ctx context.Context, c Config) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(c.URL).
		SetConnectTimeout(3*time.Second).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("opening mongo connection: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	return client.Database(c.Database), nil
}

// Disconnect closes the client behind a database handle.
func Disconnect(ctx context.Context, mdb *mongo.Database) error {
	if mdb == nil {
		return nil
	}
	return mdb.Client().Disconnect(ctx)
}
