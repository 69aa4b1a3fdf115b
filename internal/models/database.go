package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunsCollection holds one document per collector run
const RunsCollection = "collector_runs"

// Database represents the database connection
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase creates a new database connection
func NewDatabase(ctx context.Context, mongoURL, dbName string) (*Database, error) {
	clientOptions := options.Client().
		ApplyURI(mongoURL).
		SetMaxPoolSize(10).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &Database{
		Client: client,
		DB:     client.Database(dbName),
	}, nil
}

// Close closes the database connection
func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// CreateIndexes creates the indexes used by run history queries
func (d *Database) CreateIndexes(ctx context.Context) error {
	runs := d.DB.Collection(RunsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "started_at", Value: -1}},
		},
	}

	_, err := runs.Indexes().CreateMany(ctx, indexes)
	return err
}
