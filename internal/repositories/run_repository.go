package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pianosheets/internal/models"
)

const (
	defaultRecentRuns = 20
	maxRecentRuns     = 100
)

// RunRepository stores collector run summaries
type RunRepository interface {
	Save(ctx context.Context, run *models.RunSummary) error
	Recent(ctx context.Context, limit int) ([]*models.RunSummary, error)
}

// mongoRunRepository implements RunRepository using MongoDB
type mongoRunRepository struct {
	collection *mongo.Collection
}

// NewMongoRunRepository creates a new MongoDB-backed run repository
func NewMongoRunRepository(db *models.Database) RunRepository {
	return &mongoRunRepository{
		collection: db.DB.Collection(models.RunsCollection),
	}
}

// Save inserts the run, replacing any earlier document with the same run id
func (r *mongoRunRepository) Save(ctx context.Context, run *models.RunSummary) error {
	if run.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"run_id": run.RunID}, run, opts); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// Recent returns the newest runs first
func (r *mongoRunRepository) Recent(ctx context.Context, limit int) ([]*models.RunSummary, error) {
	limit = ClampLimit(limit)

	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []*models.RunSummary
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}
	if runs == nil {
		runs = make([]*models.RunSummary, 0)
	}
	return runs, nil
}

// ClampLimit applies the default and upper bound to a requested run count
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentRuns
	}
	if limit > maxRecentRuns {
		return maxRecentRuns
	}
	return limit
}
