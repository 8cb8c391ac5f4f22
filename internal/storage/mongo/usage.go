package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/makersmarket/lifecycle/internal/domain"
)

// UsageSummaryRepository keeps per-user running counters. Increment uses a
// single $inc upsert so concurrent writers for the same user never lose
// updates.
type UsageSummaryRepository struct {
	database *mongo.Database
}

func NewUsageSummaryRepository(database *mongo.Database) *UsageSummaryRepository {
	repo := &UsageSummaryRepository{database: database}
	ensureIndexes(database, usageCollection, []mongo.IndexModel{
		uniqueIndex("user_id"),
	})
	return repo
}

func (r *UsageSummaryRepository) Increment(ctx context.Context, userID string, files int64, bytes int64) error {
	collection := r.database.Collection(usageCollection)

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$inc": bson.M{
			"file_count":    files,
			"size_in_bytes": bytes,
		},
		"$set":         bson.M{"updated_at": time.Now().UTC()},
		"$setOnInsert": bson.M{"user_id": userID},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to increment usage summary: %w", wrapTransient("increment usage summary", err))
	}
	return nil
}

func (r *UsageSummaryRepository) Get(ctx context.Context, userID string) (*domain.UsageSummary, error) {
	collection := r.database.Collection(usageCollection)

	var summary domain.UsageSummary
	err := collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&summary)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get usage summary: %w", wrapTransient("get usage summary", err))
	}
	return &summary, nil
}

func (r *UsageSummaryRepository) All(ctx context.Context) ([]*domain.UsageSummary, error) {
	collection := r.database.Collection(usageCollection)

	cursor, err := collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list usage summaries: %w", wrapTransient("list usage summaries", err))
	}
	defer cursor.Close(ctx)

	var summaries []*domain.UsageSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode usage summaries: %w", err)
	}
	return summaries, nil
}

// SetQuota sets a user's quota, creating the summary when missing.
func (r *UsageSummaryRepository) SetQuota(ctx context.Context, userID string, quotaBytes int64) error {
	collection := r.database.Collection(usageCollection)

	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$set": bson.M{
			"quota_bytes": quotaBytes,
			"updated_at":  time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"user_id": userID},
	}
	opts := options.Update().SetUpsert(true)

	if _, err := collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to set usage quota: %w", wrapTransient("set usage quota", err))
	}
	return nil
}
