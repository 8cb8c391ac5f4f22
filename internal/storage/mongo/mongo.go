// Package mongo implements the metadata-store repositories on MongoDB.
package mongo

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/makersmarket/lifecycle/internal/domain"
)

const (
	filesCollection    = "lifecycle_files"
	jobsCollection     = "lifecycle_jobs"
	alertsCollection   = "lifecycle_alerts"
	reportsCollection  = "lifecycle_reports"
	oplogCollection    = "lifecycle_operation_log"
	usageCollection    = "lifecycle_usage_summaries"
	ensureIndexTimeout = 30 * time.Second
)

// wrapTransient marks timeouts and network failures as retriable so the
// executor's retry loop can tell them apart from permanent errors.
func wrapTransient(op string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return &domain.TransientStoreError{Op: op, Err: err}
	}
	return err
}

func ensureIndexes(database *mongo.Database, collection string, indexes []mongo.IndexModel) {
	ctx, cancel := context.WithTimeout(context.Background(), ensureIndexTimeout)
	defer cancel()

	_, err := database.Collection(collection).Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Warn().Err(err).Str("collection", collection).Msg("Failed to create indexes")
	}
}

func uniqueIndex(keys ...string) mongo.IndexModel {
	doc := bson.D{}
	for _, key := range keys {
		doc = append(doc, bson.E{Key: key, Value: 1})
	}
	return mongo.IndexModel{Keys: doc, Options: options.Index().SetUnique(true)}
}

func index(keys ...string) mongo.IndexModel {
	doc := bson.D{}
	for _, key := range keys {
		doc = append(doc, bson.E{Key: key, Value: 1})
	}
	return mongo.IndexModel{Keys: doc}
}
