package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/makersmarket/lifecycle/internal/domain"
)

// OperationLog is append-only; entries feed the analytics aggregator and the
// health monitor's 24h error window.
type OperationLog struct {
	database *mongo.Database
}

func NewOperationLog(database *mongo.Database) *OperationLog {
	repo := &OperationLog{database: database}
	ensureIndexes(database, oplogCollection, []mongo.IndexModel{
		index("timestamp"),
		index("operation", "timestamp"),
	})
	return repo
}

func (r *OperationLog) Append(ctx context.Context, entry *domain.OperationLogEntry) error {
	collection := r.database.Collection(oplogCollection)

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append operation log entry: %w", wrapTransient("append operation log entry", err))
	}
	return nil
}

func (r *OperationLog) FindRange(ctx context.Context, start, end time.Time) ([]*domain.OperationLogEntry, error) {
	collection := r.database.Collection(oplogCollection)

	filter := bson.M{"timestamp": bson.M{"$gte": start, "$lt": end}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find operation log entries: %w", wrapTransient("find operation log entries", err))
	}
	defer cursor.Close(ctx)

	var entries []*domain.OperationLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode operation log entries: %w", err)
	}
	return entries, nil
}
