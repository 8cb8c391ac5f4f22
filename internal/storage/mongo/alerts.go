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

type AlertRepository struct {
	database *mongo.Database
}

func NewAlertRepository(database *mongo.Database) *AlertRepository {
	repo := &AlertRepository{database: database}
	ensureIndexes(database, alertsCollection, []mongo.IndexModel{
		uniqueIndex("id"),
		index("type", "severity"),
		index("resolved_at"),
		index("created_at"),
	})
	return repo
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.StorageAlert) error {
	collection := r.database.Collection(alertsCollection)

	if _, err := collection.InsertOne(ctx, alert); err != nil {
		return fmt.Errorf("failed to create storage alert: %w", wrapTransient("create storage alert", err))
	}
	return nil
}

func (r *AlertRepository) Get(ctx context.Context, id string) (*domain.StorageAlert, error) {
	collection := r.database.Collection(alertsCollection)

	var alert domain.StorageAlert
	err := collection.FindOne(ctx, bson.M{"id": id}).Decode(&alert)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get storage alert: %w", wrapTransient("get storage alert", err))
	}
	return &alert, nil
}

// Resolve closes an alert by keyed lookup. Resolving an already-resolved
// alert keeps the original resolution time.
func (r *AlertRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	collection := r.database.Collection(alertsCollection)

	filter := bson.M{"id": id, "resolved_at": nil}
	update := bson.M{"$set": bson.M{"resolved_at": at}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to resolve storage alert: %w", wrapTransient("resolve storage alert", err))
	}
	if result.MatchedCount == 0 {
		// Distinguish missing from already resolved.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (r *AlertRepository) Find(ctx context.Context, filter domain.AlertFilter) ([]*domain.StorageAlert, error) {
	collection := r.database.Collection(alertsCollection)

	mongoFilter := bson.M{}
	if filter.Type != "" {
		mongoFilter["type"] = filter.Type
	}
	if filter.Severity != "" {
		mongoFilter["severity"] = filter.Severity
	}
	if filter.Resolved != nil {
		if *filter.Resolved {
			mongoFilter["resolved_at"] = bson.M{"$ne": nil}
		} else {
			mongoFilter["resolved_at"] = nil
		}
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, mongoFilter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find storage alerts: %w", wrapTransient("find storage alerts", err))
	}
	defer cursor.Close(ctx)

	var alerts []*domain.StorageAlert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode storage alerts: %w", err)
	}
	return alerts, nil
}
