package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/makersmarket/lifecycle/internal/domain"
)

// JobRepository is the audit trail for cleanup jobs. Jobs are never deleted.
type JobRepository struct {
	database *mongo.Database
}

func NewJobRepository(database *mongo.Database) *JobRepository {
	repo := &JobRepository{database: database}
	ensureIndexes(database, jobsCollection, []mongo.IndexModel{
		uniqueIndex("id"),
		index("status"),
		index("type", "status"),
		index("created_at"),
	})
	return repo
}

func (r *JobRepository) Create(ctx context.Context, job *domain.CleanupJob) error {
	collection := r.database.Collection(jobsCollection)

	if _, err := collection.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("failed to create cleanup job: %w", wrapTransient("create cleanup job", err))
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*domain.CleanupJob, error) {
	collection := r.database.Collection(jobsCollection)

	var job domain.CleanupJob
	err := collection.FindOne(ctx, bson.M{"id": id}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get cleanup job: %w", wrapTransient("get cleanup job", err))
	}
	return &job, nil
}

func (r *JobRepository) Update(ctx context.Context, job *domain.CleanupJob) error {
	collection := r.database.Collection(jobsCollection)

	result, err := collection.UpdateOne(ctx, bson.M{"id": job.ID}, bson.M{"$set": job})
	if err != nil {
		return fmt.Errorf("failed to update cleanup job: %w", wrapTransient("update cleanup job", err))
	}
	if result.MatchedCount == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) Find(ctx context.Context, filter domain.JobFilter) ([]*domain.CleanupJob, error) {
	collection := r.database.Collection(jobsCollection)

	mongoFilter := bson.M{}
	if filter.Type != "" {
		mongoFilter["type"] = filter.Type
	}
	if filter.Status != "" {
		mongoFilter["status"] = filter.Status
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(int64(filter.Limit))
	}

	cursor, err := collection.Find(ctx, mongoFilter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find cleanup jobs: %w", wrapTransient("find cleanup jobs", err))
	}
	defer cursor.Close(ctx)

	var jobs []*domain.CleanupJob
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode cleanup jobs: %w", err)
	}
	return jobs, nil
}
