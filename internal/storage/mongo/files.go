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

// FileRepository stores FileRecord documents keyed by logical path.
type FileRepository struct {
	database *mongo.Database
}

func NewFileRepository(database *mongo.Database) *FileRepository {
	repo := &FileRepository{database: database}
	ensureIndexes(database, filesCollection, []mongo.IndexModel{
		uniqueIndex("path"),
		index("owner_id"),
		index("organization_id"),
		index("temporary", "expires_at"),
		index("created_at"),
	})
	return repo
}

func (r *FileRepository) Save(ctx context.Context, record *domain.FileRecord) error {
	collection := r.database.Collection(filesCollection)

	if record.Path == "" {
		return &domain.ValidationError{Field: "path", Reason: "must not be empty"}
	}

	filter := bson.M{"path": record.Path}
	update := bson.M{"$set": record}
	opts := options.Update().SetUpsert(true)

	if _, err := collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save file record: %w", wrapTransient("save file record", err))
	}
	return nil
}

func (r *FileRepository) GetByPath(ctx context.Context, path string) (*domain.FileRecord, error) {
	collection := r.database.Collection(filesCollection)

	var record domain.FileRecord
	err := collection.FindOne(ctx, bson.M{"path": path}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file record: %w", wrapTransient("get file record", err))
	}
	return &record, nil
}

func (r *FileRepository) Find(ctx context.Context, filter domain.FileFilter) ([]*domain.FileRecord, error) {
	collection := r.database.Collection(filesCollection)

	mongoFilter := bson.M{}
	if filter.OwnerID != "" {
		mongoFilter["owner_id"] = filter.OwnerID
	}
	if filter.OrganizationID != "" {
		mongoFilter["organization_id"] = filter.OrganizationID
	}
	if filter.Temporary != nil {
		mongoFilter["temporary"] = *filter.Temporary
	}

	createdAt := bson.M{}
	if filter.CreatedAfter != nil {
		createdAt["$gte"] = *filter.CreatedAfter
	}
	if filter.CreatedBefore != nil {
		createdAt["$lt"] = *filter.CreatedBefore
	}
	if len(createdAt) > 0 {
		mongoFilter["created_at"] = createdAt
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "path", Value: 1}})

	cursor, err := collection.Find(ctx, mongoFilter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find file records: %w", wrapTransient("find file records", err))
	}
	defer cursor.Close(ctx)

	var records []*domain.FileRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode file records: %w", err)
	}
	return records, nil
}

func (r *FileRepository) Update(ctx context.Context, record *domain.FileRecord) error {
	collection := r.database.Collection(filesCollection)

	result, err := collection.UpdateOne(ctx, bson.M{"path": record.Path}, bson.M{"$set": record})
	if err != nil {
		return fmt.Errorf("failed to update file record: %w", wrapTransient("update file record", err))
	}
	if result.MatchedCount == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}

func (r *FileRepository) DeleteByPath(ctx context.Context, path string) error {
	collection := r.database.Collection(filesCollection)

	result, err := collection.DeleteOne(ctx, bson.M{"path": path})
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", wrapTransient("delete file record", err))
	}
	if result.DeletedCount == 0 {
		return domain.ErrFileNotFound
	}
	return nil
}
