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

type ReportRepository struct {
	database *mongo.Database
}

func NewReportRepository(database *mongo.Database) *ReportRepository {
	repo := &ReportRepository{database: database}
	ensureIndexes(database, reportsCollection, []mongo.IndexModel{
		uniqueIndex("id"),
		index("scope", "scope_id", "generated_at"),
	})
	return repo
}

func (r *ReportRepository) Create(ctx context.Context, report *domain.ComplianceReport) error {
	collection := r.database.Collection(reportsCollection)

	if _, err := collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to create compliance report: %w", wrapTransient("create compliance report", err))
	}
	return nil
}

func (r *ReportRepository) Get(ctx context.Context, id string) (*domain.ComplianceReport, error) {
	collection := r.database.Collection(reportsCollection)

	var report domain.ComplianceReport
	err := collection.FindOne(ctx, bson.M{"id": id}).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get compliance report: %w", wrapTransient("get compliance report", err))
	}
	return &report, nil
}

func (r *ReportRepository) Latest(ctx context.Context, scope domain.ReportScope, scopeID string) (*domain.ComplianceReport, error) {
	collection := r.database.Collection(reportsCollection)

	filter := bson.M{"scope": scope}
	if scopeID != "" {
		filter["scope_id"] = scopeID
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})

	var report domain.ComplianceReport
	err := collection.FindOne(ctx, filter, opts).Decode(&report)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get latest compliance report: %w", wrapTransient("get latest compliance report", err))
	}
	return &report, nil
}
