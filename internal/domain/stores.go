package domain

import (
	"context"
	"time"
)

// BlobStore is the hosted object store holding file content. The engine
// consumes it, it does not implement it beyond thin adapters.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// FileFilter narrows FileRepository queries. Zero values mean "no constraint".
type FileFilter struct {
	OwnerID        string
	OrganizationID string
	Temporary      *bool
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}

// FileRepository is the metadata store view over FileRecord documents.
type FileRepository interface {
	Save(ctx context.Context, record *FileRecord) error
	GetByPath(ctx context.Context, path string) (*FileRecord, error)
	Find(ctx context.Context, filter FileFilter) ([]*FileRecord, error)
	Update(ctx context.Context, record *FileRecord) error
	DeleteByPath(ctx context.Context, path string) error
}

// JobFilter narrows JobRepository queries for monitoring tooling.
type JobFilter struct {
	Type   JobType
	Status JobStatus
	Limit  int
}

type JobRepository interface {
	Create(ctx context.Context, job *CleanupJob) error
	Get(ctx context.Context, id string) (*CleanupJob, error)
	Update(ctx context.Context, job *CleanupJob) error
	Find(ctx context.Context, filter JobFilter) ([]*CleanupJob, error)
}

// AlertFilter narrows AlertRepository queries.
type AlertFilter struct {
	Type     AlertType
	Severity Severity
	Resolved *bool
}

type AlertRepository interface {
	Create(ctx context.Context, alert *StorageAlert) error
	Get(ctx context.Context, id string) (*StorageAlert, error)
	Resolve(ctx context.Context, id string, at time.Time) error
	Find(ctx context.Context, filter AlertFilter) ([]*StorageAlert, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *ComplianceReport) error
	Get(ctx context.Context, id string) (*ComplianceReport, error)
	Latest(ctx context.Context, scope ReportScope, scopeID string) (*ComplianceReport, error)
}

// OperationLogRepository records per-operation performance entries and serves
// them back to the analytics aggregator.
type OperationLogRepository interface {
	Append(ctx context.Context, entry *OperationLogEntry) error
	FindRange(ctx context.Context, start, end time.Time) ([]*OperationLogEntry, error)
}

// UsageSummaryRepository maintains per-user running counters. Increment must
// be atomic at the store level so concurrent uploads and deletes for the same
// user never lose updates.
type UsageSummaryRepository interface {
	Increment(ctx context.Context, userID string, files int64, bytes int64) error
	Get(ctx context.Context, userID string) (*UsageSummary, error)
	All(ctx context.Context) ([]*UsageSummary, error)
}
