// Package memory holds in-process implementations of the engine's store
// interfaces. They back tests and local development; production wiring uses
// the mongo and s3 packages.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/makersmarket/lifecycle/internal/domain"
)

// BlobStore is an in-memory object store.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewBlobStore() *BlobStore {
	return &BlobStore{
		objects: make(map[string][]byte),
	}
}

func (s *BlobStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[path] = buf

	return "memory://" + path, nil
}

func (s *BlobStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[path]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (s *BlobStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[path]; !ok {
		return domain.ErrBlobNotFound
	}
	delete(s.objects, path)
	return nil
}

func (s *BlobStore) Exists(ctx context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[path]
	return ok, nil
}

func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	for path := range s.objects {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Len returns the number of stored objects.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// FileRepository is an in-memory metadata store keyed by path.
type FileRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.FileRecord
}

func NewFileRepository() *FileRepository {
	return &FileRepository{
		records: make(map[string]*domain.FileRecord),
	}
}

func (r *FileRepository) Save(ctx context.Context, record *domain.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *record
	r.records[record.Path] = &clone
	return nil
}

func (r *FileRepository) GetByPath(ctx context.Context, path string) (*domain.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[path]
	if !ok {
		return nil, domain.ErrFileNotFound
	}

	clone := *record
	return &clone, nil
}

func (r *FileRepository) Find(ctx context.Context, filter domain.FileFilter) ([]*domain.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.FileRecord
	for _, record := range r.records {
		if !matches(record, filter) {
			continue
		}
		clone := *record
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func matches(record *domain.FileRecord, filter domain.FileFilter) bool {
	if filter.OwnerID != "" && record.OwnerID != filter.OwnerID {
		return false
	}
	if filter.OrganizationID != "" && record.OrganizationID != filter.OrganizationID {
		return false
	}
	if filter.Temporary != nil && record.Temporary != *filter.Temporary {
		return false
	}
	if filter.CreatedAfter != nil && record.CreatedAt.Before(*filter.CreatedAfter) {
		return false
	}
	if filter.CreatedBefore != nil && !record.CreatedAt.Before(*filter.CreatedBefore) {
		return false
	}
	return true
}

func (r *FileRepository) Update(ctx context.Context, record *domain.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.Path]; !ok {
		return domain.ErrFileNotFound
	}

	clone := *record
	r.records[record.Path] = &clone
	return nil
}

func (r *FileRepository) DeleteByPath(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[path]; !ok {
		return domain.ErrFileNotFound
	}
	delete(r.records, path)
	return nil
}

// JobRepository is an in-memory job store.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*domain.CleanupJob
}

func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs: make(map[string]*domain.CleanupJob),
	}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.CleanupJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *job
	r.jobs[job.ID] = &clone
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*domain.CleanupJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}

	clone := *job
	return &clone, nil
}

func (r *JobRepository) Update(ctx context.Context, job *domain.CleanupJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}

	clone := *job
	r.jobs[job.ID] = &clone
	return nil
}

func (r *JobRepository) Find(ctx context.Context, filter domain.JobFilter) ([]*domain.CleanupJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.CleanupJob
	for _, job := range r.jobs {
		if filter.Type != "" && job.Type != filter.Type {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		clone := *job
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// AlertRepository is an in-memory alert store with direct keyed lookups.
type AlertRepository struct {
	mu     sync.RWMutex
	alerts map[string]*domain.StorageAlert
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{
		alerts: make(map[string]*domain.StorageAlert),
	}
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.StorageAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *alert
	r.alerts[alert.ID] = &clone
	return nil
}

func (r *AlertRepository) Get(ctx context.Context, id string) (*domain.StorageAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, ok := r.alerts[id]
	if !ok {
		return nil, domain.ErrAlertNotFound
	}

	clone := *alert
	return &clone, nil
}

func (r *AlertRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, ok := r.alerts[id]
	if !ok {
		return domain.ErrAlertNotFound
	}
	alert.ResolvedAt = &at
	return nil
}

func (r *AlertRepository) Find(ctx context.Context, filter domain.AlertFilter) ([]*domain.StorageAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.StorageAlert
	for _, alert := range r.alerts {
		if filter.Type != "" && alert.Type != filter.Type {
			continue
		}
		if filter.Severity != "" && alert.Severity != filter.Severity {
			continue
		}
		if filter.Resolved != nil && alert.Resolved() != *filter.Resolved {
			continue
		}
		clone := *alert
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ReportRepository is an in-memory compliance report store.
type ReportRepository struct {
	mu      sync.RWMutex
	reports map[string]*domain.ComplianceReport
}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{
		reports: make(map[string]*domain.ComplianceReport),
	}
}

func (r *ReportRepository) Create(ctx context.Context, report *domain.ComplianceReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *report
	r.reports[report.ID] = &clone
	return nil
}

func (r *ReportRepository) Get(ctx context.Context, id string) (*domain.ComplianceReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}

	clone := *report
	return &clone, nil
}

func (r *ReportRepository) Latest(ctx context.Context, scope domain.ReportScope, scopeID string) (*domain.ComplianceReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.ComplianceReport
	for _, report := range r.reports {
		if report.Scope != scope || report.ScopeID != scopeID {
			continue
		}
		if latest == nil || report.GeneratedAt.After(latest.GeneratedAt) {
			latest = report
		}
	}
	if latest == nil {
		return nil, domain.ErrReportNotFound
	}

	clone := *latest
	return &clone, nil
}

// OperationLog is an in-memory operation performance log.
type OperationLog struct {
	mu      sync.RWMutex
	entries []*domain.OperationLogEntry
}

func NewOperationLog() *OperationLog {
	return &OperationLog{}
}

func (l *OperationLog) Append(ctx context.Context, entry *domain.OperationLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	clone := *entry
	l.entries = append(l.entries, &clone)
	return nil
}

func (l *OperationLog) FindRange(ctx context.Context, start, end time.Time) ([]*domain.OperationLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*domain.OperationLogEntry
	for _, entry := range l.entries {
		if entry.Timestamp.Before(start) || !entry.Timestamp.Before(end) {
			continue
		}
		clone := *entry
		out = append(out, &clone)
	}
	return out, nil
}

// UsageSummaryRepository keeps per-user counters. Increments are atomic under
// the repository lock, mirroring the transactional increments the mongo
// implementation performs with $inc.
type UsageSummaryRepository struct {
	mu        sync.RWMutex
	summaries map[string]*domain.UsageSummary
}

func NewUsageSummaryRepository() *UsageSummaryRepository {
	return &UsageSummaryRepository{
		summaries: make(map[string]*domain.UsageSummary),
	}
}

func (r *UsageSummaryRepository) Increment(ctx context.Context, userID string, files int64, bytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary, ok := r.summaries[userID]
	if !ok {
		summary = &domain.UsageSummary{UserID: userID}
		r.summaries[userID] = summary
	}
	summary.FileCount += files
	summary.SizeInBytes += bytes
	summary.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UsageSummaryRepository) Get(ctx context.Context, userID string) (*domain.UsageSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary, ok := r.summaries[userID]
	if !ok {
		return nil, domain.ErrFileNotFound
	}

	clone := *summary
	return &clone, nil
}

func (r *UsageSummaryRepository) All(ctx context.Context) ([]*domain.UsageSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.UsageSummary, 0, len(r.summaries))
	for _, summary := range r.summaries {
		clone := *summary
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// SetQuota sets a user's quota, creating the summary when missing.
func (r *UsageSummaryRepository) SetQuota(ctx context.Context, userID string, quotaBytes int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary, ok := r.summaries[userID]
	if !ok {
		summary = &domain.UsageSummary{UserID: userID}
		r.summaries[userID] = summary
	}
	summary.QuotaBytes = quotaBytes
	return nil
}
