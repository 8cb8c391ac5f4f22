// Package executor carries out planned deletion strategies against the blob
// store and the metadata store, tracking progress on a persisted cleanup job.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/metrics"
)

const (
	defaultConcurrency = 5
	maxAttempts        = 3
	retryBaseDelay     = 100 * time.Millisecond
)

type Executor struct {
	blobs     domain.BlobStore
	files     domain.FileRepository
	jobs      domain.JobRepository
	summaries domain.UsageSummaryRepository
	oplog     domain.OperationLogRepository

	concurrency int
}

type ExecutorDependencies struct {
	BlobStore              domain.BlobStore
	FileRepository         domain.FileRepository
	JobRepository          domain.JobRepository
	UsageSummaryRepository domain.UsageSummaryRepository

	// OperationLogRepository is optional; when set, every per-file operation
	// is recorded for the analytics aggregator and the health monitor.
	OperationLogRepository domain.OperationLogRepository

	// Concurrency bounds parallel per-file operations within a phase.
	// Defaults to 5 to keep load on the external stores bounded.
	Concurrency int
}

func NewExecutor(deps ExecutorDependencies) *Executor {
	concurrency := deps.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Executor{
		blobs:       deps.BlobStore,
		files:       deps.FileRepository,
		jobs:        deps.JobRepository,
		summaries:   deps.UsageSummaryRepository,
		oplog:       deps.OperationLogRepository,
		concurrency: concurrency,
	}
}

// Result is the terminal outcome of a job, delivered on the channel returned
// by ExecuteAsync.
type Result struct {
	JobID string
	Err   error
}

// ExecuteAsync runs Execute in the background and signals completion on the
// returned channel, so callers wait on the push signal instead of polling the
// job record and racing its last status write.
func (e *Executor) ExecuteAsync(ctx context.Context, strategy *domain.DeletionStrategy, jobID string) <-chan Result {
	done := make(chan Result, 1)

	go func() {
		done <- Result{JobID: jobID, Err: e.Execute(ctx, strategy, jobID)}
	}()

	return done
}

// Execute processes the strategy's four lists under the given job. Per-file
// failures become warnings and never abort the batch; only orchestration
// failures (the job record itself cannot be read or written) fail the job.
// Re-running plan+execute after a failure is safe: already-deleted files are
// simply not found by the next plan.
func (e *Executor) Execute(ctx context.Context, strategy *domain.DeletionStrategy, jobID string) error {
	started := time.Now()

	job, err := e.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	if err := job.Transition(domain.JobStatusInProgress, time.Now().UTC()); err != nil {
		return err
	}
	job.Counters.FilesFound = strategy.TotalFiles()
	if err := e.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to start job %s: %w", jobID, err)
	}

	run := &jobRun{job: job}

	e.runDeletePhase(ctx, run, strategy.Delete)
	if err := e.checkpoint(ctx, run); err != nil {
		return e.fail(ctx, run, started, err)
	}

	e.runAnonymizePhase(ctx, run, strategy.Anonymize)
	if err := e.checkpoint(ctx, run); err != nil {
		return e.fail(ctx, run, started, err)
	}

	e.runTransferPhase(ctx, run, strategy.Transfer)
	if err := e.checkpoint(ctx, run); err != nil {
		return e.fail(ctx, run, started, err)
	}

	e.runRetainPhase(ctx, run, strategy.Retain)

	run.mu.Lock()
	err = job.Transition(domain.JobStatusCompleted, time.Now().UTC())
	job.UpdateProgress()
	run.mu.Unlock()
	if err != nil {
		return e.fail(ctx, run, started, err)
	}

	if err := e.jobs.Update(ctx, job); err != nil {
		return e.fail(ctx, run, started, fmt.Errorf("failed to complete job %s: %w", jobID, err))
	}

	metrics.JobDuration.WithLabelValues(string(job.Type), string(job.Status)).Observe(time.Since(started).Seconds())

	log.Info().
		Str("job_id", job.ID).
		Str("type", string(job.Type)).
		Int("deleted", job.Counters.FilesDeleted).
		Int("anonymized", job.Counters.FilesAnonymized).
		Int("transferred", job.Counters.FilesTransferred).
		Int("retained", job.Counters.FilesRetained).
		Int("warnings", len(job.Warnings)).
		Msg("Cleanup job completed")

	return nil
}

// jobRun guards the shared job record while worker goroutines report results.
type jobRun struct {
	mu  sync.Mutex
	job *domain.CleanupJob
}

func (r *jobRun) recordWarning(op, path string, err error) {
	metrics.FileOperationFailures.WithLabelValues(op).Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.job.Counters.FilesFailed++
	r.job.Warnings = append(r.job.Warnings, fmt.Sprintf("%s %s: %v", op, path, err))
}

// logOperation records one per-file operation for analytics. Log failures
// are not worth failing the batch over.
func (e *Executor) logOperation(ctx context.Context, operation string, started time.Time, size int64, opErr error) {
	if e.oplog == nil {
		return
	}

	entry := &domain.OperationLogEntry{
		ID:          xid.New().String(),
		Operation:   operation,
		Duration:    time.Since(started),
		SizeInBytes: size,
		Success:     opErr == nil,
		Timestamp:   time.Now().UTC(),
	}
	if err := e.oplog.Append(ctx, entry); err != nil {
		log.Warn().Err(err).Str("operation", operation).Msg("Failed to append operation log entry")
	}
}

// checkpoint persists the running counters after a sub-phase. A failed
// checkpoint is an orchestration error: the job record is the audit trail,
// and continuing without it would leave work unaccounted for.
func (e *Executor) checkpoint(ctx context.Context, run *jobRun) error {
	run.mu.Lock()
	run.job.UpdateProgress()
	snapshot := *run.job
	run.mu.Unlock()

	if err := e.jobs.Update(ctx, &snapshot); err != nil {
		return fmt.Errorf("failed to checkpoint job %s: %w", snapshot.ID, err)
	}
	return nil
}

func (e *Executor) fail(ctx context.Context, run *jobRun, started time.Time, cause error) error {
	run.mu.Lock()
	job := run.job
	job.Errors = append(job.Errors, cause.Error())
	transitionErr := job.Transition(domain.JobStatusFailed, time.Now().UTC())
	snapshot := *job
	run.mu.Unlock()

	if transitionErr == nil {
		if err := e.jobs.Update(ctx, &snapshot); err != nil {
			log.Error().Err(err).Str("job_id", snapshot.ID).Msg("Failed to persist failed job status")
		}
	}

	metrics.JobDuration.WithLabelValues(string(snapshot.Type), string(domain.JobStatusFailed)).Observe(time.Since(started).Seconds())

	return cause
}

func (e *Executor) runDeletePhase(ctx context.Context, run *jobRun, paths []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, path := range paths {
		g.Go(func() error {
			opStarted := time.Now()
			size, err := e.DeleteFile(ctx, path)
			e.logOperation(ctx, "delete", opStarted, size, err)
			if err != nil {
				run.recordWarning("delete", path, err)
				return nil
			}

			metrics.FilesDeleted.Inc()
			metrics.BytesDeleted.Add(float64(size))

			run.mu.Lock()
			run.job.Counters.FilesDeleted++
			run.job.Counters.BytesDeleted += size
			run.mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
}

// DeleteFile removes the blob first and the metadata record second. Metadata
// deletion is the commit point: if the blob delete fails, the record stays so
// the failure is visible and retryable. An already-missing file counts as
// deleted. Returns the size of the removed content.
func (e *Executor) DeleteFile(ctx context.Context, path string) (int64, error) {
	record, err := e.files.GetByPath(ctx, path)
	if err != nil {
		if domain.IsNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load record: %w", err)
	}

	err = withRetry(ctx, func() error {
		deleteErr := e.blobs.Delete(ctx, path)
		if deleteErr != nil && domain.IsNotFound(deleteErr) {
			// Blob already gone; the metadata delete below is the commit.
			return nil
		}
		return deleteErr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete blob: %w", err)
	}

	err = withRetry(ctx, func() error {
		return e.files.DeleteByPath(ctx, path)
	})
	if err != nil && !domain.IsNotFound(err) {
		return 0, fmt.Errorf("failed to delete metadata: %w", err)
	}

	if e.summaries != nil && record.OwnerID != "" {
		if err := e.summaries.Increment(ctx, record.OwnerID, -1, -record.SizeInBytes); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to decrement usage summary")
		}
	}

	return record.SizeInBytes, nil
}

func (e *Executor) runAnonymizePhase(ctx context.Context, run *jobRun, targets []domain.AnonymizeTarget) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, target := range targets {
		g.Go(func() error {
			opStarted := time.Now()
			err := e.AnonymizeFile(ctx, target)
			e.logOperation(ctx, "anonymize", opStarted, 0, err)
			if err != nil {
				run.recordWarning("anonymize", target.Path, err)
				return nil
			}

			metrics.FilesAnonymized.Inc()

			run.mu.Lock()
			run.job.Counters.FilesAnonymized++
			run.mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
}

// AnonymizeFile rewrites the identifying metadata of one record while
// preserving its business fields. Already-anonymized records are skipped,
// which keeps re-runs idempotent. The retention scheduler reuses this
// primitive for single-file enforcement.
func (e *Executor) AnonymizeFile(ctx context.Context, target domain.AnonymizeTarget) error {
	record, err := e.files.GetByPath(ctx, target.Path)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}

	if record.Anonymized {
		return nil
	}

	anonymizeRecord(record, target.NewOwnerID, target.NewOwnerType, time.Now().UTC())

	err = withRetry(ctx, func() error {
		return e.files.Update(ctx, record)
	})
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

func (e *Executor) runTransferPhase(ctx context.Context, run *jobRun, targets []domain.TransferTarget) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, target := range targets {
		g.Go(func() error {
			opStarted := time.Now()
			err := e.transferFile(ctx, target)
			e.logOperation(ctx, "transfer", opStarted, 0, err)
			if err != nil {
				run.recordWarning("transfer", target.Path, err)
				return nil
			}

			metrics.FilesTransferred.Inc()

			run.mu.Lock()
			run.job.Counters.FilesTransferred++
			run.mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
}

// transferFile moves ownership of a shared file. Content and classification
// are preserved; only the owner, the uploader token, and the transfer reason
// change.
func (e *Executor) transferFile(ctx context.Context, target domain.TransferTarget) error {
	record, err := e.files.GetByPath(ctx, target.Path)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}

	record.OwnerID = target.NewOwnerID
	record.OwnerType = target.NewOwnerType
	record.UploaderToken = "transferred-" + target.NewOwnerID
	record.TransferReason = target.Reason

	err = withRetry(ctx, func() error {
		return e.files.Update(ctx, record)
	})
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

func (e *Executor) runRetainPhase(ctx context.Context, run *jobRun, targets []domain.RetainTarget) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, target := range targets {
		g.Go(func() error {
			opStarted := time.Now()
			err := e.retainFile(ctx, target)
			e.logOperation(ctx, "retain", opStarted, 0, err)
			if err != nil {
				run.recordWarning("retain", target.Path, err)
				return nil
			}

			run.mu.Lock()
			run.job.Counters.FilesRetained++
			run.mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
}

// retainFile keeps the record but anonymizes its personal identifiers and
// pins the retention basis, reason, and computed expiry. Content is neither
// deleted nor moved.
func (e *Executor) retainFile(ctx context.Context, target domain.RetainTarget) error {
	record, err := e.files.GetByPath(ctx, target.Path)
	if err != nil {
		return fmt.Errorf("failed to load record: %w", err)
	}

	now := time.Now().UTC()
	if !record.Anonymized {
		anonymizeRecord(record, domain.PlatformOwnerID, domain.OwnerTypePlatform, now)
	}
	record.RetentionBasis = target.Basis
	record.RetainReason = target.Reason
	if record.ExpiresAt == nil {
		expiry := record.CreatedAt.Add(target.Period)
		record.ExpiresAt = &expiry
	}

	err = withRetry(ctx, func() error {
		return e.files.Update(ctx, record)
	})
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

// withRetry retries transient store errors with linear backoff. Permanent
// errors return immediately.
func withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op()
		if err == nil || !domain.IsTransient(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBaseDelay * time.Duration(attempt)):
		}
	}
	return err
}
