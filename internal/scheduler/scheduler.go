// Package scheduler runs the unattended retention and cleanup scans. Each
// scan produces its own cleanup job so every unattended decision leaves an
// auditable trail.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/makersmarket/lifecycle/internal/classification"
	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/executor"
)

type Scheduler struct {
	files    domain.FileRepository
	blobs    domain.BlobStore
	jobs     domain.JobRepository
	executor *executor.Executor

	cron *cron.Cron
}

type SchedulerDependencies struct {
	FileRepository domain.FileRepository
	BlobStore      domain.BlobStore
	JobRepository  domain.JobRepository
	Executor       *executor.Executor
}

func NewScheduler(deps SchedulerDependencies) *Scheduler {
	return &Scheduler{
		files:    deps.FileRepository,
		blobs:    deps.BlobStore,
		jobs:     deps.JobRepository,
		executor: deps.Executor,
		cron:     cron.New(),
	}
}

// Start registers the three scans on their cron schedules and starts the
// timer goroutine. Empty specs disable the corresponding scan.
func (s *Scheduler) Start(ctx context.Context, tempSpec, retentionSpec, orphanSpec string) error {
	register := func(spec, name string, scan func(context.Context) (*domain.CleanupJob, error)) error {
		if spec == "" {
			return nil
		}
		_, err := s.cron.AddFunc(spec, func() {
			if _, err := scan(ctx); err != nil {
				log.Error().Err(err).Str("scan", name).Msg("Scheduled scan failed")
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s scan: %w", name, err)
		}
		return nil
	}

	if err := register(tempSpec, "temp-cleanup", s.CleanupTempFiles); err != nil {
		return err
	}
	if err := register(retentionSpec, "retention-enforcement", s.EnforceRetention); err != nil {
		return err
	}
	if err := register(orphanSpec, "orphan-cleanup", s.CleanupOrphans); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron timer and waits for running scans to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunAll executes the three scans once, back to back. The CLI uses it for
// manual triggers.
func (s *Scheduler) RunAll(ctx context.Context) error {
	if _, err := s.CleanupTempFiles(ctx); err != nil {
		return err
	}
	if _, err := s.EnforceRetention(ctx); err != nil {
		return err
	}
	_, err := s.CleanupOrphans(ctx)
	return err
}

// CleanupTempFiles deletes temporary files whose expiry has passed, through
// the same delete primitive user erasure uses.
func (s *Scheduler) CleanupTempFiles(ctx context.Context) (*domain.CleanupJob, error) {
	return s.runScan(ctx, domain.JobTypeTempCleanup, func(ctx context.Context, job *domain.CleanupJob) error {
		temporary := true
		records, err := s.files.Find(ctx, domain.FileFilter{Temporary: &temporary})
		if err != nil {
			return fmt.Errorf("failed to scan temporary files: %w", err)
		}

		now := time.Now().UTC()
		var expired []*domain.FileRecord
		for _, record := range records {
			if record.ExpiresAt != nil && record.ExpiresAt.Before(now) {
				expired = append(expired, record)
			}
		}
		job.Counters.FilesFound = len(expired)

		for _, record := range expired {
			size, err := s.executor.DeleteFile(ctx, record.Path)
			if err != nil {
				job.Counters.FilesFailed++
				job.Warnings = append(job.Warnings, fmt.Sprintf("delete %s: %v", record.Path, err))
				continue
			}
			job.Counters.FilesDeleted++
			job.Counters.BytesDeleted += size
		}
		return nil
	})
}

// EnforceRetention handles files whose retention period has elapsed and whose
// basis is not a legal obligation: personal and public files are deleted,
// business and shared files are anonymized.
func (s *Scheduler) EnforceRetention(ctx context.Context) (*domain.CleanupJob, error) {
	return s.runScan(ctx, domain.JobTypeRetentionEnforcement, func(ctx context.Context, job *domain.CleanupJob) error {
		records, err := s.files.Find(ctx, domain.FileFilter{})
		if err != nil {
			return fmt.Errorf("failed to scan files: %w", err)
		}

		now := time.Now().UTC()
		var elapsed []*domain.FileRecord
		for _, record := range records {
			if record.HasLegalHold(now) {
				continue
			}
			class := classification.Classify(record)
			policy := classification.RetentionPolicyFor(class, record.Kind)
			if now.After(record.CreatedAt.Add(policy.Period)) {
				elapsed = append(elapsed, record)
			}
		}
		job.Counters.FilesFound = len(elapsed)

		for _, record := range elapsed {
			switch classification.Classify(record) {
			case domain.ClassificationPersonal, domain.ClassificationPublic:
				size, err := s.executor.DeleteFile(ctx, record.Path)
				if err != nil {
					job.Counters.FilesFailed++
					job.Warnings = append(job.Warnings, fmt.Sprintf("delete %s: %v", record.Path, err))
					continue
				}
				job.Counters.FilesDeleted++
				job.Counters.BytesDeleted += size
			default:
				newOwnerID, newOwnerType := domain.PlatformOwnerID, domain.OwnerTypePlatform
				if record.OrganizationID != "" {
					newOwnerID, newOwnerType = record.OrganizationID, domain.OwnerTypeOrganization
				}
				err := s.executor.AnonymizeFile(ctx, domain.AnonymizeTarget{
					Path:         record.Path,
					NewOwnerID:   newOwnerID,
					NewOwnerType: newOwnerType,
				})
				if err != nil {
					job.Counters.FilesFailed++
					job.Warnings = append(job.Warnings, fmt.Sprintf("anonymize %s: %v", record.Path, err))
					continue
				}
				job.Counters.FilesAnonymized++
			}
		}
		return nil
	})
}

// CleanupOrphans removes metadata records whose blob is gone. Blobs without
// metadata are only reported: deleting blob content with no paper trail is
// unsafe, so they stay until someone looks.
func (s *Scheduler) CleanupOrphans(ctx context.Context) (*domain.CleanupJob, error) {
	return s.runScan(ctx, domain.JobTypeOrphanCleanup, func(ctx context.Context, job *domain.CleanupJob) error {
		records, err := s.files.Find(ctx, domain.FileFilter{})
		if err != nil {
			return fmt.Errorf("failed to scan files: %w", err)
		}

		known := make(map[string]struct{}, len(records))
		for _, record := range records {
			known[record.Path] = struct{}{}

			exists, err := s.blobs.Exists(ctx, record.Path)
			if err != nil {
				job.Counters.FilesFailed++
				job.Warnings = append(job.Warnings, fmt.Sprintf("check %s: %v", record.Path, err))
				continue
			}
			if exists {
				continue
			}

			job.Counters.FilesFound++
			if err := s.files.DeleteByPath(ctx, record.Path); err != nil {
				job.Counters.FilesFailed++
				job.Warnings = append(job.Warnings, fmt.Sprintf("delete metadata %s: %v", record.Path, err))
				continue
			}
			job.Counters.FilesDeleted++
		}

		paths, err := s.blobs.List(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, path := range paths {
			if _, ok := known[path]; ok {
				continue
			}
			job.Counters.FilesFound++
			job.Warnings = append(job.Warnings, fmt.Sprintf("orphaned blob %s has no metadata record", path))
			log.Warn().Str("path", path).Msg("Orphaned blob object, not auto-deleted")
		}
		return nil
	})
}

// runScan wraps one scan in a persisted cleanup job with the standard status
// lifecycle. Scan-level errors fail the job; per-file problems are warnings
// accumulated by the scan itself.
func (s *Scheduler) runScan(ctx context.Context, jobType domain.JobType, scan func(context.Context, *domain.CleanupJob) error) (*domain.CleanupJob, error) {
	now := time.Now().UTC()
	job := &domain.CleanupJob{
		ID:        xid.New().String(),
		Type:      jobType,
		TargetID:  "system",
		Status:    domain.JobStatusPending,
		CreatedAt: now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create %s job: %w", jobType, err)
	}

	if err := job.Transition(domain.JobStatusInProgress, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to start %s job: %w", jobType, err)
	}

	scanErr := scan(ctx, job)

	job.UpdateProgress()
	if scanErr != nil {
		job.Errors = append(job.Errors, scanErr.Error())
		if err := job.Transition(domain.JobStatusFailed, time.Now().UTC()); err != nil {
			return nil, err
		}
	} else {
		if err := job.Transition(domain.JobStatusCompleted, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to finish %s job: %w", jobType, err)
	}

	log.Info().
		Str("job_id", job.ID).
		Str("type", string(jobType)).
		Int("found", job.Counters.FilesFound).
		Int("deleted", job.Counters.FilesDeleted).
		Int("anonymized", job.Counters.FilesAnonymized).
		Int("warnings", len(job.Warnings)).
		Msg("Scan finished")

	return job, scanErr
}
