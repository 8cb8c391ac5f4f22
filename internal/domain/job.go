package domain

import (
	"fmt"
	"time"
)

type JobType string

const (
	JobTypeUserErasure          JobType = "user_erasure"
	JobTypeTempCleanup          JobType = "temp_cleanup"
	JobTypeRetentionEnforcement JobType = "retention_enforcement"
	JobTypeOrphanCleanup        JobType = "orphan_cleanup"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// CanTransitionTo enforces the monotonic job lifecycle
// pending -> in_progress -> {completed, failed}. There are no back-transitions.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusInProgress || next == JobStatusFailed
	case JobStatusInProgress:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// JobCounters tracks what a job has actually done so far. Counters are only
// incremented after the corresponding store write has been acknowledged and
// are non-decreasing while the job is in progress.
type JobCounters struct {
	FilesFound       int   `bson:"files_found" json:"files_found"`
	FilesDeleted     int   `bson:"files_deleted" json:"files_deleted"`
	FilesAnonymized  int   `bson:"files_anonymized" json:"files_anonymized"`
	FilesTransferred int   `bson:"files_transferred" json:"files_transferred"`
	FilesRetained    int   `bson:"files_retained" json:"files_retained"`
	FilesFailed      int   `bson:"files_failed" json:"files_failed"`
	BytesDeleted     int64 `bson:"bytes_deleted" json:"bytes_deleted"`
}

// Processed is the number of files the job has finished handling, whatever
// the outcome for each.
func (c JobCounters) Processed() int {
	return c.FilesDeleted + c.FilesAnonymized + c.FilesTransferred + c.FilesRetained + c.FilesFailed
}

// CleanupJob is the persisted, auditable record of one lifecycle batch
// operation. Jobs are never deleted, only appended to.
type CleanupJob struct {
	ID          string      `bson:"id" json:"id"`
	Type        JobType     `bson:"type" json:"type"`
	TargetID    string      `bson:"target_id" json:"target_id"`
	Status      JobStatus   `bson:"status" json:"status"`
	Counters    JobCounters `bson:"counters" json:"counters"`
	Progress    float64     `bson:"progress" json:"progress"`
	Errors      []string    `bson:"errors,omitempty" json:"errors,omitempty"`
	Warnings    []string    `bson:"warnings,omitempty" json:"warnings,omitempty"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	StartedAt   *time.Time  `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt *time.Time  `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Transition moves the job to the next status, rejecting any move the
// lifecycle does not allow.
func (j *CleanupJob) Transition(next JobStatus, now time.Time) error {
	if !j.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid job status transition %s -> %s", j.Status, next)
	}
	j.Status = next
	switch next {
	case JobStatusInProgress:
		j.StartedAt = &now
	case JobStatusCompleted, JobStatusFailed:
		j.CompletedAt = &now
	}
	return nil
}

// UpdateProgress recomputes the progress percentage from the counters.
func (j *CleanupJob) UpdateProgress() {
	if j.Counters.FilesFound == 0 {
		j.Progress = 100
		return
	}
	j.Progress = float64(j.Counters.Processed()) / float64(j.Counters.FilesFound) * 100
}
