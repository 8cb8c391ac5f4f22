package managers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/executor"
	"github.com/makersmarket/lifecycle/internal/planner"
)

// ErasureManager is the entry point for right-to-erasure requests. It plans
// the user's deletion strategy, opens the audit job, and hands both to the
// executor.
type ErasureManager struct {
	planner  *planner.Planner
	executor *executor.Executor
	jobs     domain.JobRepository
}

type ErasureManagerDependencies struct {
	Planner       *planner.Planner
	Executor      *executor.Executor
	JobRepository domain.JobRepository
}

func NewErasureManager(deps ErasureManagerDependencies) *ErasureManager {
	return &ErasureManager{
		planner:  deps.Planner,
		executor: deps.Executor,
		jobs:     deps.JobRepository,
	}
}

// EraseUser starts an erasure for the user and returns the pending job along
// with the executor's completion signal. The job record is the auditable
// history; callers wait on the channel, never on polled status reads.
func (m *ErasureManager) EraseUser(ctx context.Context, userID string) (*domain.CleanupJob, <-chan executor.Result, error) {
	strategy, err := m.planner.Plan(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to plan erasure for user %s: %w", userID, err)
	}

	job := &domain.CleanupJob{
		ID:        xid.New().String(),
		Type:      domain.JobTypeUserErasure,
		TargetID:  userID,
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.jobs.Create(ctx, job); err != nil {
		return nil, nil, fmt.Errorf("failed to create erasure job: %w", err)
	}

	log.Info().
		Str("job_id", job.ID).
		Str("user_id", userID).
		Int("files", strategy.TotalFiles()).
		Msg("Starting user erasure")

	// The execution context is detached from the caller's: once the job is
	// accepted it runs to completion. A cancelled HTTP request or a closed
	// CLI session must not abort an audited erasure halfway through.
	done := m.executor.ExecuteAsync(context.WithoutCancel(ctx), strategy, job.ID)
	return job, done, nil
}

// EraseUserAndWait runs an erasure synchronously and returns the finished job.
func (m *ErasureManager) EraseUserAndWait(ctx context.Context, userID string) (*domain.CleanupJob, error) {
	job, done, err := m.EraseUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := <-done
	if result.Err != nil {
		return nil, fmt.Errorf("erasure job %s failed: %w", job.ID, result.Err)
	}
	return m.jobs.Get(ctx, job.ID)
}
