package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/executor"
	"github.com/makersmarket/lifecycle/internal/storage/memory"
)

type fixture struct {
	blobs     *memory.BlobStore
	files     *memory.FileRepository
	jobs      *memory.JobRepository
	scheduler *Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	blobs := memory.NewBlobStore()
	files := memory.NewFileRepository()
	jobs := memory.NewJobRepository()

	exec := executor.NewExecutor(executor.ExecutorDependencies{
		BlobStore:      blobs,
		FileRepository: files,
		JobRepository:  jobs,
	})

	return &fixture{
		blobs: blobs,
		files: files,
		jobs:  jobs,
		scheduler: NewScheduler(SchedulerDependencies{
			FileRepository: files,
			BlobStore:      blobs,
			JobRepository:  jobs,
			Executor:       exec,
		}),
	}
}

func (f *fixture) addFile(t *testing.T, record *domain.FileRecord) {
	t.Helper()
	ctx := context.Background()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := f.blobs.Put(ctx, record.Path, []byte("content"), record.ContentType)
	require.NoError(t, err)
	require.NoError(t, f.files.Save(ctx, record))
}

func TestCleanupTempFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	f.addFile(t, &domain.FileRecord{
		Path: "tmp/expired.bin", OwnerID: "u1", Kind: domain.FileKindTempUpload,
		Temporary: true, ExpiresAt: &past,
	})
	f.addFile(t, &domain.FileRecord{
		Path: "tmp/fresh.bin", OwnerID: "u1", Kind: domain.FileKindTempUpload,
		Temporary: true, ExpiresAt: &future,
	})
	f.addFile(t, &domain.FileRecord{
		Path: "users/u1/avatar.png", OwnerID: "u1", Kind: domain.FileKindAvatar,
	})

	job, err := f.scheduler.CleanupTempFiles(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Counters.FilesFound)
	assert.Equal(t, 1, job.Counters.FilesDeleted)

	_, err = f.files.GetByPath(ctx, "tmp/expired.bin")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
	_, err = f.files.GetByPath(ctx, "tmp/fresh.bin")
	assert.NoError(t, err)
	_, err = f.files.GetByPath(ctx, "users/u1/avatar.png")
	assert.NoError(t, err)
}

func TestEnforceRetention(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	threeYearsAgo := time.Now().UTC().Add(-3 * 365 * 24 * time.Hour)

	// Personal file past its two-year policy: deleted.
	f.addFile(t, &domain.FileRecord{
		Path: "users/u1/old-avatar.png", OwnerID: "u1", Kind: domain.FileKindAvatar,
		CreatedAt: threeYearsAgo,
	})
	// Business case study is inside its seven-year window: untouched.
	f.addFile(t, &domain.FileRecord{
		Path: "users/u1/case.pdf", OwnerID: "u1", Kind: domain.FileKindCaseStudy,
		CreatedAt: threeYearsAgo,
	})
	// Contract under legal hold, never touched by enforcement.
	f.addFile(t, &domain.FileRecord{
		Path: "users/u1/contract.pdf", OwnerID: "u1", Kind: domain.FileKindContract,
		CreatedAt: threeYearsAgo,
	})
	// Shared file past its three-year window: anonymized, not deleted.
	f.addFile(t, &domain.FileRecord{
		Path: "users/u1/delivery.zip", OwnerID: "u1", Kind: domain.FileKindProjectFile,
		CreatedAt: time.Now().UTC().Add(-4 * 365 * 24 * time.Hour),
	})

	job, err := f.scheduler.EnforceRetention(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.Counters.FilesFound)
	assert.Equal(t, 1, job.Counters.FilesDeleted)
	assert.Equal(t, 1, job.Counters.FilesAnonymized)

	_, err = f.files.GetByPath(ctx, "users/u1/old-avatar.png")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	contract, err := f.files.GetByPath(ctx, "users/u1/contract.pdf")
	require.NoError(t, err)
	assert.False(t, contract.Anonymized)

	delivery, err := f.files.GetByPath(ctx, "users/u1/delivery.zip")
	require.NoError(t, err)
	assert.True(t, delivery.Anonymized)
}

func TestCleanupOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Healthy pair.
	f.addFile(t, &domain.FileRecord{
		Path: "users/u1/ok.png", OwnerID: "u1", Kind: domain.FileKindAvatar,
	})

	// Metadata without blob: metadata is removed.
	require.NoError(t, f.files.Save(ctx, &domain.FileRecord{
		Path: "users/u1/gone.png", OwnerID: "u1", Kind: domain.FileKindAvatar,
		CreatedAt: time.Now().UTC(),
	}))

	// Blob without metadata: warned about, never auto-deleted.
	_, err := f.blobs.Put(ctx, "users/u1/stray.bin", []byte("x"), "")
	require.NoError(t, err)

	job, err := f.scheduler.CleanupOrphans(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.Counters.FilesFound)
	assert.Equal(t, 1, job.Counters.FilesDeleted)
	require.Len(t, job.Warnings, 1)
	assert.Contains(t, job.Warnings[0], "users/u1/stray.bin")

	_, err = f.files.GetByPath(ctx, "users/u1/gone.png")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	exists, err := f.blobs.Exists(ctx, "users/u1/stray.bin")
	require.NoError(t, err)
	assert.True(t, exists, "orphaned blob must stay until reviewed")

	_, err = f.files.GetByPath(ctx, "users/u1/ok.png")
	assert.NoError(t, err)
}

func TestRunAllProducesThreeJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.scheduler.RunAll(ctx))

	for _, jobType := range []domain.JobType{
		domain.JobTypeTempCleanup,
		domain.JobTypeRetentionEnforcement,
		domain.JobTypeOrphanCleanup,
	} {
		jobs, err := f.jobs.Find(ctx, domain.JobFilter{Type: jobType})
		require.NoError(t, err)
		require.Len(t, jobs, 1, "expected one %s job", jobType)
		assert.Equal(t, domain.JobStatusCompleted, jobs[0].Status)
	}
}
