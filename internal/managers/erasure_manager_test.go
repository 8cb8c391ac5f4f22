package managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/executor"
	"github.com/makersmarket/lifecycle/internal/planner"
	"github.com/makersmarket/lifecycle/internal/storage/memory"
)

type erasureFixture struct {
	blobs   *memory.BlobStore
	files   *memory.FileRepository
	jobs    *memory.JobRepository
	manager *ErasureManager
}

func newErasureFixture(t *testing.T) *erasureFixture {
	t.Helper()

	f := &erasureFixture{
		blobs: memory.NewBlobStore(),
		files: memory.NewFileRepository(),
		jobs:  memory.NewJobRepository(),
	}
	exec := executor.NewExecutor(executor.ExecutorDependencies{
		BlobStore:              f.blobs,
		FileRepository:         f.files,
		JobRepository:          f.jobs,
		UsageSummaryRepository: memory.NewUsageSummaryRepository(),
	})
	f.manager = NewErasureManager(ErasureManagerDependencies{
		Planner:       planner.NewPlanner(planner.PlannerDependencies{FileRepository: f.files}),
		Executor:      exec,
		JobRepository: f.jobs,
	})
	return f
}

func (f *erasureFixture) addFile(t *testing.T, record *domain.FileRecord, content []byte) {
	t.Helper()
	ctx := context.Background()

	record.CreatedAt = time.Now().UTC().Add(-time.Hour)
	record.SizeInBytes = int64(len(content))
	_, err := f.blobs.Put(ctx, record.Path, content, record.ContentType)
	require.NoError(t, err)
	require.NoError(t, f.files.Save(ctx, record))
}

func TestEraseUserAndWait(t *testing.T) {
	f := newErasureFixture(t)
	ctx := context.Background()

	f.addFile(t, &domain.FileRecord{
		Path:           "uploads/u1/avatar.png",
		OwnerID:        "u1",
		OwnerType:      domain.OwnerTypeUser,
		Kind:           domain.FileKindAvatar,
		Classification: domain.ClassificationPersonal,
	}, []byte("avatar bytes"))

	job, err := f.manager.EraseUserAndWait(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, domain.JobTypeUserErasure, job.Type)
	assert.Equal(t, "u1", job.TargetID)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Counters.FilesDeleted)

	exists, err := f.blobs.Exists(ctx, "uploads/u1/avatar.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

// An erasure accepted over HTTP must run to completion even though the
// request context is recycled as soon as the 202 goes out.
func TestEraseUserSurvivesCallerCancellation(t *testing.T) {
	f := newErasureFixture(t)

	f.addFile(t, &domain.FileRecord{
		Path:           "uploads/u1/id-scan.pdf",
		OwnerID:        "u1",
		OwnerType:      domain.OwnerTypeUser,
		Kind:           domain.FileKindIdentityDocument,
		Classification: domain.ClassificationPersonal,
	}, []byte("identity scan"))

	ctx, cancel := context.WithCancel(context.Background())
	job, done, err := f.manager.EraseUser(ctx, "u1")
	require.NoError(t, err)
	cancel()

	result := <-done
	require.NoError(t, result.Err)

	finished, err := f.jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, finished.Status)
	assert.Equal(t, 1, finished.Counters.FilesDeleted)
	assert.Empty(t, finished.Warnings)
}
