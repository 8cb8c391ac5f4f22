package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/storage/memory"
)

type fixture struct {
	files      *memory.FileRepository
	jobs       *memory.JobRepository
	oplog      *memory.OperationLog
	aggregator *Aggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		files: memory.NewFileRepository(),
		jobs:  memory.NewJobRepository(),
		oplog: memory.NewOperationLog(),
	}
	f.aggregator = NewAggregator(AggregatorDependencies{
		FileRepository:         f.files,
		JobRepository:          f.jobs,
		OperationLogRepository: f.oplog,
		TopUsers:               3,
	})
	return f
}

func window(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, -1, 0), end
}

func (f *fixture) seed(t *testing.T, record *domain.FileRecord) {
	t.Helper()
	require.NoError(t, f.files.Save(context.Background(), record))
}

func TestAggregateTotalsAndDistributions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window(t)
	inWindow := start.Add(24 * time.Hour)

	f.seed(t, &domain.FileRecord{
		Path: "a", OwnerID: "u1", Kind: domain.FileKindAvatar, SizeInBytes: 100,
		AccessTier: domain.AccessTierHot, CreatedAt: inWindow,
		Classification: domain.ClassificationPersonal, RetentionBasis: domain.RetentionBasisConsent,
	})
	f.seed(t, &domain.FileRecord{
		Path: "b", OwnerID: "u1", Kind: domain.FileKindPortfolioMedia, SizeInBytes: 300,
		AccessTier: domain.AccessTierCold, CreatedAt: start.Add(-time.Hour),
	})
	f.seed(t, &domain.FileRecord{
		Path: "c", OwnerID: "u2", Kind: domain.FileKindContract, SizeInBytes: 600,
		AccessTier: domain.AccessTierHot, CreatedAt: inWindow,
	})
	// Created after the window: invisible to the snapshot.
	f.seed(t, &domain.FileRecord{
		Path: "d", OwnerID: "u3", Kind: domain.FileKindAvatar, SizeInBytes: 999,
		CreatedAt: end.Add(time.Hour),
	})

	agg, err := f.aggregator.Aggregate(ctx, domain.PeriodMonthly, &start, &end)
	require.NoError(t, err)

	assert.Equal(t, 3, agg.TotalFiles)
	assert.Equal(t, int64(1000), agg.TotalSize)
	assert.Equal(t, 2, agg.NewFiles)

	hot := agg.ByTier[domain.AccessTierHot]
	assert.Equal(t, 2, hot.Count)
	assert.Equal(t, int64(700), hot.SizeInBytes)
	assert.InDelta(t, 70.0, hot.SizePercent, 0.001)

	cold := agg.ByTier[domain.AccessTierCold]
	assert.Equal(t, 1, cold.Count)
	assert.InDelta(t, 30.0, cold.SizePercent, 0.001)

	// Top users ranked by size, largest first.
	require.Len(t, agg.TopUsers, 2)
	assert.Equal(t, "u2", agg.TopUsers[0].UserID)
	assert.Equal(t, "u1", agg.TopUsers[1].UserID)

	// One file with both classification and retention basis out of three.
	assert.InDelta(t, 1.0/3.0, agg.ComplianceScore, 0.001)
}

// The worked compliance scenario: 100 new files, 40 fully classified, 60 not,
// gives a 40% score.
func TestAggregateComplianceScoreScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window(t)
	inWindow := start.Add(time.Hour)

	perFile := int64(100) << 20
	for i := 0; i < 100; i++ {
		record := &domain.FileRecord{
			Path:        fmt.Sprintf("files/%03d.jpg", i),
			OwnerID:     "u1",
			Kind:        domain.FileKindPortfolioMedia,
			SizeInBytes: perFile,
			CreatedAt:   inWindow,
		}
		if i < 40 {
			record.Classification = domain.ClassificationBusiness
			record.RetentionBasis = domain.RetentionBasisLegitimateInterest
		}
		f.seed(t, record)
	}

	agg, err := f.aggregator.Aggregate(ctx, domain.PeriodMonthly, &start, &end)
	require.NoError(t, err)

	assert.Equal(t, 100, agg.NewFiles)
	assert.Equal(t, 100*perFile, agg.TotalSize)
	assert.InDelta(t, 0.40, agg.ComplianceScore, 0.001)
}

func TestAggregateOperationStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window(t)
	at := start.Add(time.Hour)

	entries := []*domain.OperationLogEntry{
		{Operation: "upload", Duration: 100 * time.Millisecond, SizeInBytes: 1000, Success: true, CacheHit: false, Timestamp: at},
		{Operation: "upload", Duration: 300 * time.Millisecond, SizeInBytes: 3000, Success: true, CacheHit: true, Timestamp: at},
		{Operation: "download", Duration: 50 * time.Millisecond, SizeInBytes: 500, Success: false, CacheHit: true, Timestamp: at},
		// Out of range, ignored.
		{Operation: "upload", Duration: time.Hour, Success: false, Timestamp: end.Add(time.Hour)},
	}
	for _, entry := range entries {
		require.NoError(t, f.oplog.Append(ctx, entry))
	}

	agg, err := f.aggregator.Aggregate(ctx, domain.PeriodMonthly, &start, &end)
	require.NoError(t, err)

	upload := agg.OperationStats["upload"]
	assert.Equal(t, 2, upload.Count)
	assert.Equal(t, 200*time.Millisecond, upload.AverageDuration)
	assert.InDelta(t, 10000, upload.ThroughputBps, 0.001)

	assert.InDelta(t, 2.0/3.0, agg.CacheHitRatio, 0.001)
	assert.InDelta(t, 1.0/3.0, agg.ErrorRatio, 0.001)
}

func TestAggregateTrends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window(t)
	previous := start.Add(-time.Hour)
	current := start.Add(time.Hour)

	// Previous window: 2 uploads. Current window: 4 uploads -> increasing.
	f.seed(t, &domain.FileRecord{Path: "p1", OwnerID: "u1", Kind: domain.FileKindAvatar, SizeInBytes: 10, CreatedAt: previous})
	f.seed(t, &domain.FileRecord{Path: "p2", OwnerID: "u2", Kind: domain.FileKindAvatar, SizeInBytes: 10, CreatedAt: previous})
	for i, path := range []string{"c1", "c2", "c3", "c4"} {
		f.seed(t, &domain.FileRecord{
			Path: path, OwnerID: "u1", Kind: domain.FileKindAvatar,
			SizeInBytes: 100, CreatedAt: current.Add(time.Duration(i) * time.Minute),
		})
	}

	agg, err := f.aggregator.Aggregate(ctx, domain.PeriodMonthly, &start, &end)
	require.NoError(t, err)

	assert.Equal(t, domain.TrendIncreasing, agg.UploadTrend)
	// Snapshot grew from 20 bytes to 420 bytes.
	assert.InDelta(t, 20.0, agg.SizeGrowthRate, 0.001)
	assert.Equal(t, domain.PerformanceStable, agg.PerformanceTrend)
}

func TestAggregateIsDeterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := window(t)
	at := start.Add(time.Hour)

	// Equal sizes force the tie-break path in the top-user ranking.
	for _, owner := range []string{"u3", "u1", "u2"} {
		f.seed(t, &domain.FileRecord{
			Path: "files/" + owner, OwnerID: owner, Kind: domain.FileKindAvatar,
			SizeInBytes: 100, CreatedAt: at,
		})
	}

	first, err := f.aggregator.Aggregate(ctx, domain.PeriodMonthly, &start, &end)
	require.NoError(t, err)
	second, err := f.aggregator.Aggregate(ctx, domain.PeriodMonthly, &start, &end)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"u1", "u2", "u3"}, []string{
		first.TopUsers[0].UserID, first.TopUsers[1].UserID, first.TopUsers[2].UserID,
	})
}

func TestAggregateRejectsInvertedWindow(t *testing.T) {
	f := newFixture(t)
	start, end := window(t)

	_, err := f.aggregator.Aggregate(context.Background(), domain.PeriodMonthly, &end, &start)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}
