package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/storage/memory"
)

type fakeCache struct {
	entries map[string]*domain.UsageAggregate
	hits    int
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.UsageAggregate)}
}

func (c *fakeCache) Get(ctx context.Context, period domain.AggregationPeriod, start, end time.Time) (*domain.UsageAggregate, bool) {
	aggregate, ok := c.entries[cacheKey(period, start, end)]
	if ok {
		c.hits++
	}
	return aggregate, ok
}

func (c *fakeCache) Put(ctx context.Context, aggregate *domain.UsageAggregate) {
	c.puts++
	c.entries[cacheKey(aggregate.Period, aggregate.StartTime, aggregate.EndTime)] = aggregate
}

func newCachedAggregator(t *testing.T, cache AggregateCache) (*Aggregator, *memory.FileRepository) {
	t.Helper()

	files := memory.NewFileRepository()
	aggregator := NewAggregator(AggregatorDependencies{
		FileRepository:         files,
		JobRepository:          memory.NewJobRepository(),
		OperationLogRepository: memory.NewOperationLog(),
		Cache:                  cache,
	})
	return aggregator, files
}

func TestAggregateReturnsCachedWindow(t *testing.T) {
	cache := newFakeCache()
	aggregator, files := newCachedAggregator(t, cache)
	ctx := context.Background()

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	require.NoError(t, files.Save(ctx, &domain.FileRecord{
		Path:      "files/report.pdf",
		OwnerID:   "u1",
		Kind:      domain.FileKindProjectFile,
		CreatedAt: start.Add(time.Hour),
	}))

	first, err := aggregator.Aggregate(ctx, domain.PeriodMonthly, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalFiles)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, 0, cache.hits)

	// Poke the cached entry so a hit is distinguishable from a recompute.
	cache.entries[cacheKey(domain.PeriodMonthly, start, end)].TotalFiles = 999

	second, err := aggregator.Aggregate(ctx, domain.PeriodMonthly, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 999, second.TotalFiles)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.puts)
}

// Two back-to-back calls without an explicit window must land on the same
// cache key, otherwise the cache never serves the dashboard path.
func TestAggregateDerivedWindowSharesCacheKey(t *testing.T) {
	cache := newFakeCache()
	aggregator, _ := newCachedAggregator(t, cache)
	ctx := context.Background()

	_, err := aggregator.Aggregate(ctx, domain.PeriodDaily, nil, nil)
	require.NoError(t, err)
	_, err = aggregator.Aggregate(ctx, domain.PeriodDaily, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, 1, cache.hits)
}

func TestCacheKeyStableAcrossTheHour(t *testing.T) {
	early := time.Date(2026, 8, 31, 10, 2, 11, 0, time.UTC)
	late := time.Date(2026, 8, 31, 10, 58, 49, 0, time.UTC)

	earlyStart, earlyEnd := domain.PeriodDaily.Window(early.Truncate(time.Hour))
	lateStart, lateEnd := domain.PeriodDaily.Window(late.Truncate(time.Hour))

	assert.Equal(t,
		cacheKey(domain.PeriodDaily, earlyStart, earlyEnd),
		cacheKey(domain.PeriodDaily, lateStart, lateEnd))
}
