// Package analytics computes period-bounded usage, performance, and
// compliance statistics from file metadata and the operation log.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/makersmarket/lifecycle/internal/domain"
)

// trendThreshold is the relative change below which a metric counts as
// stable.
const trendThreshold = 0.10

const defaultTopUsers = 10

type Aggregator struct {
	files    domain.FileRepository
	jobs     domain.JobRepository
	oplog    domain.OperationLogRepository
	cache    AggregateCache
	topUsers int
}

type AggregatorDependencies struct {
	FileRepository         domain.FileRepository
	JobRepository          domain.JobRepository
	OperationLogRepository domain.OperationLogRepository

	// Cache is optional; when set, computed aggregates are cached per window.
	Cache AggregateCache

	// TopUsers is the N of the top-users-by-size ranking. Defaults to 10.
	TopUsers int
}

func NewAggregator(deps AggregatorDependencies) *Aggregator {
	topUsers := deps.TopUsers
	if topUsers <= 0 {
		topUsers = defaultTopUsers
	}

	return &Aggregator{
		files:    deps.FileRepository,
		jobs:     deps.JobRepository,
		oplog:    deps.OperationLogRepository,
		cache:    deps.Cache,
		topUsers: topUsers,
	}
}

// Aggregate computes the usage aggregate for the window. When start or end is
// nil the window is derived from the named period, ending at the top of the
// current hour. Trend fields
// compare the window to the equal-length window immediately before it.
func (a *Aggregator) Aggregate(ctx context.Context, period domain.AggregationPeriod, start, end *time.Time) (*domain.UsageAggregate, error) {
	var windowStart, windowEnd time.Time
	if start != nil && end != nil {
		windowStart, windowEnd = *start, *end
	} else {
		// Derived windows end on the hour so repeated dashboard calls share
		// one cache key instead of a fresh key every second.
		windowStart, windowEnd = period.Window(time.Now().UTC().Truncate(time.Hour))
	}
	if !windowStart.Before(windowEnd) {
		return nil, &domain.ValidationError{Field: "window", Reason: "start must precede end"}
	}

	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, period, windowStart, windowEnd); ok {
			return cached, nil
		}
	}

	current, err := a.compute(ctx, period, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	length := windowEnd.Sub(windowStart)
	previous, err := a.compute(ctx, period, windowStart.Add(-length), windowStart)
	if err != nil {
		return nil, err
	}
	applyTrends(current, previous)

	if a.cache != nil {
		a.cache.Put(ctx, current)
	}

	log.Debug().
		Time("start", windowStart).
		Time("end", windowEnd).
		Int("total_files", current.TotalFiles).
		Int("new_files", current.NewFiles).
		Msg("Computed usage aggregate")

	return current, nil
}

// compute builds the trendless aggregate for one window. The totals describe
// the snapshot of all files that existed at the window's end, the new-file
// count describes the window itself.
func (a *Aggregator) compute(ctx context.Context, period domain.AggregationPeriod, start, end time.Time) (*domain.UsageAggregate, error) {
	records, err := a.files.Find(ctx, domain.FileFilter{CreatedBefore: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to load file records: %w", err)
	}

	agg := &domain.UsageAggregate{
		Period:           period,
		StartTime:        start,
		EndTime:          end,
		ByKind:           make(map[domain.FileKind]domain.DistributionBucket),
		ByClassification: make(map[domain.Classification]domain.DistributionBucket),
		ByTier:           make(map[domain.AccessTier]domain.DistributionBucket),
		OperationStats:   make(map[string]domain.OperationStats),
	}

	usageByUser := make(map[string]*domain.UserUsage)
	activeUsers := make(map[string]struct{})
	var compliant int

	for _, record := range records {
		agg.TotalFiles++
		agg.TotalSize += record.SizeInBytes

		if !record.CreatedAt.Before(start) {
			agg.NewFiles++
		}

		addToBucket(agg.ByKind, record.Kind, record)
		if record.Classification != "" {
			addToBucket(agg.ByClassification, record.Classification, record)
		}
		tier := record.AccessTier
		if tier == "" {
			tier = domain.AccessTierHot
		}
		addToBucket(agg.ByTier, tier, record)

		if record.Classification != "" && record.RetentionBasis != "" {
			compliant++
		}

		if record.OwnerID != "" {
			usage, ok := usageByUser[record.OwnerID]
			if !ok {
				usage = &domain.UserUsage{UserID: record.OwnerID}
				usageByUser[record.OwnerID] = usage
			}
			usage.FileCount++
			usage.SizeInBytes += record.SizeInBytes

			if !record.CreatedAt.Before(start) || !record.LastAccessedAt.Before(start) && record.LastAccessedAt.Before(end) {
				activeUsers[record.OwnerID] = struct{}{}
			}
		}
	}

	finalizeBuckets(agg.ByKind, agg.TotalFiles, agg.TotalSize)
	finalizeBuckets(agg.ByClassification, agg.TotalFiles, agg.TotalSize)
	finalizeBuckets(agg.ByTier, agg.TotalFiles, agg.TotalSize)

	if agg.TotalFiles > 0 {
		agg.ComplianceScore = float64(compliant) / float64(agg.TotalFiles)
	}
	agg.ActiveUsers = len(activeUsers)
	agg.TopUsers = topN(usageByUser, a.topUsers)

	if err := a.addDeletedCount(ctx, agg, start, end); err != nil {
		return nil, err
	}
	if err := a.addOperationStats(ctx, agg, start, end); err != nil {
		return nil, err
	}

	return agg, nil
}

func (a *Aggregator) addDeletedCount(ctx context.Context, agg *domain.UsageAggregate, start, end time.Time) error {
	jobs, err := a.jobs.Find(ctx, domain.JobFilter{Status: domain.JobStatusCompleted})
	if err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}

	for _, job := range jobs {
		if job.CompletedAt == nil || job.CompletedAt.Before(start) || !job.CompletedAt.Before(end) {
			continue
		}
		agg.DeletedFiles += job.Counters.FilesDeleted
	}
	return nil
}

func (a *Aggregator) addOperationStats(ctx context.Context, agg *domain.UsageAggregate, start, end time.Time) error {
	entries, err := a.oplog.FindRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to load operation log: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	type opAccum struct {
		count    int
		duration time.Duration
		bytes    int64
	}
	accums := make(map[string]*opAccum)
	var cacheHits, failures int

	for _, entry := range entries {
		accum, ok := accums[entry.Operation]
		if !ok {
			accum = &opAccum{}
			accums[entry.Operation] = accum
		}
		accum.count++
		accum.duration += entry.Duration
		accum.bytes += entry.SizeInBytes

		if entry.CacheHit {
			cacheHits++
		}
		if !entry.Success {
			failures++
		}
	}

	for op, accum := range accums {
		stats := domain.OperationStats{
			Count:           accum.count,
			AverageDuration: accum.duration / time.Duration(accum.count),
		}
		if accum.duration > 0 {
			stats.ThroughputBps = float64(accum.bytes) / accum.duration.Seconds()
		}
		agg.OperationStats[op] = stats
	}

	agg.CacheHitRatio = float64(cacheHits) / float64(len(entries))
	agg.ErrorRatio = float64(failures) / float64(len(entries))
	return nil
}

func addToBucket[K comparable](buckets map[K]domain.DistributionBucket, key K, record *domain.FileRecord) {
	bucket := buckets[key]
	bucket.Count++
	bucket.SizeInBytes += record.SizeInBytes
	buckets[key] = bucket
}

func finalizeBuckets[K comparable](buckets map[K]domain.DistributionBucket, totalFiles int, totalSize int64) {
	for key, bucket := range buckets {
		if totalFiles > 0 {
			bucket.CountPercent = float64(bucket.Count) / float64(totalFiles) * 100
		}
		if totalSize > 0 {
			bucket.SizePercent = float64(bucket.SizeInBytes) / float64(totalSize) * 100
		}
		buckets[key] = bucket
	}
}

// topN ranks users by size, ties broken by user id so equal inputs always
// produce identical output.
func topN(usage map[string]*domain.UserUsage, n int) []domain.UserUsage {
	ranked := make([]domain.UserUsage, 0, len(usage))
	for _, u := range usage {
		ranked = append(ranked, *u)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].SizeInBytes != ranked[j].SizeInBytes {
			return ranked[i].SizeInBytes > ranked[j].SizeInBytes
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func applyTrends(current, previous *domain.UsageAggregate) {
	current.UploadTrend = trendOf(float64(current.NewFiles), float64(previous.NewFiles))
	current.SizeGrowthRate = growthRate(float64(current.TotalSize), float64(previous.TotalSize))
	current.UserGrowthRate = growthRate(float64(current.ActiveUsers), float64(previous.ActiveUsers))

	currentDuration := overallAverageDuration(current)
	previousDuration := overallAverageDuration(previous)
	switch trendOf(float64(currentDuration), float64(previousDuration)) {
	case domain.TrendIncreasing:
		current.PerformanceTrend = domain.PerformanceDegrading
	case domain.TrendDecreasing:
		current.PerformanceTrend = domain.PerformanceImproving
	default:
		current.PerformanceTrend = domain.PerformanceStable
	}
}

func growthRate(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous
}

func trendOf(current, previous float64) domain.Trend {
	if previous == 0 {
		return domain.TrendStable
	}
	change := (current - previous) / previous
	switch {
	case change > trendThreshold:
		return domain.TrendIncreasing
	case change < -trendThreshold:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

func overallAverageDuration(agg *domain.UsageAggregate) time.Duration {
	var total time.Duration
	var count int
	for _, stats := range agg.OperationStats {
		total += stats.AverageDuration * time.Duration(stats.Count)
		count += stats.Count
	}
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}
