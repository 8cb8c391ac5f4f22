package domain

import "time"

type AggregationPeriod string

const (
	PeriodDaily   AggregationPeriod = "daily"
	PeriodWeekly  AggregationPeriod = "weekly"
	PeriodMonthly AggregationPeriod = "monthly"
	PeriodYearly  AggregationPeriod = "yearly"
)

// Window returns the [start, end) bounds for the period ending at ref.
func (p AggregationPeriod) Window(ref time.Time) (time.Time, time.Time) {
	switch p {
	case PeriodDaily:
		return ref.AddDate(0, 0, -1), ref
	case PeriodWeekly:
		return ref.AddDate(0, 0, -7), ref
	case PeriodYearly:
		return ref.AddDate(-1, 0, 0), ref
	default:
		return ref.AddDate(0, -1, 0), ref
	}
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

type PerformanceTrend string

const (
	PerformanceImproving PerformanceTrend = "improving"
	PerformanceDegrading PerformanceTrend = "degrading"
	PerformanceStable    PerformanceTrend = "stable"
)

// DistributionBucket is one slice of a size/count distribution.
type DistributionBucket struct {
	Count        int     `bson:"count" json:"count"`
	SizeInBytes  int64   `bson:"size_in_bytes" json:"size_in_bytes"`
	CountPercent float64 `bson:"count_percent" json:"count_percent"`
	SizePercent  float64 `bson:"size_percent" json:"size_percent"`
}

// UserUsage is one entry of the top-N-users-by-size ranking.
type UserUsage struct {
	UserID      string `bson:"user_id" json:"user_id"`
	FileCount   int    `bson:"file_count" json:"file_count"`
	SizeInBytes int64  `bson:"size_in_bytes" json:"size_in_bytes"`
}

// OperationStats summarizes the performance log for one operation type.
type OperationStats struct {
	Count           int           `bson:"count" json:"count"`
	AverageDuration time.Duration `bson:"average_duration" json:"average_duration"`
	ThroughputBps   float64       `bson:"throughput_bps" json:"throughput_bps"`
}

// UsageAggregate is the period-bounded usage, performance, and compliance
// snapshot everything downstream (costs, projections, health) consumes.
type UsageAggregate struct {
	Period    AggregationPeriod `bson:"period" json:"period"`
	StartTime time.Time         `bson:"start_time" json:"start_time"`
	EndTime   time.Time         `bson:"end_time" json:"end_time"`

	TotalFiles   int   `bson:"total_files" json:"total_files"`
	TotalSize    int64 `bson:"total_size" json:"total_size"`
	NewFiles     int   `bson:"new_files" json:"new_files"`
	DeletedFiles int   `bson:"deleted_files" json:"deleted_files"`

	ByKind           map[FileKind]DistributionBucket       `bson:"by_kind" json:"by_kind"`
	ByClassification map[Classification]DistributionBucket `bson:"by_classification" json:"by_classification"`
	ByTier           map[AccessTier]DistributionBucket     `bson:"by_tier" json:"by_tier"`

	ActiveUsers int         `bson:"active_users" json:"active_users"`
	TopUsers    []UserUsage `bson:"top_users" json:"top_users"`

	OperationStats map[string]OperationStats `bson:"operation_stats" json:"operation_stats"`
	CacheHitRatio  float64                   `bson:"cache_hit_ratio" json:"cache_hit_ratio"`
	ErrorRatio     float64                   `bson:"error_ratio" json:"error_ratio"`

	ComplianceScore float64 `bson:"compliance_score" json:"compliance_score"`

	UploadTrend      Trend            `bson:"upload_trend" json:"upload_trend"`
	SizeGrowthRate   float64          `bson:"size_growth_rate" json:"size_growth_rate"`
	UserGrowthRate   float64          `bson:"user_growth_rate" json:"user_growth_rate"`
	PerformanceTrend PerformanceTrend `bson:"performance_trend" json:"performance_trend"`
}

// ProjectionTimeframe is the forward horizon in months.
type ProjectionTimeframe int

const (
	Timeframe1Month   ProjectionTimeframe = 1
	Timeframe3Months  ProjectionTimeframe = 3
	Timeframe6Months  ProjectionTimeframe = 6
	Timeframe12Months ProjectionTimeframe = 12
)

// UsageProjection is a forward estimate. It always carries its assumptions so
// the numbers are auditable, never presented as certain.
type UsageProjection struct {
	Timeframe      ProjectionTimeframe `bson:"timeframe" json:"timeframe"`
	ProjectedSize  int64               `bson:"projected_size" json:"projected_size"`
	ProjectedFiles int                 `bson:"projected_files" json:"projected_files"`
	ProjectedCost  float64             `bson:"projected_cost" json:"projected_cost"`
	Confidence     float64             `bson:"confidence" json:"confidence"`
	Assumptions    []string            `bson:"assumptions" json:"assumptions"`
	GeneratedAt    time.Time           `bson:"generated_at" json:"generated_at"`
}

// OperationLogEntry is one row of the operation-performance log the analytics
// aggregator reads.
type OperationLogEntry struct {
	ID          string        `bson:"id" json:"id"`
	Operation   string        `bson:"operation" json:"operation"`
	Duration    time.Duration `bson:"duration" json:"duration"`
	SizeInBytes int64         `bson:"size_in_bytes" json:"size_in_bytes"`
	Success     bool          `bson:"success" json:"success"`
	CacheHit    bool          `bson:"cache_hit" json:"cache_hit"`
	Timestamp   time.Time     `bson:"timestamp" json:"timestamp"`
}

// UsageSummary is the per-user running counter document maintained with
// atomic increments so concurrent uploads and deletes never lose updates.
type UsageSummary struct {
	UserID      string    `bson:"user_id" json:"user_id"`
	FileCount   int64     `bson:"file_count" json:"file_count"`
	SizeInBytes int64     `bson:"size_in_bytes" json:"size_in_bytes"`
	QuotaBytes  int64     `bson:"quota_bytes" json:"quota_bytes"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
