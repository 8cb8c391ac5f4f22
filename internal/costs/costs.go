// Package costs turns usage aggregates into cost estimates, optimization
// recommendations, and forward projections. Vendor prices are configuration,
// not domain logic: everything here works off a pluggable pricing table.
package costs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/makersmarket/lifecycle/internal/domain"
)

const gib = float64(1 << 30)

// Optimization detector thresholds.
const (
	idleHotFileAge       = 30 * 24 * time.Hour
	compressionMinSize   = int64(1 << 20)
	compressionReduction = 0.70
)

// PricingTable is the per-tier and per-operation unit-price configuration.
// Prices are monthly per GiB; the operation price applies per stored file.
type PricingTable struct {
	HotPerGiBMonth  float64 `mapstructure:"hot_per_gib_month"`
	WarmPerGiBMonth float64 `mapstructure:"warm_per_gib_month"`
	ColdPerGiBMonth float64 `mapstructure:"cold_per_gib_month"`
	PerOperation    float64 `mapstructure:"per_operation"`
}

// DefaultPricingTable mirrors typical object-storage list prices. Deployments
// override it in configuration.
func DefaultPricingTable() PricingTable {
	return PricingTable{
		HotPerGiBMonth:  0.023,
		WarmPerGiBMonth: 0.0125,
		ColdPerGiBMonth: 0.004,
		PerOperation:    0.0004,
	}
}

// IsZero reports whether no price has been configured at all.
func (p PricingTable) IsZero() bool {
	return p == PricingTable{}
}

func (p PricingTable) tierPrice(tier domain.AccessTier) float64 {
	switch tier {
	case domain.AccessTierWarm:
		return p.WarmPerGiBMonth
	case domain.AccessTierCold:
		return p.ColdPerGiBMonth
	default:
		return p.HotPerGiBMonth
	}
}

// CostEstimate is the monthly cost breakdown for one aggregate.
type CostEstimate struct {
	StorageCost    float64                       `json:"storage_cost"`
	OperationsCost float64                       `json:"operations_cost"`
	TotalMonthly   float64                       `json:"total_monthly"`
	ByTier         map[domain.AccessTier]float64 `json:"by_tier"`
}

type RecommendationType string

const (
	RecommendationTierMigration RecommendationType = "tier_migration"
	RecommendationCompression   RecommendationType = "compression"
)

// Recommendation is one detected savings opportunity.
type Recommendation struct {
	Type           RecommendationType `json:"type"`
	Path           string             `json:"path"`
	Description    string             `json:"description"`
	MonthlySavings float64            `json:"monthly_savings"`
	AffectedSize   int64              `json:"affected_size"`
}

type Engine struct {
	files   domain.FileRepository
	pricing PricingTable
}

type EngineDependencies struct {
	FileRepository domain.FileRepository
	Pricing        PricingTable
}

func NewEngine(deps EngineDependencies) *Engine {
	return &Engine{
		files:   deps.FileRepository,
		pricing: deps.Pricing,
	}
}

// EstimateCost prices the aggregate's tier distribution and file count
// against the pricing table.
func (e *Engine) EstimateCost(aggregate *domain.UsageAggregate) CostEstimate {
	estimate := CostEstimate{
		ByTier: make(map[domain.AccessTier]float64),
	}

	for tier, bucket := range aggregate.ByTier {
		cost := float64(bucket.SizeInBytes) / gib * e.pricing.tierPrice(tier)
		estimate.ByTier[tier] = cost
		estimate.StorageCost += cost
	}

	estimate.OperationsCost = float64(aggregate.TotalFiles) * e.pricing.PerOperation
	estimate.TotalMonthly = estimate.StorageCost + estimate.OperationsCost
	return estimate
}

// Recommend runs the two independent optimization detectors over the current
// file set: hot-tier files idle for 30 days or more (move to cold), and
// large uncompressed text or structured files (compress).
func (e *Engine) Recommend(ctx context.Context) ([]Recommendation, error) {
	records, err := e.files.Find(ctx, domain.FileFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load files: %w", err)
	}

	now := time.Now().UTC()
	var recommendations []Recommendation

	for _, record := range records {
		if rec, ok := e.detectIdleHotFile(record, now); ok {
			recommendations = append(recommendations, rec)
		}
		if rec, ok := e.detectCompressible(record); ok {
			recommendations = append(recommendations, rec)
		}
	}

	sort.Slice(recommendations, func(i, j int) bool {
		return recommendations[i].MonthlySavings > recommendations[j].MonthlySavings
	})
	return recommendations, nil
}

func (e *Engine) detectIdleHotFile(record *domain.FileRecord, now time.Time) (Recommendation, bool) {
	if record.AccessTier != domain.AccessTierHot {
		return Recommendation{}, false
	}
	if record.LastAccessedAt.IsZero() || now.Sub(record.LastAccessedAt) < idleHotFileAge {
		return Recommendation{}, false
	}

	sizeGiB := float64(record.SizeInBytes) / gib
	return Recommendation{
		Type:           RecommendationTierMigration,
		Path:           record.Path,
		Description:    fmt.Sprintf("not accessed for %d days, move from hot to cold tier", int(now.Sub(record.LastAccessedAt).Hours()/24)),
		MonthlySavings: sizeGiB * (e.pricing.HotPerGiBMonth - e.pricing.ColdPerGiBMonth),
		AffectedSize:   record.SizeInBytes,
	}, true
}

func (e *Engine) detectCompressible(record *domain.FileRecord) (Recommendation, bool) {
	if record.SizeInBytes < compressionMinSize || !isCompressible(record.ContentType) {
		return Recommendation{}, false
	}

	reducedBytes := float64(record.SizeInBytes) * compressionReduction
	savings := reducedBytes / gib * e.pricing.tierPrice(record.AccessTier)
	return Recommendation{
		Type:           RecommendationCompression,
		Path:           record.Path,
		Description:    fmt.Sprintf("%s content above 1 MiB, compression saves an estimated 70%%", record.ContentType),
		MonthlySavings: savings,
		AffectedSize:   record.SizeInBytes,
	}, true
}

func isCompressible(contentType string) bool {
	switch contentType {
	case "application/json", "application/xml", "application/x-ndjson", "image/svg+xml":
		return true
	}
	return len(contentType) >= 5 && contentType[:5] == "text/"
}
