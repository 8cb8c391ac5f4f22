package costs

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/makersmarket/lifecycle/internal/domain"
)

// Default growth assumptions used when fewer than minHistoryPoints historical
// aggregates exist.
const (
	minHistoryPoints        = 3
	defaultSizeGrowthMonth  = 0.05
	defaultFilesGrowthMonth = 0.08

	historyConfidence  = 0.85
	fallbackConfidence = 0.50
	// Confidence decays per projected month: the further out, the softer the
	// number.
	confidenceDecayPerMonth = 0.02
)

// Project extrapolates usage and cost over the requested horizon by compound
// growth. With at least three historical points the growth rates come from
// the observed period-over-period averages; with fewer, documented default
// assumptions apply and confidence drops. The returned assumptions make every
// projection auditable.
func (e *Engine) Project(history []*domain.UsageAggregate, timeframe domain.ProjectionTimeframe) (*domain.UsageProjection, error) {
	if len(history) == 0 {
		return nil, &domain.ValidationError{Field: "history", Reason: "at least one aggregate is required"}
	}
	switch timeframe {
	case domain.Timeframe1Month, domain.Timeframe3Months, domain.Timeframe6Months, domain.Timeframe12Months:
	default:
		return nil, &domain.ValidationError{Field: "timeframe", Reason: "must be 1, 3, 6, or 12 months"}
	}

	ordered := make([]*domain.UsageAggregate, len(history))
	copy(ordered, history)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].EndTime.Before(ordered[j].EndTime)
	})
	latest := ordered[len(ordered)-1]

	sizeGrowth, filesGrowth, confidence, assumptions := growthAssumptions(ordered)

	months := float64(timeframe)
	sizeFactor := math.Pow(1+sizeGrowth, months)
	filesFactor := math.Pow(1+filesGrowth, months)

	projectedSize := int64(float64(latest.TotalSize) * sizeFactor)
	projectedFiles := int(float64(latest.TotalFiles) * filesFactor)

	// Price the projected volume with the latest tier mix held constant.
	projected := &domain.UsageAggregate{
		TotalFiles: projectedFiles,
		TotalSize:  projectedSize,
		ByTier:     scaleTierDistribution(latest, sizeFactor),
	}
	cost := e.EstimateCost(projected)
	assumptions = append(assumptions, "access-tier distribution stays at the latest observed mix")

	confidence -= confidenceDecayPerMonth * months
	if confidence < 0.1 {
		confidence = 0.1
	}

	return &domain.UsageProjection{
		Timeframe:      timeframe,
		ProjectedSize:  projectedSize,
		ProjectedFiles: projectedFiles,
		ProjectedCost:  cost.TotalMonthly,
		Confidence:     confidence,
		Assumptions:    assumptions,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

func growthAssumptions(ordered []*domain.UsageAggregate) (sizeGrowth, filesGrowth, confidence float64, assumptions []string) {
	if len(ordered) < minHistoryPoints {
		return defaultSizeGrowthMonth, defaultFilesGrowthMonth, fallbackConfidence, []string{
			fmt.Sprintf("fewer than %d historical aggregates: default growth of %.0f%% size and %.0f%% files per month assumed",
				minHistoryPoints, defaultSizeGrowthMonth*100, defaultFilesGrowthMonth*100),
		}
	}

	var sizeSum, filesSum float64
	var samples int
	for i := 1; i < len(ordered); i++ {
		prev, curr := ordered[i-1], ordered[i]
		if prev.TotalSize > 0 {
			sizeSum += float64(curr.TotalSize-prev.TotalSize) / float64(prev.TotalSize)
		}
		if prev.TotalFiles > 0 {
			filesSum += float64(curr.TotalFiles-prev.TotalFiles) / float64(prev.TotalFiles)
		}
		samples++
	}

	sizeGrowth = sizeSum / float64(samples)
	filesGrowth = filesSum / float64(samples)
	return sizeGrowth, filesGrowth, historyConfidence, []string{
		fmt.Sprintf("growth averaged over %d historical periods: %.1f%% size, %.1f%% files per period",
			samples, sizeGrowth*100, filesGrowth*100),
	}
}

func scaleTierDistribution(latest *domain.UsageAggregate, factor float64) map[domain.AccessTier]domain.DistributionBucket {
	scaled := make(map[domain.AccessTier]domain.DistributionBucket, len(latest.ByTier))
	for tier, bucket := range latest.ByTier {
		bucket.SizeInBytes = int64(float64(bucket.SizeInBytes) * factor)
		scaled[tier] = bucket
	}
	if len(scaled) == 0 && latest.TotalSize > 0 {
		scaled[domain.AccessTierHot] = domain.DistributionBucket{
			Count:       latest.TotalFiles,
			SizeInBytes: latest.TotalSize,
		}
	}
	return scaled
}
