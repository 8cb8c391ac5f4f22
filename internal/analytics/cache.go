package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/metrics"
)

// AggregateCache stores computed aggregates keyed by their exact window.
// A cache miss is never an error; the aggregator just recomputes.
type AggregateCache interface {
	Get(ctx context.Context, period domain.AggregationPeriod, start, end time.Time) (*domain.UsageAggregate, bool)
	Put(ctx context.Context, aggregate *domain.UsageAggregate)
}

// RedisAggregateCache caches aggregates in Redis with a TTL. Aggregation
// walks every file record, so dashboards polling the same window repeatedly
// should not pay that cost each time.
type RedisAggregateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAggregateCache(client *redis.Client, ttl time.Duration) *RedisAggregateCache {
	return &RedisAggregateCache{
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(period domain.AggregationPeriod, start, end time.Time) string {
	return fmt.Sprintf("lifecycle:aggregate:%s:%d:%d", period, start.Unix(), end.Unix())
}

func (c *RedisAggregateCache) Get(ctx context.Context, period domain.AggregationPeriod, start, end time.Time) (*domain.UsageAggregate, bool) {
	payload, err := c.client.Get(ctx, cacheKey(period, start, end)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Aggregate cache read failed")
		}
		metrics.AggregateCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	var aggregate domain.UsageAggregate
	if err := json.Unmarshal(payload, &aggregate); err != nil {
		log.Warn().Err(err).Msg("Aggregate cache entry is corrupt, recomputing")
		metrics.AggregateCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	metrics.AggregateCacheHits.WithLabelValues("hit").Inc()
	return &aggregate, true
}

func (c *RedisAggregateCache) Put(ctx context.Context, aggregate *domain.UsageAggregate) {
	payload, err := json.Marshal(aggregate)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal aggregate for cache")
		return
	}

	key := cacheKey(aggregate.Period, aggregate.StartTime, aggregate.EndTime)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("Aggregate cache write failed")
	}
}
