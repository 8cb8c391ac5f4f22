// Package initialization builds the runtime container: stores, engine
// components, and the HTTP controller, wired from one immutable config value.
package initialization

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/makersmarket/lifecycle/internal/analytics"
	"github.com/makersmarket/lifecycle/internal/compliance"
	"github.com/makersmarket/lifecycle/internal/controllers"
	"github.com/makersmarket/lifecycle/internal/costs"
	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/executor"
	"github.com/makersmarket/lifecycle/internal/health"
	"github.com/makersmarket/lifecycle/internal/managers"
	"github.com/makersmarket/lifecycle/internal/planner"
	"github.com/makersmarket/lifecycle/internal/scheduler"
	"github.com/makersmarket/lifecycle/internal/storage/memory"
	mongostore "github.com/makersmarket/lifecycle/internal/storage/mongo"
	s3store "github.com/makersmarket/lifecycle/internal/storage/s3"
)

const mongoConnectTimeout = 10 * time.Second

type ContainerConfig struct {
	MongoURI      string
	MongoDatabase string

	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	ExecutorConcurrency int
	AlertErrorThreshold int

	Pricing costs.PricingTable
}

// Container holds every wired component. Build it once at startup and pass
// it by reference; there is no mutable global configuration.
type Container struct {
	Blobs     domain.BlobStore
	Files     domain.FileRepository
	Jobs      domain.JobRepository
	Alerts    domain.AlertRepository
	Reports   domain.ReportRepository
	OpLog     domain.OperationLogRepository
	Summaries domain.UsageSummaryRepository

	Planner        *planner.Planner
	Executor       *executor.Executor
	Scheduler      *scheduler.Scheduler
	Aggregator     *analytics.Aggregator
	CostEngine     *costs.Engine
	Reporter       *compliance.Reporter
	HealthMonitor  *health.Monitor
	ErasureManager *managers.ErasureManager
	Controller     *controllers.MonitoringController

	mongoClient *mongodriver.Client
}

// BuildContainer connects the external stores and wires the engine. An empty
// MongoURI or S3 bucket falls back to in-memory stores, which keeps local
// runs and the CLI usable without infrastructure.
func BuildContainer(ctx context.Context, cfg ContainerConfig) (*Container, error) {
	c := &Container{}

	if err := c.buildStores(ctx, cfg); err != nil {
		return nil, err
	}

	c.Planner = planner.NewPlanner(planner.PlannerDependencies{
		FileRepository: c.Files,
	})

	c.Executor = executor.NewExecutor(executor.ExecutorDependencies{
		BlobStore:              c.Blobs,
		FileRepository:         c.Files,
		JobRepository:          c.Jobs,
		UsageSummaryRepository: c.Summaries,
		OperationLogRepository: c.OpLog,
		Concurrency:            cfg.ExecutorConcurrency,
	})

	c.Scheduler = scheduler.NewScheduler(scheduler.SchedulerDependencies{
		FileRepository: c.Files,
		BlobStore:      c.Blobs,
		JobRepository:  c.Jobs,
		Executor:       c.Executor,
	})

	var cache analytics.AggregateCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cache = analytics.NewRedisAggregateCache(client, cfg.CacheTTL)
	}

	c.Aggregator = analytics.NewAggregator(analytics.AggregatorDependencies{
		FileRepository:         c.Files,
		JobRepository:          c.Jobs,
		OperationLogRepository: c.OpLog,
		Cache:                  cache,
	})

	pricing := cfg.Pricing
	if pricing.IsZero() {
		pricing = costs.DefaultPricingTable()
	}
	c.CostEngine = costs.NewEngine(costs.EngineDependencies{
		FileRepository: c.Files,
		Pricing:        pricing,
	})

	c.Reporter = compliance.NewReporter(compliance.ReporterDependencies{
		FileRepository:   c.Files,
		ReportRepository: c.Reports,
	})

	c.HealthMonitor = health.NewMonitor(health.MonitorDependencies{
		FileRepository:         c.Files,
		UsageSummaryRepository: c.Summaries,
		OperationLogRepository: c.OpLog,
		ReportRepository:       c.Reports,
		AlertRepository:        c.Alerts,
		ErrorThreshold:         cfg.AlertErrorThreshold,
	})

	c.ErasureManager = managers.NewErasureManager(managers.ErasureManagerDependencies{
		Planner:       c.Planner,
		Executor:      c.Executor,
		JobRepository: c.Jobs,
	})

	c.Controller = controllers.NewMonitoringController(controllers.MonitoringControllerDependencies{
		ErasureManager:   c.ErasureManager,
		JobRepository:    c.Jobs,
		AlertRepository:  c.Alerts,
		ReportRepository: c.Reports,
		Aggregator:       c.Aggregator,
		CostEngine:       c.CostEngine,
	})

	return c, nil
}

func (c *Container) buildStores(ctx context.Context, cfg ContainerConfig) error {
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
		defer cancel()

		client, err := mongodriver.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			return fmt.Errorf("failed to ping mongodb: %w", err)
		}

		database := client.Database(cfg.MongoDatabase)
		c.mongoClient = client
		c.Files = mongostore.NewFileRepository(database)
		c.Jobs = mongostore.NewJobRepository(database)
		c.Alerts = mongostore.NewAlertRepository(database)
		c.Reports = mongostore.NewReportRepository(database)
		c.OpLog = mongostore.NewOperationLog(database)
		c.Summaries = mongostore.NewUsageSummaryRepository(database)
	} else {
		log.Warn().Msg("No MongoDB URI configured, using in-memory metadata stores")
		c.Files = memory.NewFileRepository()
		c.Jobs = memory.NewJobRepository()
		c.Alerts = memory.NewAlertRepository()
		c.Reports = memory.NewReportRepository()
		c.OpLog = memory.NewOperationLog()
		c.Summaries = memory.NewUsageSummaryRepository()
	}

	if cfg.S3Bucket != "" {
		blobs, err := s3store.NewBlobStore(s3store.BlobStoreDependencies{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to create s3 blob store: %w", err)
		}
		c.Blobs = blobs
	} else {
		log.Warn().Msg("No S3 bucket configured, using in-memory blob store")
		c.Blobs = memory.NewBlobStore()
	}

	return nil
}

// Close disconnects the external stores.
func (c *Container) Close(ctx context.Context) error {
	if c.mongoClient != nil {
		if err := c.mongoClient.Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to disconnect mongodb: %w", err)
		}
	}
	return nil
}
