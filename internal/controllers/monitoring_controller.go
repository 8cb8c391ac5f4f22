package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/makersmarket/lifecycle/internal/analytics"
	"github.com/makersmarket/lifecycle/internal/costs"
	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/managers"
)

// MonitoringController serves the read side of the engine: jobs, alerts, and
// compliance reports, plus the erasure trigger used by account-deletion flows.
type MonitoringController struct {
	erasures   *managers.ErasureManager
	jobs       domain.JobRepository
	alerts     domain.AlertRepository
	reports    domain.ReportRepository
	aggregator *analytics.Aggregator
	costs      *costs.Engine
}

type MonitoringControllerDependencies struct {
	ErasureManager   *managers.ErasureManager
	JobRepository    domain.JobRepository
	AlertRepository  domain.AlertRepository
	ReportRepository domain.ReportRepository
	Aggregator       *analytics.Aggregator
	CostEngine       *costs.Engine
}

func NewMonitoringController(deps MonitoringControllerDependencies) *MonitoringController {
	return &MonitoringController{
		erasures:   deps.ErasureManager,
		jobs:       deps.JobRepository,
		alerts:     deps.AlertRepository,
		reports:    deps.ReportRepository,
		aggregator: deps.Aggregator,
		costs:      deps.CostEngine,
	}
}

// StartErasure kicks off a user erasure and returns the pending job
// immediately. Progress is observed through GetJob.
func (c *MonitoringController) StartErasure(ctx fiber.Ctx) error {
	userID := ctx.Params("userID")

	job, done, err := c.erasures.EraseUser(ctx.RequestCtx(), userID)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return fiber.NewError(fiber.StatusBadRequest, validationErr.Error())
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to start erasure")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to start erasure")
	}

	go func() {
		result := <-done
		if result.Err != nil {
			log.Error().Err(result.Err).Str("job_id", result.JobID).Msg("Erasure job failed")
		}
	}()

	return ctx.Status(fiber.StatusAccepted).JSON(job)
}

func (c *MonitoringController) GetJob(ctx fiber.Ctx) error {
	job, err := c.jobs.Get(ctx.RequestCtx(), ctx.Params("id"))
	if err != nil {
		if domain.IsNotFound(err) {
			return fiber.NewError(fiber.StatusNotFound, "Job not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load job")
	}
	return ctx.JSON(job)
}

func (c *MonitoringController) ListJobs(ctx fiber.Ctx) error {
	filter := domain.JobFilter{
		Type:   domain.JobType(ctx.Query("type")),
		Status: domain.JobStatus(ctx.Query("status")),
		Limit:  fiber.Query[int](ctx, "limit"),
	}

	jobs, err := c.jobs.Find(ctx.RequestCtx(), filter)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list jobs")
	}
	return ctx.JSON(fiber.Map{"jobs": jobs, "count": len(jobs)})
}

func (c *MonitoringController) ListAlerts(ctx fiber.Ctx) error {
	filter := domain.AlertFilter{
		Type:     domain.AlertType(ctx.Query("type")),
		Severity: domain.Severity(ctx.Query("severity")),
	}
	if raw := ctx.Query("resolved"); raw != "" {
		resolved := raw == "true"
		filter.Resolved = &resolved
	}

	alerts, err := c.alerts.Find(ctx.RequestCtx(), filter)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list alerts")
	}
	return ctx.JSON(fiber.Map{"alerts": alerts, "count": len(alerts)})
}

func (c *MonitoringController) ResolveAlert(ctx fiber.Ctx) error {
	err := c.alerts.Resolve(ctx.RequestCtx(), ctx.Params("id"), time.Now().UTC())
	if err != nil {
		if domain.IsNotFound(err) {
			return fiber.NewError(fiber.StatusNotFound, "Alert not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to resolve alert")
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// GetUsage computes (or serves from cache) the usage aggregate for a period
// ending now, and prices it.
func (c *MonitoringController) GetUsage(ctx fiber.Ctx) error {
	period := domain.AggregationPeriod(ctx.Query("period", string(domain.PeriodMonthly)))

	aggregate, err := c.aggregator.Aggregate(ctx.RequestCtx(), period, nil, nil)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return fiber.NewError(fiber.StatusBadRequest, validationErr.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to aggregate usage")
	}

	return ctx.JSON(fiber.Map{
		"aggregate": aggregate,
		"cost":      c.costs.EstimateCost(aggregate),
	})
}

func (c *MonitoringController) GetRecommendations(ctx fiber.Ctx) error {
	recommendations, err := c.costs.Recommend(ctx.RequestCtx())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to compute recommendations")
	}
	return ctx.JSON(fiber.Map{"recommendations": recommendations, "count": len(recommendations)})
}

func (c *MonitoringController) LatestReport(ctx fiber.Ctx) error {
	scope := domain.ReportScope(ctx.Query("scope", string(domain.ReportScopeGlobal)))

	report, err := c.reports.Latest(ctx.RequestCtx(), scope, ctx.Query("scope_id"))
	if err != nil {
		if domain.IsNotFound(err) {
			return fiber.NewError(fiber.StatusNotFound, "No report generated yet")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load report")
	}
	return ctx.JSON(report)
}
