package server

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/makersmarket/lifecycle/internal/controllers"
	"github.com/makersmarket/lifecycle/internal/version"
)

type HTTPServerDependencies struct {
	MonitoringController *controllers.MonitoringController
}

// NewHTTPServer builds the monitoring surface: health, job and alert lookups,
// compliance reports, Prometheus metrics, and the erasure trigger. There is
// no business UI here.
func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "lifecycle-engine",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "lifecycle-engine",
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	router.Get("/jobs", deps.MonitoringController.ListJobs)
	router.Get("/jobs/:id", deps.MonitoringController.GetJob)

	router.Get("/alerts", deps.MonitoringController.ListAlerts)
	router.Post("/alerts/:id/resolve", deps.MonitoringController.ResolveAlert)

	router.Get("/reports/latest", deps.MonitoringController.LatestReport)

	router.Get("/usage", deps.MonitoringController.GetUsage)
	router.Get("/recommendations", deps.MonitoringController.GetRecommendations)

	router.Post("/erasures/:userID", deps.MonitoringController.StartErasure)

	return router
}
