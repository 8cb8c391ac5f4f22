package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/initialization"
	"github.com/makersmarket/lifecycle/internal/server"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the lifecycle engine",
		Long:  `Start the engine: background retention and cleanup scans, periodic health checks, and the monitoring HTTP API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	}

	return cmd
}

func runStart() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	container, err := initialization.BuildContainer(ctx, config.ContainerConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build container")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := container.Close(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close container")
		}
	}()

	if err := container.Scheduler.Start(ctx, config.TempCleanupSchedule, config.RetentionScanSchedule, config.OrphanScanSchedule); err != nil {
		log.Fatal().Err(err).Msg("Failed to start cleanup scheduler")
	}
	defer container.Scheduler.Stop()

	periodic, err := startPeriodicChecks(ctx, config, container)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule periodic checks")
	}
	defer periodic.Stop()

	app := server.NewHTTPServer(server.HTTPServerDependencies{
		MonitoringController: container.Controller,
	})

	log.Info().Str("address", config.HTTPAddress).Msg("Starting lifecycle engine")

	if err := app.Listen(config.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("Lifecycle engine stopped")
	return nil
}

// startPeriodicChecks schedules the health monitor and the weekly global
// compliance report on their own timer, separate from the cleanup scans.
func startPeriodicChecks(ctx context.Context, config *Config, container *initialization.Container) (*cron.Cron, error) {
	c := cron.New()

	if config.HealthCheckSchedule != "" {
		_, err := c.AddFunc(config.HealthCheckSchedule, func() {
			if _, err := container.HealthMonitor.Check(ctx); err != nil {
				log.Error().Err(err).Msg("Health check failed")
			}
		})
		if err != nil {
			return nil, err
		}
	}

	if config.ComplianceReportSchedule != "" {
		_, err := c.AddFunc(config.ComplianceReportSchedule, func() {
			if _, err := container.Reporter.Report(ctx, domain.ReportScopeGlobal, ""); err != nil {
				log.Error().Err(err).Msg("Scheduled compliance report failed")
			}
		})
		if err != nil {
			return nil, err
		}
	}

	c.Start()
	return c, nil
}
