package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/initialization"
	"github.com/makersmarket/lifecycle/internal/version"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show engine status: recent jobs and open alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}

	return cmd
}

func runStatus(ctx context.Context) error {
	fmt.Printf("lifecycle %s\n\n", version.GetShortVersion())

	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := initialization.BuildContainer(ctx, config.ContainerConfig())
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Close(ctx)

	jobs, err := container.Jobs.Find(ctx, domain.JobFilter{Limit: 10})
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	fmt.Printf("Recent jobs (%d):\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("  %s  %-22s %-12s %5.1f%%  %s\n",
			job.ID, job.Type, job.Status, job.Progress, job.CreatedAt.Format("2006-01-02 15:04"))
	}

	unresolved := false
	alerts, err := container.Alerts.Find(ctx, domain.AlertFilter{Resolved: &unresolved})
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}

	fmt.Printf("\nOpen alerts (%d):\n", len(alerts))
	for _, alert := range alerts {
		fmt.Printf("  [%s] %s: %s\n", alert.Severity, alert.Type, alert.Description)
	}
	return nil
}
