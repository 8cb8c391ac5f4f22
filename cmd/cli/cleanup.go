package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/initialization"
)

func NewCleanupCommand() *cobra.Command {
	var scan string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run the cleanup scans once",
		Long:  `Run the temp-cleanup, retention-enforcement, and orphan-cleanup scans immediately instead of waiting for their schedules.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd.Context(), scan)
		},
	}

	cmd.Flags().StringVar(&scan, "scan", "all", "Which scan to run: temp, retention, orphans, or all")

	return cmd
}

func runCleanup(ctx context.Context, scan string) error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := initialization.BuildContainer(ctx, config.ContainerConfig())
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Close(ctx)

	printJob := func(job *domain.CleanupJob) {
		fmt.Printf("%s %s: found %d, deleted %d, anonymized %d, %d warnings\n",
			job.Type, job.Status,
			job.Counters.FilesFound, job.Counters.FilesDeleted,
			job.Counters.FilesAnonymized, len(job.Warnings))
	}

	switch scan {
	case "temp":
		job, err := container.Scheduler.CleanupTempFiles(ctx)
		if err != nil {
			return err
		}
		printJob(job)
	case "retention":
		job, err := container.Scheduler.EnforceRetention(ctx)
		if err != nil {
			return err
		}
		printJob(job)
	case "orphans":
		job, err := container.Scheduler.CleanupOrphans(ctx)
		if err != nil {
			return err
		}
		printJob(job)
	case "all":
		if err := container.Scheduler.RunAll(ctx); err != nil {
			return err
		}
		jobs, err := container.Jobs.Find(ctx, domain.JobFilter{Limit: 3})
		if err != nil {
			return err
		}
		for _, job := range jobs {
			printJob(job)
		}
	default:
		return fmt.Errorf("unknown scan %q, expected temp, retention, orphans, or all", scan)
	}

	return nil
}
