package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/makersmarket/lifecycle/internal/initialization"
)

func NewEraseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "erase <user-id>",
		Short: "Run a right-to-erasure request for a user",
		Long: `Plan and execute an erasure for the given user: personal files are deleted,
business files anonymized, shared files transferred, and legally held files
retained. The command waits for the job to finish and prints its outcome.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runErase(cmd.Context(), args[0])
		},
	}

	return cmd
}

func runErase(ctx context.Context, userID string) error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := initialization.BuildContainer(ctx, config.ContainerConfig())
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Close(ctx)

	job, err := container.ErasureManager.EraseUserAndWait(ctx, userID)
	if err != nil {
		return err
	}

	log.Info().
		Str("job_id", job.ID).
		Str("status", string(job.Status)).
		Int("deleted", job.Counters.FilesDeleted).
		Int("anonymized", job.Counters.FilesAnonymized).
		Int("transferred", job.Counters.FilesTransferred).
		Int("retained", job.Counters.FilesRetained).
		Int("warnings", len(job.Warnings)).
		Msg("Erasure finished")

	fmt.Printf("Job %s %s: %d deleted, %d anonymized, %d transferred, %d retained\n",
		job.ID, job.Status,
		job.Counters.FilesDeleted, job.Counters.FilesAnonymized,
		job.Counters.FilesTransferred, job.Counters.FilesRetained)

	for _, warning := range job.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	return nil
}
