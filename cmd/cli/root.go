package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lifecycle",
		Short: "Storage lifecycle and compliance engine",
		Long: `lifecycle manages stored files across their whole life: classification,
right-to-erasure execution, retention enforcement, usage analytics, cost
projection, and compliance reporting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewStartCommand())
	rootCmd.AddCommand(NewEraseCommand())
	rootCmd.AddCommand(NewCleanupCommand())
	rootCmd.AddCommand(NewReportCommand())
	rootCmd.AddCommand(NewStatusCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
