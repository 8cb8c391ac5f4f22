package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/makersmarket/lifecycle/internal/domain"
	"github.com/makersmarket/lifecycle/internal/initialization"
)

func NewReportCommand() *cobra.Command {
	var (
		scope   string
		scopeID string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a compliance report",
		Long:  `Scan the requested scope for missing classifications, missing retention bases, and expired retention periods, and print the scored report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), domain.ReportScope(scope), scopeID, asJSON)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", string(domain.ReportScopeGlobal), "Report scope: global, user, or organization")
	cmd.Flags().StringVar(&scopeID, "scope-id", "", "User or organization id for non-global scopes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")

	return cmd
}

func runReport(ctx context.Context, scope domain.ReportScope, scopeID string, asJSON bool) error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, err := initialization.BuildContainer(ctx, config.ContainerConfig())
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Close(ctx)

	report, err := container.Reporter.Report(ctx, scope, scopeID)
	if err != nil {
		return err
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	fmt.Printf("Compliance report %s (%s)\n", report.ID, report.Scope)
	fmt.Printf("  files: %d total, %d personal, %d business, %d retained, %d anonymized\n",
		report.TotalFiles, report.PersonalFiles, report.BusinessFiles,
		report.RetainedFiles, report.AnonymizedFiles)
	fmt.Printf("  score: %.1f%%, violations: %d\n", report.Score*100, len(report.Violations))
	for _, recommendation := range report.Recommendations {
		fmt.Printf("  recommendation: %s\n", recommendation)
	}
	return nil
}
