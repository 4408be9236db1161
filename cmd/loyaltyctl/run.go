package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daily automation now",
		Long: `Run ingestion, promotion, checkpoint evaluation and the boost sweeps.

Without --tenant every tenant with an active program is processed and one
aggregate report is printed. The command exits non-zero when any stage failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container, log *zap.Logger) error {
				if tenant == "" {
					return runAll(ctx, cmd, c)
				}
				tenantID, err := uuid.Parse(tenant)
				if err != nil {
					return fmt.Errorf("invalid --tenant: %w", err)
				}
				log.Info("Running automation for one tenant", zap.String("tenant_id", tenantID.String()))
				report, err := c.Orchestrator.Run(ctx, tenantID)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if report.ErrorCount() > 0 {
					return fmt.Errorf("run finished with %d errors", report.ErrorCount())
				}
				return nil
			})
		},
	}
	cmd.Flags().String("tenant", "", "Only run this tenant ID")
	return cmd
}

func runAll(ctx context.Context, cmd *cobra.Command, c *bootstrap.Container) error {
	report, err := c.Orchestrator.RunAll(ctx)
	if err != nil {
		return err
	}
	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if !report.Success {
		return fmt.Errorf("run finished with %d errors", report.Totals.Errors)
	}
	return nil
}
