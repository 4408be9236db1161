package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/bootstrap"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func tierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Inspect creator tiers",
	}
	cmd.AddCommand(tierStatusCmd())
	cmd.AddCommand(tierHistoryCmd())
	return cmd
}

func tierStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a creator's tier, progress and next checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, userID, err := tenantAndUser(cmd)
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container, _ *zap.Logger) error {
				status, err := c.Programs.GetTierStatus(ctx, tenantID, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), status)
			})
		},
	}
	addTenantUserFlags(cmd)
	return cmd
}

func tierHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List a creator's checkpoint evaluations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, userID, err := tenantAndUser(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container, _ *zap.Logger) error {
				records, total, err := c.Programs.ListCheckpointHistory(ctx, tenantID, userID, shared.Filter{
					Page:     1,
					PageSize: limit,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"total":   total,
					"records": records,
				})
			})
		},
	}
	addTenantUserFlags(cmd)
	cmd.Flags().Int("limit", 20, "Maximum records")
	return cmd
}

func addTenantUserFlags(cmd *cobra.Command) {
	cmd.Flags().String("tenant", "", "Tenant ID")
	cmd.Flags().String("user", "", "Creator user ID")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("user")
}

func tenantAndUser(cmd *cobra.Command) (uuid.UUID, uuid.UUID, error) {
	tenantID, err := uuidFlag(cmd, "tenant")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	userID, err := uuidFlag(cmd, "user")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return tenantID, userID, nil
}

func uuidFlag(cmd *cobra.Command, name string) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return id, nil
}
