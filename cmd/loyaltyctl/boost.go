package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func boostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boost",
		Short: "Inspect and settle commission boosts",
	}
	cmd.AddCommand(boostShowCmd())
	cmd.AddCommand(boostFulfillCmd())
	return cmd
}

func boostShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <boost-id>",
		Short: "Show a boost with its status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuidFlag(cmd, "tenant")
			if err != nil {
				return err
			}
			boostID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container, _ *zap.Logger) error {
				detail, err := c.Boosts.GetBoost(ctx, tenantID, uuid.Nil, boostID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), detail)
			})
		},
	}
	cmd.Flags().String("tenant", "", "Tenant ID")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func boostFulfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fulfill <boost-id>",
		Short: "Mark a pending payout as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := uuidFlag(cmd, "tenant")
			if err != nil {
				return err
			}
			actor, err := uuidFlag(cmd, "actor")
			if err != nil {
				return err
			}
			boostID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container, log *zap.Logger) error {
				b, err := c.Boosts.MarkPayoutFulfilled(ctx, tenantID, boostID, actor)
				if err != nil {
					return err
				}
				log.Info("Payout fulfilled",
					zap.String("boost_id", b.ID.String()),
					zap.String("actor", actor.String()),
				)
				return printJSON(cmd.OutOrStdout(), b)
			})
		},
	}
	cmd.Flags().String("tenant", "", "Tenant ID")
	cmd.Flags().String("actor", "", "Admin user ID recorded on the history entry")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}
