package main

import (
	"fmt"
	"time"

	"github.com/loyalty/backend/internal/infrastructure/auth"
	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with jwt.secret",
		Long: `Issue an access token for local testing or service accounts.

The token carries the tenant, user, handle and role claims the API expects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenantID, userID, err := tenantAndUser(cmd)
			if err != nil {
				return err
			}
			role, _ := cmd.Flags().GetString("role")
			handle, _ := cmd.Flags().GetString("handle")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			token, expiresAt, err := auth.NewJWTService(cfg.JWT).IssueToken(auth.IssueTokenInput{
				TenantID: tenantID,
				UserID:   userID,
				Handle:   handle,
				Role:     auth.Role(role),
				TTL:      ttl,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	addTenantUserFlags(cmd)
	cmd.Flags().String("role", string(auth.RoleCreator), "Role claim (creator, admin)")
	cmd.Flags().String("handle", "", "Creator handle claim")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")
	return cmd
}
