package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/infrastructure/auth"
	"github.com/loyalty/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "loyaltyctl-test-secret-at-least-32-chars"

func TestTokenCmd_IssuesVerifiableToken(t *testing.T) {
	t.Setenv("LOYALTY_JWT_SECRET", testSecret)
	tenantID, userID := uuid.New(), uuid.New()

	cmd := tokenCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{
		"--tenant", tenantID.String(),
		"--user", userID.String(),
		"--role", "admin",
		"--handle", "@ops",
	})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "expires at")

	svc := auth.NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "loyalty-backend"})
	claims, err := svc.ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, tenantID.String(), claims.TenantID)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestTokenCmd_RequiresTenantAndUser(t *testing.T) {
	cmd := tokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--tenant", uuid.NewString()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user")
}

func TestUUIDFlag_RejectsGarbage(t *testing.T) {
	cmd := tierStatusCmd()
	require.NoError(t, cmd.Flags().Set("tenant", "not-a-uuid"))

	_, err := uuidFlag(cmd, "tenant")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --tenant")
}

func TestMigrateList_Embedded(t *testing.T) {
	cmd := migrateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list"})

	require.NoError(t, cmd.Execute())
	lines := strings.Fields(out.String())
	require.NotEmpty(t, lines)
	assert.NotContains(t, lines[0], ".sql")
}

func TestMigrateDrop_RequiresConfirm(t *testing.T) {
	cmd := migrateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"drop"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--confirm")
}
