package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "creator-platform",
	})
}

func issue(t *testing.T, svc *JWTService, role Role, ttl time.Duration) (string, IssueTokenInput) {
	t.Helper()
	in := IssueTokenInput{TenantID: uuid.New(), UserID: uuid.New(), Handle: "@maya", Role: role, TTL: ttl}
	token, _, err := svc.IssueToken(in)
	require.NoError(t, err)
	return token, in
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	token, in := issue(t, svc, RoleCreator, 15*time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	tenantID, err := claims.GetTenantUUID()
	require.NoError(t, err)
	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, in.TenantID, tenantID)
	assert.Equal(t, in.UserID, userID)
	assert.Equal(t, "@maya", claims.Handle)
	assert.False(t, claims.IsAdmin())
}

func TestJWTService_AdminRole(t *testing.T) {
	svc := newTestJWTService()
	token, _ := issue(t, svc, RoleAdmin, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestJWTService_IssueRejectsUnknownRole(t *testing.T) {
	_, _, err := newTestJWTService().IssueToken(IssueTokenInput{TenantID: uuid.New(), UserID: uuid.New(), Role: "owner"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestJWTService()
	token, _ := issue(t, svc, RoleCreator, time.Minute)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err := svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, _ := issue(t, newTestJWTService(), RoleCreator, time.Minute)

	other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-ch", Issuer: "creator-platform"})
	_, err := other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_WrongIssuer(t *testing.T) {
	token, _ := issue(t, newTestJWTService(), RoleCreator, time.Minute)

	other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
	_, err := other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "creator-platform",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		TenantID: uuid.New().String(),
		UserID:   uuid.New().String(),
		Role:     RoleAdmin,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWTService().ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_MissingClaims(t *testing.T) {
	svc := newTestJWTService()
	sign := func(c *Claims) string {
		c.Issuer = "creator-platform"
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(svc.secret)
		require.NoError(t, err)
		return s
	}

	_, err := svc.ValidateToken(sign(&Claims{UserID: uuid.New().String(), Role: RoleCreator}))
	assert.ErrorIs(t, err, ErrMissingTenantID)

	_, err = svc.ValidateToken(sign(&Claims{TenantID: uuid.New().String(), Role: RoleCreator}))
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, err = svc.ValidateToken(sign(&Claims{TenantID: "acme", UserID: uuid.New().String(), Role: RoleCreator}))
	assert.ErrorIs(t, err, ErrInvalidClaims)

	_, err = svc.ValidateToken(sign(&Claims{TenantID: uuid.New().String(), UserID: uuid.New().String()}))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestJWTService_Garbage(t *testing.T) {
	_, err := newTestJWTService().ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
