package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/infrastructure/auth"
	"github.com/loyalty/backend/internal/infrastructure/logger"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// TokenValidator verifies access tokens minted by the platform identity service
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// JWTAuth rejects requests without a valid creator or admin token and stores
// the caller's claims, user ID and tenant ID on the gin context
func JWTAuth(validator TokenValidator, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Missing or malformed authorization header")
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			log.Debug("JWT authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
			code, message := authErrorCode(err)
			abortWithError(c, http.StatusUnauthorized, code, message)
			return
		}

		// ValidateToken has already checked both IDs parse
		tenantID, _ := claims.GetTenantUUID()
		userID, _ := claims.GetUserUUID()

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, userID)
		c.Set(JWTTenantIDKey, tenantID)

		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.TenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin only lets admin tokens through. Must run after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		if !claims.IsAdmin() {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "Admin role required")
			return
		}
		c.Next()
	}
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidRole):
		return dto.ErrCodeForbidden, "Token role is not allowed"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the authenticated user ID, or uuid.Nil
func GetJWTUserID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(JWTUserIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetJWTTenantID retrieves the authenticated tenant ID, or uuid.Nil
func GetJWTTenantID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(JWTTenantIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
