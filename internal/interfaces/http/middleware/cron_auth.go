package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// CronAuth guards the scheduled trigger endpoints with a shared secret sent as
// "Authorization: Bearer <secret>". An empty secret rejects every request.
func CronAuth(secret string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	expected := []byte(secret)
	return func(c *gin.Context) {
		if len(expected) == 0 {
			log.Error("Cron secret is not configured, rejecting trigger")
			abortWithError(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Cron secret not configured")
			return
		}

		token, ok := bearerToken(c)
		if !ok || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
			log.Warn("Rejected cron trigger",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path))
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Invalid cron secret")
			return
		}
		c.Next()
	}
}
