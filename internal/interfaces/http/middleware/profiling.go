package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/infrastructure/telemetry"
)

// Profiling tags the goroutine serving each request with pyroscope labels
// (method, route pattern, tenant) so CPU profiles can be split per endpoint.
// Place it after JWTAuth to get the tenant label.
func Profiling(enabled bool, skipPrefixes ...string) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	labels := map[string]string{
		telemetry.ProfilingLabelMethod: c.Request.Method,
		telemetry.ProfilingLabelRoute:  c.FullPath(),
	}
	if tenantID := GetJWTTenantID(c); tenantID != uuid.Nil {
		labels[telemetry.ProfilingLabelTenantID] = tenantID.String()
	}
	return labels
}
