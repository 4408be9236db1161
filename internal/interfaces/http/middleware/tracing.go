package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultServiceName names the HTTP server in traces
const DefaultServiceName = "loyalty-backend"

// Tracing wraps otelgin. Spans are named "METHOD /route/pattern" and carry the
// request ID. Set enabled=false to get a pass-through handler.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	return otelgin.Middleware(serviceName)
}

// SpanEnricher copies request, tenant and user IDs onto the active span and marks
// it as an error when the handler answers 5xx. Place it after JWTAuth so the
// caller's identity is known.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if tenantID := GetJWTTenantID(c); tenantID != uuid.Nil {
			span.SetAttributes(attribute.String("tenant_id", tenantID.String()))
		}
		if userID := GetJWTUserID(c); userID != uuid.Nil {
			span.SetAttributes(attribute.String("user_id", userID.String()))
		}

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
