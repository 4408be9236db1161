package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodyBytes is enough for any loyalty request body
const DefaultMaxBodyBytes int64 = 1 << 20

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBadRequest,
				"Request body exceeds maximum allowed size")
			return
		}

		// chunked bodies have no Content-Length
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
