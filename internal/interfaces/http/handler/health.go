package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
)

// Pinger checks a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	db        Pinger
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler. db may be nil.
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse is the probe payload
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
	Database  string `json:"database,omitempty"`
}

// Live handles GET /health
func (h *HealthHandler) Live(c *gin.Context) {
	h.Success(c, h.response("ok"))
}

// Ready handles GET /ready. It answers 503 when the database does not respond.
func (h *HealthHandler) Ready(c *gin.Context) {
	resp := h.response("ok")
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			resp.Status = "unavailable"
			resp.Database = "down"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
			return
		}
		resp.Database = "up"
	}
	h.Success(c, resp)
}

func (h *HealthHandler) response(status string) HealthResponse {
	return HealthResponse{
		Status:    status,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
}
