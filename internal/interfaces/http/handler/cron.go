package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/loyalty/backend/internal/application/automation"
	"github.com/loyalty/backend/internal/infrastructure/scheduler"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// cronErrorLimit caps how many error lines a partial failure response carries
const cronErrorLimit = 10

// AutomationTrigger runs the daily automation on demand
type AutomationTrigger interface {
	TriggerNow(ctx context.Context) (*automation.AggregateReport, error)
}

// CronHandler serves the external cron trigger. The route is guarded by CronAuth.
type CronHandler struct {
	BaseHandler
	trigger AutomationTrigger
	logger  *zap.Logger
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(trigger AutomationTrigger, logger *zap.Logger) *CronHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronHandler{trigger: trigger, logger: logger}
}

// DailyAutomation handles POST /api/cron/daily-automation. A clean run answers 200
// with the aggregate report; a run with any error answers 500 PARTIAL_FAILURE with
// the report and the first errors so cron monitors flag it.
func (h *CronHandler) DailyAutomation(c *gin.Context) {
	report, err := h.trigger.TriggerNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			h.Conflict(c, dto.ErrCodeRunInProgress, "Daily automation is already running")
			return
		}
		h.logger.Error("Daily automation trigger failed",
			zap.String("request_id", getRequestID(c)),
			zap.Error(err))
		h.InternalError(c, "Daily automation failed")
		return
	}

	if report.Success {
		h.Success(c, report)
		return
	}

	resp := dto.NewErrorResponseWithRequestID(dto.ErrCodePartialFailure,
		"Daily automation completed with errors", getRequestID(c))
	resp.Error.Errors = report.FirstErrors(cronErrorLimit)
	resp.Data = report
	c.JSON(http.StatusInternalServerError, resp)
}
