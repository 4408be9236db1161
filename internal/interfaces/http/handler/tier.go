package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	programapp "github.com/loyalty/backend/internal/application/program"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
	"github.com/loyalty/backend/internal/interfaces/http/middleware"
)

// TierReader serves a creator's tier read models
type TierReader interface {
	GetTierStatus(ctx context.Context, tenantID, userID uuid.UUID) (*programapp.TierStatus, error)
	ListCheckpointHistory(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]loyalty.CheckpointRecord, int64, error)
}

// TierHandler handles the creator's own tier endpoints
type TierHandler struct {
	BaseHandler
	tiers TierReader
}

// NewTierHandler creates a new TierHandler
func NewTierHandler(tiers TierReader) *TierHandler {
	return &TierHandler{tiers: tiers}
}

// Me handles GET /tiers/me
func (h *TierHandler) Me(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	status, err := h.tiers.GetTierStatus(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// History handles GET /tiers/me/history, newest checkpoint first
func (h *TierHandler) History(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	filter := req.Filter()

	records, total, err := h.tiers.ListCheckpointHistory(c.Request.Context(), tenantID, userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if records == nil {
		records = []loyalty.CheckpointRecord{}
	}

	h.SuccessWithMeta(c, records, total, filter.Page, filter.PageSize)
}
