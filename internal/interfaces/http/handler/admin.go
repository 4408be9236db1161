package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	boostapp "github.com/loyalty/backend/internal/application/boost"
	programapp "github.com/loyalty/backend/internal/application/program"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// ProgramAdmin is the program management surface used by tenant admins
type ProgramAdmin interface {
	ConfigureProgram(ctx context.Context, tenantID uuid.UUID, in programapp.ConfigureProgramInput) (*programapp.ProgramView, error)
	GetProgram(ctx context.Context, tenantID uuid.UUID) (*programapp.ProgramView, error)
	EnrollCreator(ctx context.Context, tenantID uuid.UUID, in programapp.EnrollCreatorInput) (*loyalty.UserTierState, error)
	QueueAdjustment(ctx context.Context, tenantID uuid.UUID, in programapp.QueueAdjustmentInput) (*loyalty.SalesAdjustment, error)
	ListPendingAdjustments(ctx context.Context, tenantID uuid.UUID) ([]loyalty.SalesAdjustment, error)
	RecordPerformance(ctx context.Context, tenantID uuid.UUID, in programapp.RecordPerformanceInput) (*loyalty.PerformanceDelta, error)
}

// BoostAdmin is the boost surface used by tenant admins
type BoostAdmin interface {
	MarkPayoutFulfilled(ctx context.Context, tenantID, boostID, actor uuid.UUID) (*reward.CommissionBoost, error)
	GetBoost(ctx context.Context, tenantID, userID, boostID uuid.UUID) (*boostapp.BoostDetail, error)
}

// AdminHandler handles the tenant admin endpoints. Routes are guarded by RequireAdmin.
type AdminHandler struct {
	BaseHandler
	programs ProgramAdmin
	boosts   BoostAdmin
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(programs ProgramAdmin, boosts BoostAdmin) *AdminHandler {
	return &AdminHandler{programs: programs, boosts: boosts}
}

// TierRequest is one rung of the ladder
type TierRequest struct {
	Code             string `json:"code" binding:"required,max=50"`
	Name             string `json:"name" binding:"required,max=100"`
	Order            int    `json:"order" binding:"min=0"`
	SalesThreshold   string `json:"sales_threshold" binding:"omitempty,numeric"`
	UnitsThreshold   int64  `json:"units_threshold" binding:"min=0"`
	CheckpointExempt bool   `json:"checkpoint_exempt"`
}

// ConfigureProgramRequest replaces the tenant's program settings and tier ladder
type ConfigureProgramRequest struct {
	Name             string        `json:"name" binding:"required,max=100"`
	VIPMetric        string        `json:"vip_metric" binding:"required,oneof=sales units"`
	CheckpointMonths int           `json:"checkpoint_months" binding:"omitempty,min=1,max=24"`
	Status           string        `json:"status" binding:"omitempty,oneof=active paused archived"`
	Tiers            []TierRequest `json:"tiers" binding:"required,min=1,dive"`
}

// EnrollCreatorRequest registers a creator with the program
type EnrollCreatorRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Handle string `json:"handle" binding:"required,max=100"`
	Email  string `json:"email" binding:"omitempty,email,max=254"`
}

// QueueAdjustmentRequest queues a manual correction for the next checkpoint pass.
// Amount may be negative for refunds.
type QueueAdjustmentRequest struct {
	UserID         string `json:"user_id" binding:"required,uuid"`
	Amount         string `json:"amount" binding:"omitempty,numeric"`
	AmountUnits    int64  `json:"amount_units"`
	Reason         string `json:"reason" binding:"required,max=500"`
	AdjustmentType string `json:"adjustment_type" binding:"required,oneof=manual_sale refund bonus correction"`
}

// RecordPerformanceRequest stages a sales increment from the order pipeline
type RecordPerformanceRequest struct {
	UserID     string     `json:"user_id" binding:"required,uuid"`
	Sales      string     `json:"sales" binding:"omitempty,numeric"`
	Units      int64      `json:"units"`
	Source     string     `json:"source" binding:"max=100"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// ConfigureProgram handles PUT /admin/program
func (h *AdminHandler) ConfigureProgram(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}

	var req ConfigureProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	in := programapp.ConfigureProgramInput{
		Name:             req.Name,
		Metric:           loyalty.VIPMetric(req.VIPMetric),
		CheckpointMonths: req.CheckpointMonths,
		Status:           loyalty.ProgramStatus(req.Status),
		Tiers:            make([]programapp.TierInput, 0, len(req.Tiers)),
	}
	if in.CheckpointMonths == 0 {
		in.CheckpointMonths = loyalty.DefaultCheckpointMonths
	}
	if in.Status == "" {
		in.Status = loyalty.ProgramStatusActive
	}
	for _, t := range req.Tiers {
		in.Tiers = append(in.Tiers, programapp.TierInput{
			Code:             t.Code,
			Name:             t.Name,
			Order:            t.Order,
			SalesThreshold:   parseDecimal(t.SalesThreshold),
			UnitsThreshold:   t.UnitsThreshold,
			CheckpointExempt: t.CheckpointExempt,
		})
	}

	view, err := h.programs.ConfigureProgram(c.Request.Context(), tenantID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// GetProgram handles GET /admin/program
func (h *AdminHandler) GetProgram(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}

	view, err := h.programs.GetProgram(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, view)
}

// EnrollCreator handles POST /admin/creators
func (h *AdminHandler) EnrollCreator(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}

	var req EnrollCreatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	state, err := h.programs.EnrollCreator(c.Request.Context(), tenantID, programapp.EnrollCreatorInput{
		UserID: uuid.MustParse(req.UserID),
		Handle: req.Handle,
		Email:  req.Email,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, state)
}

// QueueAdjustment handles POST /admin/adjustments
func (h *AdminHandler) QueueAdjustment(c *gin.Context) {
	tenantID, adminID, ok := h.identity(c)
	if !ok {
		return
	}

	var req QueueAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	adjustment, err := h.programs.QueueAdjustment(c.Request.Context(), tenantID, programapp.QueueAdjustmentInput{
		UserID:     uuid.MustParse(req.UserID),
		Amount:     parseDecimal(req.Amount),
		Units:      req.AmountUnits,
		Reason:     req.Reason,
		Type:       loyalty.AdjustmentType(req.AdjustmentType),
		AdjustedBy: adminID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, adjustment)
}

// ListPendingAdjustments handles GET /admin/adjustments
func (h *AdminHandler) ListPendingAdjustments(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}

	adjustments, err := h.programs.ListPendingAdjustments(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if adjustments == nil {
		adjustments = []loyalty.SalesAdjustment{}
	}

	h.Success(c, adjustments)
}

// RecordPerformance handles POST /admin/performance
func (h *AdminHandler) RecordPerformance(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}

	var req RecordPerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	in := programapp.RecordPerformanceInput{
		UserID: uuid.MustParse(req.UserID),
		Sales:  parseDecimal(req.Sales),
		Units:  req.Units,
		Source: req.Source,
	}
	if req.RecordedAt != nil {
		in.RecordedAt = req.RecordedAt.UTC()
	}

	delta, err := h.programs.RecordPerformance(c.Request.Context(), tenantID, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, delta)
}

// GetBoost handles GET /admin/boosts/:id for any creator's boost
func (h *AdminHandler) GetBoost(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	boostID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.boosts.GetBoost(c.Request.Context(), tenantID, uuid.Nil, boostID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}

// FulfillPayout handles POST /admin/boosts/:id/fulfill
func (h *AdminHandler) FulfillPayout(c *gin.Context) {
	tenantID, adminID, ok := h.identity(c)
	if !ok {
		return
	}
	boostID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	b, err := h.boosts.MarkPayoutFulfilled(c.Request.Context(), tenantID, boostID, adminID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// parseDecimal reads an amount that binding has already checked. Empty is zero.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
