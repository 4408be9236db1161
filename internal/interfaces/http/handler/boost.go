package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	boostapp "github.com/loyalty/backend/internal/application/boost"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// activationDateLayout is the calendar date format accepted for boost activation
const activationDateLayout = "2006-01-02"

// BoostService is the part of the boost lifecycle the creator API needs
type BoostService interface {
	ScheduleBoost(ctx context.Context, tenantID uuid.UUID, in boostapp.ScheduleBoostInput) (*reward.CommissionBoost, error)
	SubmitPaymentInfo(ctx context.Context, tenantID uuid.UUID, in boostapp.SubmitPaymentInfoInput) (*reward.CommissionBoost, error)
	GetPaymentInfo(ctx context.Context, tenantID, userID, boostID uuid.UUID) (*boostapp.PaymentInfo, error)
	GetBoost(ctx context.Context, tenantID, userID, boostID uuid.UUID) (*boostapp.BoostDetail, error)
}

// BoostHandler handles the creator-facing commission boost endpoints
type BoostHandler struct {
	BaseHandler
	boosts BoostService
}

// NewBoostHandler creates a new BoostHandler
func NewBoostHandler(boosts BoostService) *BoostHandler {
	return &BoostHandler{boosts: boosts}
}

// ScheduleBoostRequest claims a commission boost against a redemption
type ScheduleBoostRequest struct {
	RedemptionID   string `json:"redemption_id" binding:"required,uuid"`
	ActivationDate string `json:"activation_date" binding:"required,datetime=2006-01-02"`
	DurationDays   int    `json:"duration_days" binding:"required,min=1,max=365"`
	BoostRate      string `json:"boost_rate" binding:"required,decimal_positive"`
}

// SubmitPaymentInfoRequest carries the payout destination for an expired boost
type SubmitPaymentInfoRequest struct {
	PaymentMethod  string `json:"payment_method" binding:"required,oneof=paypal venmo"`
	PaymentAccount string `json:"payment_account" binding:"required,max=255"`
}

// Schedule handles POST /boosts
func (h *BoostHandler) Schedule(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req ScheduleBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	// binding already checked the formats
	redemptionID := uuid.MustParse(req.RedemptionID)
	activation, _ := time.ParseInLocation(activationDateLayout, req.ActivationDate, time.UTC)
	rate, _ := decimal.NewFromString(req.BoostRate)

	b, err := h.boosts.ScheduleBoost(c.Request.Context(), tenantID, boostapp.ScheduleBoostInput{
		UserID:         userID,
		RedemptionID:   redemptionID,
		ActivationDate: activation,
		DurationDays:   req.DurationDays,
		BoostRate:      rate,
		Actor:          &userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, b)
}

// Get handles GET /boosts/:id
func (h *BoostHandler) Get(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	boostID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.boosts.GetBoost(c.Request.Context(), tenantID, userID, boostID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, detail)
}

// SubmitPaymentInfo handles POST /boosts/:id/payment-info
func (h *BoostHandler) SubmitPaymentInfo(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	boostID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req SubmitPaymentInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	b, err := h.boosts.SubmitPaymentInfo(c.Request.Context(), tenantID, boostapp.SubmitPaymentInfoInput{
		UserID:  userID,
		BoostID: boostID,
		Method:  reward.PaymentMethod(req.PaymentMethod),
		Account: req.PaymentAccount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// GetPaymentInfo handles GET /boosts/:id/payment-info. Only the owner can read
// it and the account comes back masked.
func (h *BoostHandler) GetPaymentInfo(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	boostID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	info, err := h.boosts.GetPaymentInfo(c.Request.Context(), tenantID, userID, boostID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}
