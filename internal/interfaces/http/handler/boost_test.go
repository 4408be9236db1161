package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	boostapp "github.com/loyalty/backend/internal/application/boost"
	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func withIdentity(tenantID, userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		setJWTContext(c, tenantID, userID)
		c.Next()
	}
}

func newBoostRouter(svc *mockBoostService, tenantID, userID uuid.UUID) *gin.Engine {
	h := NewBoostHandler(svc)
	r := gin.New()
	g := r.Group("/boosts", withIdentity(tenantID, userID))
	g.POST("", h.Schedule)
	g.GET("/:id", h.Get)
	g.POST("/:id/payment-info", h.SubmitPaymentInfo)
	g.GET("/:id/payment-info", h.GetPaymentInfo)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBoostHandler_Schedule(t *testing.T) {
	tenantID, userID, redemptionID := uuid.New(), uuid.New(), uuid.New()
	svc := new(mockBoostService)
	router := newBoostRouter(svc, tenantID, userID)

	boost := &reward.CommissionBoost{TenantAggregateRoot: shared.TenantAggregateRoot{BaseEntity: shared.BaseEntity{ID: uuid.New()}}, UserID: userID, Status: reward.BoostStatusScheduled}
	svc.On("ScheduleBoost", mock.Anything, tenantID, mock.MatchedBy(func(in boostapp.ScheduleBoostInput) bool {
		return in.UserID == userID &&
			in.RedemptionID == redemptionID &&
			in.ActivationDate.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) &&
			in.DurationDays == 30 &&
			in.BoostRate.Equal(decimal.RequireFromString("2.5")) &&
			in.Actor != nil && *in.Actor == userID
	})).Return(boost, nil)

	w := doJSON(router, http.MethodPost, "/boosts",
		`{"redemption_id":"`+redemptionID.String()+`","activation_date":"2026-11-01","duration_days":30,"boost_rate":"2.5"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "scheduled", data["status"])
	svc.AssertExpectations(t)
}

func TestBoostHandler_Schedule_RejectsBadBody(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	redemption := uuid.NewString()

	tests := []struct {
		name     string
		body     string
		wantCode string
		field    string
	}{
		{"malformed json", `{"redemption_id":`, dto.ErrCodeInvalidJSON, ""},
		{"missing redemption", `{"activation_date":"2026-11-01","duration_days":30,"boost_rate":"2"}`, dto.ErrCodeValidation, "redemption_id"},
		{"bad date", `{"redemption_id":"` + redemption + `","activation_date":"11/01/2026","duration_days":30,"boost_rate":"2"}`, dto.ErrCodeValidation, "activation_date"},
		{"zero duration", `{"redemption_id":"` + redemption + `","activation_date":"2026-11-01","duration_days":0,"boost_rate":"2"}`, dto.ErrCodeValidation, "duration_days"},
		{"long duration", `{"redemption_id":"` + redemption + `","activation_date":"2026-11-01","duration_days":400,"boost_rate":"2"}`, dto.ErrCodeValidation, "duration_days"},
		{"negative rate", `{"redemption_id":"` + redemption + `","activation_date":"2026-11-01","duration_days":30,"boost_rate":"-1"}`, dto.ErrCodeValidation, "boost_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockBoostService)
			w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodPost, "/boosts", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.field != "" {
				require.NotEmpty(t, resp.Error.Details)
				assert.Equal(t, tt.field, resp.Error.Details[0].Field)
			}
			svc.AssertNotCalled(t, "ScheduleBoost", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBoostHandler_Schedule_DomainError(t *testing.T) {
	tenantID, userID := uuid.New(), uuid.New()
	svc := new(mockBoostService)
	svc.On("ScheduleBoost", mock.Anything, tenantID, mock.Anything).
		Return(nil, shared.NewDomainError("INVALID_ACTIVATION_DATE", "Activation date must not be in the past"))

	w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodPost, "/boosts",
		`{"redemption_id":"`+uuid.NewString()+`","activation_date":"2020-01-01","duration_days":30,"boost_rate":"2"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	assert.Equal(t, "Activation date must not be in the past", resp.Error.Message)
}

func TestBoostHandler_RequiresIdentity(t *testing.T) {
	h := NewBoostHandler(new(mockBoostService))
	r := gin.New()
	r.GET("/boosts/:id", h.Get)

	w := doJSON(r, http.MethodGet, "/boosts/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBoostHandler_Get(t *testing.T) {
	tenantID, userID, boostID := uuid.New(), uuid.New(), uuid.New()
	svc := new(mockBoostService)
	detail := &boostapp.BoostDetail{
		Boost:         &reward.CommissionBoost{TenantAggregateRoot: shared.TenantAggregateRoot{BaseEntity: shared.BaseEntity{ID: boostID}}, Status: reward.BoostStatusPendingPayout},
		MaskedAccount: "****1234",
		History:       []reward.BoostHistory{},
	}
	svc.On("GetBoost", mock.Anything, tenantID, userID, boostID).Return(detail, nil)

	w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodGet, "/boosts/"+boostID.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "****1234", data["masked_account"])
	svc.AssertExpectations(t)
}

func TestBoostHandler_Get_InvalidID(t *testing.T) {
	svc := new(mockBoostService)

	w := doJSON(newBoostRouter(svc, uuid.New(), uuid.New()), http.MethodGet, "/boosts/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
}

func TestBoostHandler_Get_NotFound(t *testing.T) {
	tenantID, userID, boostID := uuid.New(), uuid.New(), uuid.New()
	svc := new(mockBoostService)
	svc.On("GetBoost", mock.Anything, tenantID, userID, boostID).Return(nil, shared.ErrNotFound)

	w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodGet, "/boosts/"+boostID.String(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBoostHandler_SubmitPaymentInfo(t *testing.T) {
	tenantID, userID, boostID := uuid.New(), uuid.New(), uuid.New()
	svc := new(mockBoostService)
	svc.On("SubmitPaymentInfo", mock.Anything, tenantID, boostapp.SubmitPaymentInfoInput{
		UserID:  userID,
		BoostID: boostID,
		Method:  reward.PaymentMethodVenmo,
		Account: "@creator-jane",
	}).Return(&reward.CommissionBoost{TenantAggregateRoot: shared.TenantAggregateRoot{BaseEntity: shared.BaseEntity{ID: boostID}}, Status: reward.BoostStatusPendingPayout, PaymentAccount: "ciphertext"}, nil)

	w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodPost, "/boosts/"+boostID.String()+"/payment-info",
		`{"payment_method":"venmo","payment_account":"@creator-jane"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "ciphertext")
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "pending_payout", data["status"])
	svc.AssertExpectations(t)
}

func TestBoostHandler_SubmitPaymentInfo_Errors(t *testing.T) {
	tenantID, userID, boostID := uuid.New(), uuid.New(), uuid.New()
	path := "/boosts/" + boostID.String() + "/payment-info"

	t.Run("unknown method", func(t *testing.T) {
		svc := new(mockBoostService)
		w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodPost, path,
			`{"payment_method":"cashapp","payment_account":"$jane"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeResponse(t, w).Error.Code)
	})

	t.Run("wrong state", func(t *testing.T) {
		svc := new(mockBoostService)
		svc.On("SubmitPaymentInfo", mock.Anything, tenantID, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_TRANSITION", "Boost is not awaiting payment info"))

		w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodPost, path,
			`{"payment_method":"paypal","payment_account":"jane@example.com"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidTransition, decodeResponse(t, w).Error.Code)
	})

	t.Run("bad account", func(t *testing.T) {
		svc := new(mockBoostService)
		svc.On("SubmitPaymentInfo", mock.Anything, tenantID, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_PAYMENT_ACCOUNT", "PayPal account must be an email address"))

		w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodPost, path,
			`{"payment_method":"paypal","payment_account":"jane"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidPaymentAccount, decodeResponse(t, w).Error.Code)
	})
}

func TestBoostHandler_GetPaymentInfo(t *testing.T) {
	tenantID, userID, boostID := uuid.New(), uuid.New(), uuid.New()
	collected := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc := new(mockBoostService)
	svc.On("GetPaymentInfo", mock.Anything, tenantID, userID, boostID).Return(&boostapp.PaymentInfo{
		BoostID:       boostID,
		Method:        reward.PaymentMethodPayPal,
		MaskedAccount: reward.MaskAccount("jane@example.com"),
		CollectedAt:   &collected,
	}, nil)

	w := doJSON(newBoostRouter(svc, tenantID, userID), http.MethodGet, "/boosts/"+boostID.String()+"/payment-info", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "paypal", data["payment_method"])
	assert.Equal(t, "ja************om", data["masked_account"])
	assert.NotContains(t, w.Body.String(), "jane@example.com")
	assert.NotContains(t, data, "payment_account")
}
