package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
	"github.com/loyalty/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// setJWTContext simulates an authenticated request without a real token
func setJWTContext(c *gin.Context, tenantID, userID uuid.UUID) {
	c.Set(middleware.JWTTenantIDKey, tenantID)
	c.Set(middleware.JWTUserIDKey, userID)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestGetRequestID(t *testing.T) {
	c, _ := newTestContext()
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
	assert.Equal(t, "header-id", getRequestID(c))

	c.Set(middleware.RequestIDKey, "ctx-id")
	assert.Equal(t, "ctx-id", getRequestID(c))
}

func TestGetIdentity(t *testing.T) {
	c, _ := newTestContext()

	_, err := getTenantID(c)
	assert.Error(t, err)
	_, err = getUserID(c)
	assert.Error(t, err)

	tenantID, userID := uuid.New(), uuid.New()
	setJWTContext(c, tenantID, userID)

	got, err := getTenantID(c)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
	got, err = getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestBaseHandler_Identity_Unauthorized(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	_, _, ok := h.identity(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, w).Error.Code)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	tests := []struct {
		name         string
		method       func(*BaseHandler, *gin.Context)
		expectedCode int
		expectedErr  string
	}{
		{"BadRequest", func(h *BaseHandler, c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"NotFound", func(h *BaseHandler, c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"Unauthorized", func(h *BaseHandler, c *gin.Context) { h.Unauthorized(c, "who") }, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"Conflict", func(h *BaseHandler, c *gin.Context) { h.Conflict(c, dto.ErrCodeRunInProgress, "busy") }, http.StatusConflict, dto.ErrCodeRunInProgress},
		{"InternalError", func(h *BaseHandler, c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			c.Set(middleware.RequestIDKey, "req-1")

			tt.method(&BaseHandler{}, c)

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedErr, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"invalid input", shared.ErrInvalidInput, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"concurrency", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"invalid transition", shared.NewDomainError("INVALID_TRANSITION", "no"), http.StatusConflict, dto.ErrCodeInvalidTransition},
		{"payout locked", shared.NewDomainError("PAYOUT_LOCKED", "locked"), http.StatusConflict, dto.ErrCodePayoutLocked},
		{"not due", shared.NewDomainError("NOT_DUE", "later"), http.StatusUnprocessableEntity, dto.ErrCodeNotDue},
		{"tiers not configured", shared.NewDomainError("TIERS_NOT_CONFIGURED", "none"), http.StatusUnprocessableEntity, dto.ErrCodeTiersNotConfigured},
		{"field error", shared.NewDomainError("INVALID_BOOST_RATE", "rate"), http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"wrapped", fmt.Errorf("load: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"plain error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()

			(&BaseHandler{}).HandleError(c, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedErr, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestBaseHandlerHandleError_HidesInternalMessage(t *testing.T) {
	c, w := newTestContext()

	(&BaseHandler{}).HandleError(c, fmt.Errorf("dial tcp 10.0.0.3:5432: connection refused"))

	resp := decodeResponse(t, w)
	assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
}

func TestBaseHandlerHandleError_Nil(t *testing.T) {
	c, w := newTestContext()

	(&BaseHandler{}).HandleError(c, nil)

	assert.Empty(t, w.Body.Bytes())
}
