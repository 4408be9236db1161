package dto

import "net/http"

// API error codes. Domain errors carry bare codes (NOT_FOUND, PAYOUT_LOCKED)
// that NormalizeErrorCode maps onto these before they reach the client.

const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeValidation is used when request binding fails field validation
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Loyalty program error codes
const (
	ErrCodeProgramNotConfigured = "ERR_PROGRAM_NOT_CONFIGURED"
	ErrCodeTiersNotConfigured   = "ERR_TIERS_NOT_CONFIGURED"
	ErrCodeInvalidTierTable     = "ERR_INVALID_TIER_TABLE"
	ErrCodeUserNotEnrolled      = "ERR_USER_NOT_ENROLLED"
	ErrCodeUnknownTier          = "ERR_UNKNOWN_TIER"
	ErrCodeTenantMismatch       = "ERR_TENANT_MISMATCH"
)

// Commission boost error codes
const (
	// ErrCodeInvalidTransition is used when a boost cannot move to the requested status
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	// ErrCodePayoutLocked is used when payment details are resubmitted after payout was queued
	ErrCodePayoutLocked = "ERR_PAYOUT_LOCKED"
	// ErrCodeNotDue is used when a sweep reaches a boost before its date
	ErrCodeNotDue = "ERR_NOT_DUE"
	// ErrCodeInvalidPaymentMethod is used for a payout method other than paypal or venmo
	ErrCodeInvalidPaymentMethod = "ERR_INVALID_PAYMENT_METHOD"
	// ErrCodeInvalidPaymentAccount is used when the account does not match the method
	ErrCodeInvalidPaymentAccount = "ERR_INVALID_PAYMENT_ACCOUNT"
)

// Automation error codes
const (
	// ErrCodePartialFailure is returned by the cron trigger when any tenant reported errors.
	// Cron monitors match on it without the ERR_ prefix.
	ErrCodePartialFailure = "PARTIAL_FAILURE"
	// ErrCodeRunInProgress is used when a manual trigger overlaps a running automation
	ErrCodeRunInProgress = "ERR_RUN_IN_PROGRESS"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrCodeRateLimited is used when a creator submits payment details too often
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeValidation: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:   http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:   http.StatusUnprocessableEntity,
	ErrCodeUnknownTier:    http.StatusUnprocessableEntity,
	ErrCodeTenantMismatch: http.StatusUnprocessableEntity,

	// Program configuration errors -> 422, the tenant exists but cannot be evaluated
	ErrCodeProgramNotConfigured: http.StatusUnprocessableEntity,
	ErrCodeTiersNotConfigured:   http.StatusUnprocessableEntity,
	ErrCodeInvalidTierTable:     http.StatusUnprocessableEntity,
	ErrCodeUserNotEnrolled:      http.StatusNotFound,

	// Boost lifecycle errors
	ErrCodeInvalidTransition:     http.StatusConflict,
	ErrCodePayoutLocked:          http.StatusConflict,
	ErrCodeNotDue:                http.StatusUnprocessableEntity,
	ErrCodeInvalidPaymentMethod:  http.StatusBadRequest,
	ErrCodeInvalidPaymentAccount: http.StatusBadRequest,

	// Automation
	ErrCodePartialFailure: http.StatusInternalServerError,
	ErrCodeRunInProgress:  http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,

	"PROGRAM_NOT_CONFIGURED": ErrCodeProgramNotConfigured,
	"TIERS_NOT_CONFIGURED":   ErrCodeTiersNotConfigured,
	"INVALID_TIER_TABLE":     ErrCodeInvalidTierTable,
	"USER_NOT_ENROLLED":      ErrCodeUserNotEnrolled,
	"UNKNOWN_TIER":           ErrCodeUnknownTier,
	"TENANT_MISMATCH":        ErrCodeTenantMismatch,
	"INVALID_PROMOTION":      ErrCodeBusinessRule,

	"INVALID_TRANSITION":      ErrCodeInvalidTransition,
	"PAYOUT_LOCKED":           ErrCodePayoutLocked,
	"NOT_DUE":                 ErrCodeNotDue,
	"INVALID_PAYMENT_METHOD":  ErrCodeInvalidPaymentMethod,
	"INVALID_PAYMENT_ACCOUNT": ErrCodeInvalidPaymentAccount,

	// field-level input errors raised by domain constructors
	"INVALID_ACTIVATION_DATE": ErrCodeInvalidInput,
	"INVALID_ADJUSTMENT_TYPE": ErrCodeInvalidInput,
	"INVALID_AMOUNT":          ErrCodeInvalidInput,
	"INVALID_BOOST_RATE":      ErrCodeInvalidInput,
	"INVALID_DURATION":        ErrCodeInvalidInput,
	"INVALID_HANDLE":          ErrCodeInvalidInput,
	"INVALID_EMAIL":           ErrCodeInvalidInput,
	"INVALID_PROGRAM_NAME":    ErrCodeInvalidInput,
	"INVALID_REASON":          ErrCodeInvalidInput,
	"INVALID_REDEMPTION":      ErrCodeInvalidInput,
	"INVALID_TENANT":          ErrCodeInvalidInput,
	"INVALID_USER":            ErrCodeInvalidInput,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
