package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/loyalty/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// SetupValidator names fields by their JSON tag in errors and registers the
// decimal_positive tag for money amounts sent as strings
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("decimal_positive", validateDecimalPositive)
}

func validateDecimalPositive(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	d, err := decimal.NewFromString(s)
	return err == nil && d.IsPositive()
}

// FormatValidationErrors lists each rejected field under its JSON name
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	errors.As(err, &fieldErrs)

	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		details = append(details, dto.ValidationDetail{Field: e.Field(), Message: getValidationMessage(e)})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 for a failed bind. Malformed JSON gets
// ERR_INVALID_JSON, field rule failures get per-field details.
func HandleValidationError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "Request body is not valid JSON", GetRequestID(c)))
		return
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

var validationMessages = map[string]string{
	"required":         "This field is required",
	"email":            "Invalid email format",
	"uuid":             "Invalid UUID format",
	"oneof":            "Must be one of: %s",
	"gt":               "Must be greater than %s",
	"gte":              "Must be greater than or equal to %s",
	"lte":              "Must be less than or equal to %s",
	"datetime":         "Must be a date in the format %s",
	"decimal_positive": "Must be a positive decimal number",
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "min", "max":
		bound := "at least"
		if e.Tag() == "max" {
			bound = "at most"
		}
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be %s %s characters", bound, e.Param())
		}
		return fmt.Sprintf("Must be %s %s", bound, e.Param())
	}
	msg, ok := validationMessages[e.Tag()]
	if !ok {
		return "Invalid value"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, e.Param())
	}
	return msg
}
