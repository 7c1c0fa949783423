package middleware

import (
	"fmt"
	"html"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationError represents a single field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Tag     string      `json:"tag"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrorResponse is the body written under "error" for validation
// failures: the standard code and message plus the per-field errors.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors"`
}

var (
	// Validator instance
	validate *validator.Validate

	// UUID regex pattern (v4)
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
)

// InitValidator initializes the validator with custom validations
func InitValidator() {
	validate = validator.New()

	validate.RegisterValidation("uuid_v4", validateUUIDv4)
	validate.RegisterValidation("no_html", validateNoHTML)
	validate.RegisterValidation("decimal_positive", validateDecimalPositive)
	validate.RegisterValidation("decimal_non_negative", validateDecimalNonNegative)
	validate.RegisterValidation("percentage", validatePercentage)

	// Register custom tag name function to use json tags as field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// GetValidator returns the validator instance
func GetValidator() *validator.Validate {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// ValidateRequest is a middleware that ensures the validator is initialized
func ValidateRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if validate == nil {
			InitValidator()
		}
		c.Next()
	}
}

// ValidateStruct validates a struct and writes a structured error response on failure
func ValidateStruct(c *gin.Context, s interface{}) bool {
	if validate == nil {
		InitValidator()
	}

	err := validate.Struct(s)
	if err != nil {
		validationErrors := []ValidationError{}

		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range errs {
				validationErrors = append(validationErrors, ValidationError{
					Field:   e.Field(),
					Message: getErrorMessage(e),
					Tag:     e.Tag(),
					Value:   e.Value(),
				})
			}
		}

		c.JSON(http.StatusBadRequest, gin.H{"error": ValidationErrorResponse{
			Code:    "VALIDATION",
			Message: "validation failed",
			Errors:  validationErrors,
		}})
		return false
	}

	return true
}

// getErrorMessage returns a human-readable error message for validation errors
func getErrorMessage(e validator.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "uuid_v4":
		return fmt.Sprintf("%s must be a valid UUID v4", field)
	case "no_html":
		return fmt.Sprintf("%s must not contain HTML tags", field)
	case "decimal_positive":
		return fmt.Sprintf("%s must be a positive number", field)
	case "decimal_non_negative":
		return fmt.Sprintf("%s must not be negative", field)
	case "percentage":
		return fmt.Sprintf("%s must be between 0 and 100", field)
	default:
		return fmt.Sprintf("%s failed validation for %s", field, tag)
	}
}

// Custom validation functions

// validateUUIDv4 validates UUID v4 format
func validateUUIDv4(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return uuidRegex.MatchString(strings.ToLower(value))
}

// validateNoHTML validates that a string doesn't contain HTML tags
func validateNoHTML(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return !strings.Contains(value, "<") && !strings.Contains(value, ">")
}

// validateDecimalPositive validates that a decimal.Decimal field is strictly positive
func validateDecimalPositive(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return v.GreaterThan(decimal.Zero)
	case *decimal.Decimal:
		if v == nil {
			return false
		}
		return v.GreaterThan(decimal.Zero)
	default:
		return false
	}
}

// validateDecimalNonNegative validates that a decimal.Decimal field is zero or positive
func validateDecimalNonNegative(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return v.GreaterThanOrEqual(decimal.Zero)
	case *decimal.Decimal:
		if v == nil {
			return false
		}
		return v.GreaterThanOrEqual(decimal.Zero)
	default:
		return false
	}
}

// validatePercentage validates that a decimal.Decimal field lies within [0, 100],
// used for allocation rule destination percentages.
func validatePercentage(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case decimal.Decimal:
		return v.GreaterThanOrEqual(decimal.Zero) && v.LessThanOrEqual(decimal.NewFromInt(100))
	case *decimal.Decimal:
		if v == nil {
			return false
		}
		return v.GreaterThanOrEqual(decimal.Zero) && v.LessThanOrEqual(decimal.NewFromInt(100))
	default:
		return false
	}
}

// SanitizeString removes HTML entities and trims whitespace
func SanitizeString(s string) string {
	s = html.EscapeString(s)
	s = strings.TrimSpace(s)
	return s
}

// SanitizeInput is a middleware that sanitizes query parameters to prevent XSS
func SanitizeInput() gin.HandlerFunc {
	return func(c *gin.Context) {
		queryParams := c.Request.URL.Query()
		for key, values := range queryParams {
			for i, value := range values {
				queryParams[key][i] = SanitizeString(value)
			}
		}
		c.Request.URL.RawQuery = queryParams.Encode()

		c.Next()
	}
}

// ValidateDecimalAmount validates a decimal amount falls within [min, max]
func ValidateDecimalAmount(amount decimal.Decimal, min, max decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be greater than 0")
	}

	if amount.LessThan(min) {
		return fmt.Errorf("amount must be at least %s", min.String())
	}

	if amount.GreaterThan(max) {
		return fmt.Errorf("amount must not exceed %s", max.String())
	}

	return nil
}

// ValidateUUID validates UUID v4 format
func ValidateUUID(id string) error {
	if !uuidRegex.MatchString(strings.ToLower(id)) {
		return fmt.Errorf("invalid UUID format")
	}
	return nil
}
