package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	validate := validator.New()

	// Report json field names instead of Go field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseCategory(fl.Field().String())
		return err == nil
	})
	validate.RegisterValidation("discount_type", func(fl validator.FieldLevel) bool {
		return domain.DiscountType(fl.Field().String()).Valid()
	})
	validate.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseOrderStatus(fl.Field().String())
		return err == nil
	})
	return validate
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var errs []ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errs = append(errs, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return errs
}

// RespondWithDecodeError answers a failed DecodeAndValidate call
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := FormatValidationErrors(err); len(validationErrors) > 0 {
		RespondWithValidationErrors(w, validationErrors)
		return
	}
	RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

var fieldMessages = map[string]string{
	"required":      "This field is required",
	"email":         "Invalid email format",
	"min":           "Value is too short",
	"max":           "Value is too long",
	"uuid":          "Invalid identifier",
	"category":      "Unknown product category",
	"discount_type": "Discount type must be percentage or fixed",
	"order_status":  "Unknown order status",
}

var boundMessages = map[string]string{
	"gte": "Value must be greater than or equal to ",
	"lte": "Value must be less than or equal to ",
	"gt":  "Value must be greater than ",
	"lt":  "Value must be less than ",
}

func getErrorMessage(e validator.FieldError) string {
	if msg, ok := fieldMessages[e.Tag()]; ok {
		return msg
	}
	if prefix, ok := boundMessages[e.Tag()]; ok {
		return prefix + e.Param()
	}
	return "Invalid value"
}
