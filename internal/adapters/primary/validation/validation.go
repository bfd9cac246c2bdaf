package validation

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
	"github.com/lorrc/ticket-insight/internal/core/query"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields under their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validator collects field errors for a single request.
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		errors: apperrors.NewValidationErrors(),
	}
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the validation errors
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Err returns the collected errors, or nil when there are none.
func (v *Validator) Err() error {
	if v.HasErrors() {
		return v.errors
	}
	return nil
}

// Struct runs the struct tag rules on s and records every failing field.
func (v *Validator) Struct(s any) *Validator {
	err := validate.Struct(s)
	if err == nil {
		return v
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.errors.Add("body", err.Error())
		return v
	}
	for _, fe := range fieldErrs {
		v.errors.Add(fe.Field(), fieldErrorMessage(fe))
	}
	return v
}

// Var runs the tag rules on a single value and records failures under field.
func (v *Validator) Var(field string, value any, tag string) *Validator {
	err := validate.Var(value, tag)
	if err == nil {
		return v
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.errors.Add(field, err.Error())
		return v
	}
	for _, fe := range fieldErrs {
		v.errors.Add(field, fieldErrorMessage(fe))
	}
	return v
}

// OneOf validates value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}

	for _, a := range allowed {
		if value == a {
			return v
		}
	}

	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Custom adds a custom validation
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

func fieldErrorMessage(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "ip":
		return "Must be a valid IP address"
	case "min":
		if fe.Kind() == reflect.String {
			return "Must be at least " + param + " characters"
		}
		return "Must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + param + " characters"
		}
		return "Must be at most " + param
	case "gte":
		return "Must be greater than or equal to " + param
	case "lte":
		return "Must be less than or equal to " + param
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(param, " ", ", ")
	default:
		return "Failed validation for '" + fe.Tag() + "'"
	}
}

// DecodeJSON decodes the request body into a T.
func DecodeJSON[T any](r *http.Request) (*T, error) {
	var req T

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}

	return &req, nil
}

// PaginationParams holds pagination parameters
type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads skip (or offset) and limit. skip must be >= 0 and
// limit between 1 and query.MaxLimit; violations are recorded on v.
func (v *Validator) ParsePagination(r *http.Request) PaginationParams {
	params := PaginationParams{Limit: query.DefaultLimit}

	offsetKey := "skip"
	if r.URL.Query().Get(offsetKey) == "" && r.URL.Query().Get("offset") != "" {
		offsetKey = "offset"
	}

	if offset := v.QueryInt(r, offsetKey); offset != nil {
		if *offset < 0 {
			v.errors.Add(offsetKey, "Must be greater than or equal to 0")
		} else {
			params.Offset = *offset
		}
	}

	if limit := v.QueryInt(r, "limit"); limit != nil {
		if *limit < 1 || *limit > query.MaxLimit {
			v.errors.Add("limit", "Must be between 1 and "+strconv.Itoa(query.MaxLimit))
		} else {
			params.Limit = *limit
		}
	}

	return params
}

// QueryInt parses an optional integer query parameter. A value that does not
// parse is recorded on v and yields nil.
func (v *Validator) QueryInt(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		v.errors.Add(key, "Must be a valid integer")
		return nil
	}
	return &value
}

// QueryFloat parses an optional finite number query parameter.
func (v *Validator) QueryFloat(r *http.Request, key string) *float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		v.errors.Add(key, "Must be a valid number")
		return nil
	}
	return &value
}

// ParseStringQueryParam safely parses a string query parameter
func ParseStringQueryParam(r *http.Request, key string) *string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	return &value
}

// ParseBoolQueryParam safely parses a boolean query parameter
func ParseBoolQueryParam(r *http.Request, key string, defaultValue bool) bool {
	valueStr := r.URL.Query().Get(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
