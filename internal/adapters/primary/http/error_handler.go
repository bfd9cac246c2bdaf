package http

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
)

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// fieldErrors maps domain validation sentinels to the request field at fault.
var fieldErrors = []struct {
	err   error
	field string
}{
	{apperrors.ErrTitleRequired, "title"},
	{apperrors.ErrTitleTooLong, "title"},
	{apperrors.ErrDescriptionTooLong, "description"},
	{apperrors.ErrInvalidCategory, "category"},
	{apperrors.ErrInvalidPriority, "priority"},
	{apperrors.ErrInvalidStatus, "status"},
	{apperrors.ErrInvalidMethod, "method"},
	{apperrors.ErrInvalidPath, "path"},
	{apperrors.ErrInvalidResponseCode, "response_code"},
	{apperrors.ErrInvalidResponseTime, "response_time"},
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, err)
		WriteJSON(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err)
		h.writeValidationErrorResponse(w, validationErrs)
		return
	}

	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			h.logError(r, http.StatusUnprocessableEntity, err)
			fields := apperrors.NewValidationErrors()
			fields.Add(fe.field, fe.err.Error())
			h.writeValidationErrorResponse(w, fields)
			return
		}
	}

	statusCode, response := h.mapDomainError(err)
	h.logError(r, statusCode, err)
	WriteJSON(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, apperrors.ErrTicketNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Ticket not found",
			Code:  "TICKET_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrRequestNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "API request not found",
			Code:  "REQUEST_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Resource not found",
			Code:  "NOT_FOUND",
		}

	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error: "Bad request",
			Code:  "BAD_REQUEST",
		}

	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error: "Too many requests. Please try again later.",
			Code:  "RATE_LIMITED",
		}

	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

// logError logs at error for 5xx and warn for 4xx. The request ID comes from
// the context through the logging handler.
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error) {
	logAttrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	switch {
	case statusCode >= 500:
		h.logger.ErrorContext(r.Context(), "server error", logAttrs...)
	case statusCode >= 400:
		h.logger.WarnContext(r.Context(), "client error", logAttrs...)
	default:
		h.logger.InfoContext(r.Context(), "request error", logAttrs...)
	}
}

// writeValidationErrorResponse writes a validation error response
func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors) {
	WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: errs.Errors,
	})
}

// HandleError writes err when it is non-nil and reports whether it did.
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
