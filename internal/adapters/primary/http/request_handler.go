package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/ticket-insight/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
)

// RequestHandler serves the recorded API request endpoints.
type RequestHandler struct {
	requestLogService ports.RequestLogService
	errorHandler      *ErrorHandler
	logger            *slog.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(
	requestLogService ports.RequestLogService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *RequestHandler {
	return &RequestHandler{
		requestLogService: requestLogService,
		errorHandler:      errorHandler,
		logger:            logger.With("handler", "request"),
	}
}

// RegisterRoutes sets up the routing for the request log endpoints.
func (h *RequestHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleRecordRequest)
	r.Get("/", h.HandleListRequests)
	r.Get("/{requestID}", h.HandleGetRequest)
}

// RecordRequestRequest defines the expected JSON body for storing a record.
// response_time is in seconds.
type RecordRequestRequest struct {
	Method       string   `json:"method" validate:"required,max=10"`
	Path         string   `json:"path" validate:"required,max=2048"`
	ResponseCode *int     `json:"response_code" validate:"required,gte=100,lte=599"`
	ResponseTime *float64 `json:"response_time" validate:"required,gte=0"`
	UserAgent    *string  `json:"user_agent" validate:"omitempty,max=512"`
	IPAddress    *string  `json:"ip_address" validate:"omitempty,ip,max=45"`
}

func toRequestDTOs(requests []*domain.APIRequest) []domain.APIRequestSnapshot {
	response := make([]domain.APIRequestSnapshot, 0, len(requests))
	for _, req := range requests {
		response = append(response, domain.NewAPIRequestSnapshot(req))
	}
	return response
}

// HandleRecordRequest handles POST /requests
func (h *RequestHandler) HandleRecordRequest(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeJSON[RecordRequestRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if err := validation.NewValidator().Struct(req).Err(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	record, err := h.requestLogService.RecordRequest(r.Context(), ports.RecordRequestParams{
		Method:       req.Method,
		Path:         req.Path,
		ResponseCode: *req.ResponseCode,
		ResponseTime: *req.ResponseTime,
		UserAgent:    req.UserAgent,
		IPAddress:    req.IPAddress,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, domain.NewAPIRequestSnapshot(record))
}

// HandleListRequests handles GET /requests
func (h *RequestHandler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	v := validation.NewValidator()
	pagination := v.ParsePagination(r)
	responseCode := v.QueryInt(r, "response_code")
	minResponseTime := v.QueryFloat(r, "min_response_time")
	maxResponseTime := v.QueryFloat(r, "max_response_time")

	if err := v.Err(); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	page, err := h.requestLogService.ListRequests(r.Context(), ports.ListRequestsParams{
		Method:          validation.ParseStringQueryParam(r, "method"),
		ResponseCode:    responseCode,
		MinResponseTime: minResponseTime,
		MaxResponseTime: maxResponseTime,
		PathContains:    r.URL.Query().Get("path_contains"),
		SortBy:          r.URL.Query().Get("sort_by"),
		SortOrder:       r.URL.Query().Get("sort_order"),
		Offset:          pagination.Offset,
		Limit:           pagination.Limit,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WritePaginated(w, toRequestDTOs(page.Items), pagination.Limit, pagination.Offset, page.Total)
}

// HandleGetRequest handles GET /requests/{requestID}
func (h *RequestHandler) HandleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := parseIDParam(r, "requestID")
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	record, err := h.requestLogService.GetRequest(r.Context(), requestID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteOK(w, domain.NewAPIRequestSnapshot(record))
}
