package services

import (
	"context"
	"time"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
	"github.com/lorrc/ticket-insight/internal/core/query"
)

// requestSchema is the listing contract for API request records: path
// substring search, a latency range, sorting by creation time or latency.
var requestSchema = query.Schema{
	SearchColumns: []string{"path"},
	RangeColumn:   "response_time",
	Sorts: map[string]query.SortField{
		"created_at":    {Column: "created_at"},
		"response_time": {Column: "response_time"},
	},
	DefaultSort: "created_at",
	TieBreaker:  "id",
}

// RequestLogService records and lists observed API requests
type RequestLogService struct {
	requestRepo ports.APIRequestRepository
	txManager   ports.TransactionManager
	now         func() time.Time
}

var _ ports.RequestLogService = (*RequestLogService)(nil)

// NewRequestLogService creates a new request log service
func NewRequestLogService(
	requestRepo ports.APIRequestRepository,
	txManager ports.TransactionManager,
	opts ...Option,
) *RequestLogService {
	o := applyOptions(opts)
	return &RequestLogService{
		requestRepo: requestRepo,
		txManager:   txManager,
		now:         o.now,
	}
}

// RecordRequest stores one request record
func (s *RequestLogService) RecordRequest(ctx context.Context, params ports.RecordRequestParams) (*domain.APIRequest, error) {
	record, err := domain.NewAPIRequest(domain.APIRequestParams{
		Method:       params.Method,
		Path:         params.Path,
		ResponseCode: params.ResponseCode,
		ResponseTime: params.ResponseTime,
		UserAgent:    params.UserAgent,
		IPAddress:    params.IPAddress,
	}, s.now())
	if err != nil {
		return nil, err
	}
	return s.requestRepo.Create(ctx, record)
}

// GetRequest retrieves a single request record
func (s *RequestLogService) GetRequest(ctx context.Context, requestID int64) (*domain.APIRequest, error) {
	return s.requestRepo.GetByID(ctx, requestID)
}

// ListRequests filters, sorts and pages request records
func (s *RequestLogService) ListRequests(ctx context.Context, params ports.ListRequestsParams) (*query.Page[*domain.APIRequest], error) {
	spec := query.New(requestSchema).
		WhereFold("method", params.Method).
		Where("response_code", params.ResponseCode).
		Between(params.MinResponseTime, params.MaxResponseTime).
		Search(params.PathContains).
		OrderBy(params.SortBy, params.SortOrder).
		Page(params.Offset, params.Limit).
		Build()

	page := &query.Page[*domain.APIRequest]{}
	err := s.txManager.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		total, err := s.requestRepo.Count(ctx, spec)
		if err != nil {
			return err
		}
		items, err := s.requestRepo.Find(ctx, spec)
		if err != nil {
			return err
		}
		page.Total = total
		page.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}
