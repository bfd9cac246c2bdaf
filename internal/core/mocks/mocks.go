package mocks

import (
	"context"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
	"github.com/lorrc/ticket-insight/internal/core/query"
	"github.com/stretchr/testify/mock"
)

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Ticket) *domain.Ticket); ok {
		return fn(ctx, ticket), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Ticket) *domain.Ticket); ok {
		return fn(ctx, ticket), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) Find(ctx context.Context, spec query.Spec) ([]*domain.Ticket, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Count(ctx context.Context, spec query.Spec) (int64, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(int64), args.Error(1)
}

// MockAPIRequestRepository is a mock implementation of ports.APIRequestRepository
type MockAPIRequestRepository struct {
	mock.Mock
}

func NewMockAPIRequestRepository() *MockAPIRequestRepository {
	return &MockAPIRequestRepository{}
}

func (m *MockAPIRequestRepository) Create(ctx context.Context, req *domain.APIRequest) (*domain.APIRequest, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, *domain.APIRequest) *domain.APIRequest); ok {
		return fn(ctx, req), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIRequest), args.Error(1)
}

func (m *MockAPIRequestRepository) GetByID(ctx context.Context, id int64) (*domain.APIRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIRequest), args.Error(1)
}

func (m *MockAPIRequestRepository) Find(ctx context.Context, spec query.Spec) ([]*domain.APIRequest, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIRequest), args.Error(1)
}

func (m *MockAPIRequestRepository) Count(ctx context.Context, spec query.Spec) (int64, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionManager is a mock implementation of ports.TransactionManager.
// When the expectation returns nil the callback runs with the caller's ctx.
type MockTransactionManager struct {
	mock.Mock
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

func (m *MockTransactionManager) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

// MockTicketService is a mock implementation of ports.TicketService
type MockTicketService struct {
	mock.Mock
}

func NewMockTicketService() *MockTicketService {
	return &MockTicketService{}
}

func (m *MockTicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) SearchTickets(ctx context.Context, params ports.SearchTicketsParams) (*query.Page[*domain.Ticket], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*query.Page[*domain.Ticket]), args.Error(1)
}

func (m *MockTicketService) UpdateTicket(ctx context.Context, ticketID int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketService) DeleteTicket(ctx context.Context, ticketID int64) (bool, error) {
	args := m.Called(ctx, ticketID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketService) ResolveTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

// MockRequestLogService is a mock implementation of ports.RequestLogService
type MockRequestLogService struct {
	mock.Mock
}

func NewMockRequestLogService() *MockRequestLogService {
	return &MockRequestLogService{}
}

func (m *MockRequestLogService) RecordRequest(ctx context.Context, params ports.RecordRequestParams) (*domain.APIRequest, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIRequest), args.Error(1)
}

func (m *MockRequestLogService) GetRequest(ctx context.Context, requestID int64) (*domain.APIRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIRequest), args.Error(1)
}

func (m *MockRequestLogService) ListRequests(ctx context.Context, params ports.ListRequestsParams) (*query.Page[*domain.APIRequest], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*query.Page[*domain.APIRequest]), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
