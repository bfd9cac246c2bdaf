package ports

import (
	"context"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/query"
)

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	Title         string
	Description   string
	ReporterEmail *string
}

// ListTicketsParams defines the input for the lightweight ticket listing.
type ListTicketsParams struct {
	Category *domain.Category
	Status   *domain.Status
}

// SearchTicketsParams defines the input for searching tickets.
type SearchTicketsParams struct {
	Search    string
	Category  *domain.Category
	Status    *domain.Status
	Priority  *domain.Priority
	SortBy    string
	SortOrder string
	Offset    int
	Limit     int
}

// RecordRequestParams defines the input for storing an API request record.
type RecordRequestParams struct {
	Method       string
	Path         string
	ResponseCode int
	ResponseTime float64
	UserAgent    *string
	IPAddress    *string
}

// ListRequestsParams defines the input for listing API request records.
type ListRequestsParams struct {
	Method          *string
	ResponseCode    *int
	MinResponseTime *float64
	MaxResponseTime *float64
	PathContains    string
	SortBy          string
	SortOrder       string
	Offset          int
	Limit           int
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	ListTickets(ctx context.Context, params ListTicketsParams) ([]*domain.Ticket, error)
	SearchTickets(ctx context.Context, params SearchTicketsParams) (*query.Page[*domain.Ticket], error)
	UpdateTicket(ctx context.Context, ticketID int64, patch domain.TicketPatch) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, ticketID int64) (bool, error)
	ResolveTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)
}

// RequestLogService defines the operations over recorded API requests.
type RequestLogService interface {
	RecordRequest(ctx context.Context, params RecordRequestParams) (*domain.APIRequest, error)
	GetRequest(ctx context.Context, requestID int64) (*domain.APIRequest, error)
	ListRequests(ctx context.Context, params ListRequestsParams) (*query.Page[*domain.APIRequest], error)
}
