package ports

import (
	"context"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/query"
)

// TicketRepository is the storage port for tickets. GetByID and Update return
// errors.ErrTicketNotFound when no row matches.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Find(ctx context.Context, spec query.Spec) ([]*domain.Ticket, error)
	Count(ctx context.Context, spec query.Spec) (int64, error)
}

// APIRequestRepository is the storage port for request records. Records are
// never updated or deleted through it.
type APIRequestRepository interface {
	Create(ctx context.Context, req *domain.APIRequest) (*domain.APIRequest, error)
	GetByID(ctx context.Context, id int64) (*domain.APIRequest, error)
	Find(ctx context.Context, spec query.Spec) ([]*domain.APIRequest, error)
	Count(ctx context.Context, spec query.Spec) (int64, error)
}

// TransactionManager defines the port for running atomic operations.
// Repositories called with the ctx passed to fn join the transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventBroadcaster delivers domain events to live subscribers.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
