package services

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
	"github.com/lorrc/ticket-insight/internal/core/query"
)

// ticketSchema is the listing contract for tickets: text search over title
// and description, sorting by creation time or priority rank.
var ticketSchema = query.Schema{
	SearchColumns: []string{"title", "description"},
	Sorts: map[string]query.SortField{
		"created_at": {Column: "created_at"},
		"priority": {
			Column:  "priority",
			Ranking: []string{string(domain.PriorityLow), string(domain.PriorityMedium), string(domain.PriorityHigh)},
		},
	},
	DefaultSort: "created_at",
	TieBreaker:  "id",
}

// TicketService implements business logic for ticket management
type TicketService struct {
	ticketRepo  ports.TicketRepository
	txManager   ports.TransactionManager
	broadcaster ports.EventBroadcaster
	now         func() time.Time
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(
	ticketRepo ports.TicketRepository,
	txManager ports.TransactionManager,
	broadcaster ports.EventBroadcaster,
	opts ...Option,
) *TicketService {
	o := applyOptions(opts)
	return &TicketService{
		ticketRepo:  ticketRepo,
		txManager:   txManager,
		broadcaster: broadcaster,
		now:         o.now,
	}
}

// CreateTicket classifies and stores a new open ticket
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:         params.Title,
		Description:   params.Description,
		ReporterEmail: params.ReporterEmail,
	}, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.broadcast(domain.EventTicketCreated, created.ID, domain.NewTicketSnapshot(created))
	return created, nil
}

// GetTicket retrieves a single ticket
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, ticketID)
}

// ListTickets returns up to one default page of tickets, newest first
func (s *TicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	spec := query.New(ticketSchema).
		Where("category", params.Category).
		Where("status", params.Status).
		Build()

	return s.ticketRepo.Find(ctx, spec)
}

// SearchTickets filters, sorts and pages tickets. The total and the page are
// read in one transaction so they agree with each other.
func (s *TicketService) SearchTickets(ctx context.Context, params ports.SearchTicketsParams) (*query.Page[*domain.Ticket], error) {
	spec := query.New(ticketSchema).
		Search(params.Search).
		Where("category", params.Category).
		Where("status", params.Status).
		Where("priority", params.Priority).
		OrderBy(params.SortBy, params.SortOrder).
		Page(params.Offset, params.Limit).
		Build()

	page := &query.Page[*domain.Ticket]{}
	err := s.txManager.WithReadOnlyTransaction(ctx, func(ctx context.Context) error {
		total, err := s.ticketRepo.Count(ctx, spec)
		if err != nil {
			return err
		}
		items, err := s.ticketRepo.Find(ctx, spec)
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

// UpdateTicket applies the supplied fields only. An empty patch returns the
// ticket unchanged.
func (s *TicketService) UpdateTicket(ctx context.Context, ticketID int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Ticket
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			updated = ticket
			return nil
		}
		if err := ticket.Apply(patch, s.now()); err != nil {
			return err
		}
		updated, err = s.ticketRepo.Update(ctx, ticket)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !patch.IsEmpty() {
		s.broadcast(domain.EventTicketUpdated, updated.ID, domain.NewTicketSnapshot(updated))
	}
	return updated, nil
}

// DeleteTicket removes a ticket and reports whether it existed
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID int64) (bool, error) {
	deleted, err := s.ticketRepo.Delete(ctx, ticketID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.broadcast(domain.EventTicketDeleted, ticketID, domain.DeletedTicketPayload{ID: ticketID})
	}
	return deleted, nil
}

// ResolveTicket marks a ticket resolved now. Repeated calls re-stamp the
// resolution time.
func (s *TicketService) ResolveTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	var resolved *domain.Ticket
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		ticket.Resolve(s.now())
		resolved, err = s.ticketRepo.Update(ctx, ticket)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(domain.EventTicketResolved, resolved.ID, domain.NewTicketSnapshot(resolved))
	return resolved, nil
}

// broadcast publishes a ticket event after the write has committed. Delivery
// failures never fail the operation.
func (s *TicketService) broadcast(eventType domain.EventType, ticketID int64, payload any) {
	if s.broadcaster == nil {
		return
	}
	_ = s.broadcaster.Broadcast(domain.Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		TicketID:   ticketID,
		Payload:    payload,
		OccurredAt: s.now(),
	})
}
