package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
	"github.com/lorrc/ticket-insight/internal/core/ports"
	"github.com/lorrc/ticket-insight/internal/core/query"
)

var ticketColumns = []string{
	"id", "title", "description", "category", "priority", "status",
	"reporter_email", "created_at", "resolved_at",
}

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &t.Priority, &t.Status,
		&t.ReporterEmail, &t.CreatedAt, &t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	if t.ResolvedAt != nil {
		resolved := t.ResolvedAt.UTC()
		t.ResolvedAt = &resolved
	}
	return &t, nil
}

// Create persists a new ticket entity.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	sql := `INSERT INTO tickets (title, description, category, priority, status, reporter_email, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + strings.Join(ticketColumns, ", ")

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, sql,
		ticket.Title, ticket.Description, string(ticket.Category), string(ticket.Priority), string(ticket.Status),
		ticket.ReporterEmail, ticket.CreatedAt, ticket.ResolvedAt,
	)
	created, err := scanTicket(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return created, nil
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	sql := `SELECT ` + strings.Join(ticketColumns, ", ") + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

// Update writes every mutable field of the ticket.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	sql := `UPDATE tickets
		SET title = $2, description = $3, category = $4, priority = $5, status = $6,
			reporter_email = $7, resolved_at = $8
		WHERE id = $1
		RETURNING ` + strings.Join(ticketColumns, ", ")

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, sql,
		ticket.ID, ticket.Title, ticket.Description, string(ticket.Category), string(ticket.Priority),
		string(ticket.Status), ticket.ReporterEmail, ticket.ResolvedAt,
	)
	updated, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return updated, nil
}

// Delete removes a ticket and reports whether a row was affected.
func (r *TicketRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := GetDBTX(ctx, r.pool).Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete ticket: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Find returns the page of tickets described by spec.
func (r *TicketRepository) Find(ctx context.Context, spec query.Spec) ([]*domain.Ticket, error) {
	sql, args := spec.SelectSQL(query.Postgres, "tickets", ticketColumns)

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// Count returns how many tickets match spec, ignoring its window.
func (r *TicketRepository) Count(ctx context.Context, spec query.Spec) (int64, error) {
	sql, args := spec.CountSQL(query.Postgres, "tickets")

	var total int64
	if err := GetDBTX(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return total, nil
}
