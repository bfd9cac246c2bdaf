package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
	"github.com/lorrc/ticket-insight/internal/core/ports"
	"github.com/lorrc/ticket-insight/internal/core/query"
)

var ticketColumns = []string{
	"id", "title", "description", "category", "priority", "status",
	"reporter_email", "created_at", "resolved_at",
}

// TicketRepository stores tickets in SQLite.
type TicketRepository struct {
	db *sql.DB
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*domain.Ticket, error) {
	var (
		t                          domain.Ticket
		category, priority, status string
	)
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &category, &priority, &status,
		&t.ReporterEmail, &t.CreatedAt, &t.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Category = domain.Category(category)
	t.Priority = domain.Priority(priority)
	t.Status = domain.Status(status)
	t.CreatedAt = t.CreatedAt.UTC()
	if t.ResolvedAt != nil {
		resolved := t.ResolvedAt.UTC()
		t.ResolvedAt = &resolved
	}
	return &t, nil
}

// Create inserts the ticket and reads it back. The driver only reports
// column types for plain SELECTs, so RETURNING is not used here.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	q := `INSERT INTO tickets (title, description, category, priority, status, reporter_email, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := GetDBTX(ctx, r.db).ExecContext(ctx, q,
		ticket.Title, ticket.Description, string(ticket.Category), string(ticket.Priority), string(ticket.Status),
		ticket.ReporterEmail, ticket.CreatedAt, ticket.ResolvedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	q := `SELECT ` + strings.Join(ticketColumns, ", ") + ` FROM tickets WHERE id = ?`

	ticket, err := scanTicket(GetDBTX(ctx, r.db).QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return ticket, nil
}

func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	q := `UPDATE tickets
		SET title = ?, description = ?, category = ?, priority = ?, status = ?,
			reporter_email = ?, resolved_at = ?
		WHERE id = ?`

	res, err := GetDBTX(ctx, r.db).ExecContext(ctx, q,
		ticket.Title, ticket.Description, string(ticket.Category), string(ticket.Priority), string(ticket.Status),
		ticket.ReporterEmail, ticket.ResolvedAt, ticket.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	if n == 0 {
		return nil, apperrors.ErrTicketNotFound
	}
	return r.GetByID(ctx, ticket.ID)
}

func (r *TicketRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := GetDBTX(ctx, r.db).ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete ticket: %w", err)
	}
	return n > 0, nil
}

func (r *TicketRepository) Find(ctx context.Context, spec query.Spec) ([]*domain.Ticket, error) {
	q, args := spec.SelectSQL(query.SQLite, "tickets", ticketColumns)

	rows, err := GetDBTX(ctx, r.db).QueryContext(ctx, q, args...)
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

func (r *TicketRepository) Count(ctx context.Context, spec query.Spec) (int64, error) {
	q, args := spec.CountSQL(query.SQLite, "tickets")

	var total int64
	if err := GetDBTX(ctx, r.db).QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return total, nil
}
