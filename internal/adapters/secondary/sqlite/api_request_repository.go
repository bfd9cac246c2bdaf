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

var apiRequestColumns = []string{
	"id", "method", "path", "response_code", "response_time", "user_agent", "ip_address", "created_at",
}

// APIRequestRepository stores observed API requests in SQLite.
type APIRequestRepository struct {
	db *sql.DB
}

var _ ports.APIRequestRepository = (*APIRequestRepository)(nil)

func NewAPIRequestRepository(db *sql.DB) *APIRequestRepository {
	return &APIRequestRepository{db: db}
}

func scanAPIRequest(row scanner) (*domain.APIRequest, error) {
	var r domain.APIRequest
	err := row.Scan(&r.ID, &r.Method, &r.Path, &r.ResponseCode, &r.ResponseTime, &r.UserAgent, &r.IPAddress, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func (r *APIRequestRepository) Create(ctx context.Context, req *domain.APIRequest) (*domain.APIRequest, error) {
	q := `INSERT INTO api_requests (method, path, response_code, response_time, user_agent, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := GetDBTX(ctx, r.db).ExecContext(ctx, q,
		req.Method, req.Path, req.ResponseCode, req.ResponseTime, req.UserAgent, req.IPAddress, req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record api request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to record api request: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *APIRequestRepository) GetByID(ctx context.Context, id int64) (*domain.APIRequest, error) {
	q := `SELECT ` + strings.Join(apiRequestColumns, ", ") + ` FROM api_requests WHERE id = ?`

	req, err := scanAPIRequest(GetDBTX(ctx, r.db).QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get api request: %w", err)
	}
	return req, nil
}

func (r *APIRequestRepository) Find(ctx context.Context, spec query.Spec) ([]*domain.APIRequest, error) {
	q, args := spec.SelectSQL(query.SQLite, "api_requests", apiRequestColumns)

	rows, err := GetDBTX(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list api requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*domain.APIRequest, 0)
	for rows.Next() {
		req, err := scanAPIRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *APIRequestRepository) Count(ctx context.Context, spec query.Spec) (int64, error) {
	q, args := spec.CountSQL(query.SQLite, "api_requests")

	var total int64
	if err := GetDBTX(ctx, r.db).QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count api requests: %w", err)
	}
	return total, nil
}
