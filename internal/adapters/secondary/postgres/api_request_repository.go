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

var apiRequestColumns = []string{
	"id", "method", "path", "response_code", "response_time", "user_agent", "ip_address", "created_at",
}

// APIRequestRepository stores observed API requests.
type APIRequestRepository struct {
	pool *pgxpool.Pool
}

var _ ports.APIRequestRepository = (*APIRequestRepository)(nil)

func NewAPIRequestRepository(pool *pgxpool.Pool) *APIRequestRepository {
	return &APIRequestRepository{pool: pool}
}

func scanAPIRequest(row pgx.Row) (*domain.APIRequest, error) {
	var r domain.APIRequest
	err := row.Scan(&r.ID, &r.Method, &r.Path, &r.ResponseCode, &r.ResponseTime, &r.UserAgent, &r.IPAddress, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func (r *APIRequestRepository) Create(ctx context.Context, req *domain.APIRequest) (*domain.APIRequest, error) {
	sql := `INSERT INTO api_requests (method, path, response_code, response_time, user_agent, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + strings.Join(apiRequestColumns, ", ")

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, sql,
		req.Method, req.Path, req.ResponseCode, req.ResponseTime, req.UserAgent, req.IPAddress, req.CreatedAt,
	)
	created, err := scanAPIRequest(row)
	if err != nil {
		return nil, fmt.Errorf("failed to record api request: %w", err)
	}
	return created, nil
}

func (r *APIRequestRepository) GetByID(ctx context.Context, id int64) (*domain.APIRequest, error) {
	sql := `SELECT ` + strings.Join(apiRequestColumns, ", ") + ` FROM api_requests WHERE id = $1`

	req, err := scanAPIRequest(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get api request: %w", err)
	}
	return req, nil
}

func (r *APIRequestRepository) Find(ctx context.Context, spec query.Spec) ([]*domain.APIRequest, error) {
	sql, args := spec.SelectSQL(query.Postgres, "api_requests", apiRequestColumns)

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sql, args...)
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
	sql, args := spec.CountSQL(query.Postgres, "api_requests")

	var total int64
	if err := GetDBTX(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count api requests: %w", err)
	}
	return total, nil
}
