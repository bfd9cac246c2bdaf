package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
	"github.com/lorrc/ticket-insight/internal/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requestTestSchema = query.Schema{
	SearchColumns: []string{"path"},
	RangeColumn:   "response_time",
	Sorts: map[string]query.SortField{
		"created_at":    {Column: "created_at"},
		"response_time": {Column: "response_time"},
	},
	DefaultSort: "created_at",
}

func TestAPIRequestRepository_CreateGet(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAPIRequestRepository(testPool)
	agent := "curl/8.0"

	created, err := repo.Create(ctx, &domain.APIRequest{
		Method:       "GET",
		Path:         "/api/v1/tickets",
		ResponseCode: 200,
		ResponseTime: 3.5,
		UserAgent:    &agent,
		CreatedAt:    baseTime,
	})
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/tickets", found.Path)
	assert.Equal(t, 3.5, found.ResponseTime)
	assert.Equal(t, agent, *found.UserAgent)
	assert.Nil(t, found.IPAddress)

	_, err = repo.GetByID(ctx, created.ID+100)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
}

func TestAPIRequestRepository_Filters(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAPIRequestRepository(testPool)

	records := []domain.APIRequest{
		{Method: "GET", Path: "/api/v1/tickets", ResponseCode: 200, ResponseTime: 5},
		{Method: "get", Path: "/api/v1/tickets/1", ResponseCode: 404, ResponseTime: 50},
		{Method: "POST", Path: "/api/v1/tickets", ResponseCode: 201, ResponseTime: 120},
		{Method: "GET", Path: "/health", ResponseCode: 200, ResponseTime: 1},
	}
	for i := range records {
		records[i].CreatedAt = baseTime.Add(time.Duration(i) * time.Second)
		_, err := repo.Create(ctx, &records[i])
		require.NoError(t, err)
	}

	minTime, maxTime := 5.0, 50.0
	spec := query.New(requestTestSchema).
		WhereFold("method", "Get").
		Between(&minTime, &maxTime).
		Search("TICKETS").
		OrderBy("response_time", "asc").
		Build()

	total, err := repo.Count(ctx, spec)
	require.NoError(t, err)
	items, err := repo.Find(ctx, spec)
	require.NoError(t, err)

	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, 5.0, items[0].ResponseTime)
	assert.Equal(t, 50.0, items[1].ResponseTime)
}

func TestAPIRequestRepository_StoresTruncatedMultibyteUserAgent(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewAPIRequestRepository(testPool)

	agent := strings.Repeat("a", domain.MaxUserAgentLength-1) + "éé"
	record, err := domain.NewAPIRequest(domain.APIRequestParams{
		Method: "GET", Path: "/straße", ResponseCode: 200, ResponseTime: 1, UserAgent: &agent,
	}, baseTime)
	require.NoError(t, err)

	created, err := repo.Create(ctx, record)
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.UserAgent)
	assert.Equal(t, strings.Repeat("a", domain.MaxUserAgentLength-1)+"é", *found.UserAgent)

	items, err := repo.Find(ctx, query.New(requestTestSchema).Search("STRAßE").Build())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
