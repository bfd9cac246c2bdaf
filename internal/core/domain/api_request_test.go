package domain_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAPIRequest(t *testing.T) {
	valid := domain.APIRequestParams{
		Method:       "get",
		Path:         "/api/v1/tickets",
		ResponseCode: 200,
		ResponseTime: 12.5,
	}

	t.Run("valid record keeps method as submitted", func(t *testing.T) {
		req, err := domain.NewAPIRequest(valid, now)

		require.NoError(t, err)
		assert.Equal(t, "get", req.Method)
		assert.Equal(t, now, req.CreatedAt)
		assert.Nil(t, req.UserAgent)
	})

	t.Run("long user agent is truncated", func(t *testing.T) {
		params := valid
		params.UserAgent = ptr(strings.Repeat("u", domain.MaxUserAgentLength+40))

		req, err := domain.NewAPIRequest(params, now)

		require.NoError(t, err)
		assert.Len(t, *req.UserAgent, domain.MaxUserAgentLength)
	})

	t.Run("multibyte user agent is cut on a character boundary", func(t *testing.T) {
		params := valid
		params.UserAgent = ptr(strings.Repeat("a", domain.MaxUserAgentLength-1) + "éé")

		req, err := domain.NewAPIRequest(params, now)

		require.NoError(t, err)
		assert.True(t, utf8.ValidString(*req.UserAgent))
		assert.Equal(t, domain.MaxUserAgentLength, utf8.RuneCountInString(*req.UserAgent))
		assert.Equal(t, strings.Repeat("a", domain.MaxUserAgentLength-1)+"é", *req.UserAgent)
	})

	t.Run("multibyte path and method at the bound are accepted", func(t *testing.T) {
		params := valid
		params.Method = strings.Repeat("É", domain.MaxMethodLength)
		params.Path = "/" + strings.Repeat("ü", domain.MaxPathLength-1)

		req, err := domain.NewAPIRequest(params, now)

		require.NoError(t, err)
		assert.Equal(t, params.Path, req.Path)
	})

	t.Run("zero response time is allowed", func(t *testing.T) {
		params := valid
		params.ResponseTime = 0

		_, err := domain.NewAPIRequest(params, now)
		assert.NoError(t, err)
	})

	tests := []struct {
		name    string
		mutate  func(p *domain.APIRequestParams)
		wantErr error
	}{
		{"empty method", func(p *domain.APIRequestParams) { p.Method = "" }, apperrors.ErrInvalidMethod},
		{"long method", func(p *domain.APIRequestParams) { p.Method = "PROPPATCHXX" }, apperrors.ErrInvalidMethod},
		{"empty path", func(p *domain.APIRequestParams) { p.Path = "" }, apperrors.ErrInvalidPath},
		{"long path", func(p *domain.APIRequestParams) { p.Path = "/" + strings.Repeat("p", domain.MaxPathLength) }, apperrors.ErrInvalidPath},
		{"code below range", func(p *domain.APIRequestParams) { p.ResponseCode = 99 }, apperrors.ErrInvalidResponseCode},
		{"code above range", func(p *domain.APIRequestParams) { p.ResponseCode = 600 }, apperrors.ErrInvalidResponseCode},
		{"negative response time", func(p *domain.APIRequestParams) { p.ResponseTime = -0.1 }, apperrors.ErrInvalidResponseTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)

			req, err := domain.NewAPIRequest(params, now)

			assert.Nil(t, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
