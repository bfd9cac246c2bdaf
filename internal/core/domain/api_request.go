package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
)

const (
	MaxMethodLength    = 10
	MaxPathLength      = 2048
	MaxUserAgentLength = 512
	MaxIPAddressLength = 45
	MinResponseCode    = 100
	MaxResponseCode    = 599
)

// APIRequest is an immutable record of one observed HTTP call.
// ResponseTime is measured in seconds.
type APIRequest struct {
	ID           int64
	Method       string
	Path         string
	ResponseCode int
	ResponseTime float64
	UserAgent    *string
	IPAddress    *string
	CreatedAt    time.Time
}

// APIRequestParams holds the fields of a request record to be stored.
type APIRequestParams struct {
	Method       string
	Path         string
	ResponseCode int
	ResponseTime float64
	UserAgent    *string
	IPAddress    *string
}

// NewAPIRequest validates params and builds a record. The method is kept as
// submitted; filtering compares it case-insensitively.
func NewAPIRequest(params APIRequestParams, now time.Time) (*APIRequest, error) {
	if strings.TrimSpace(params.Method) == "" || utf8.RuneCountInString(params.Method) > MaxMethodLength {
		return nil, apperrors.ErrInvalidMethod
	}
	if params.Path == "" || utf8.RuneCountInString(params.Path) > MaxPathLength {
		return nil, apperrors.ErrInvalidPath
	}
	if params.ResponseCode < MinResponseCode || params.ResponseCode > MaxResponseCode {
		return nil, apperrors.ErrInvalidResponseCode
	}
	if params.ResponseTime < 0 {
		return nil, apperrors.ErrInvalidResponseTime
	}

	return &APIRequest{
		Method:       params.Method,
		Path:         params.Path,
		ResponseCode: params.ResponseCode,
		ResponseTime: params.ResponseTime,
		UserAgent:    truncated(params.UserAgent, MaxUserAgentLength),
		IPAddress:    params.IPAddress,
		CreatedAt:    now,
	}, nil
}

// TruncateRunes cuts s to at most limit characters, never splitting a rune.
func TruncateRunes(s string, limit int) string {
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func truncated(s *string, limit int) *string {
	if s == nil || utf8.RuneCountInString(*s) <= limit {
		return s
	}
	v := TruncateRunes(*s, limit)
	return &v
}
