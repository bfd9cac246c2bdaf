package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/mocks"
	"github.com/lorrc/ticket-insight/internal/core/ports"
	"github.com/lorrc/ticket-insight/internal/infrastructure/logging"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecoveryLogger_Returns500(t *testing.T) {
	handler := RecoveryLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error","code":"INTERNAL_ERROR"}`, rec.Body.String())
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest("GET", "/", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusNoContent, rec.Code, "limits are per client")

	rl.Stop()
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	assert.Equal(t, "192.0.2.10", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req))
}

func TestCaptureRequests_RecordsServedCall(t *testing.T) {
	service := mocks.NewMockRequestLogService()
	service.On("RecordRequest", mock.Anything, mock.MatchedBy(func(p ports.RecordRequestParams) bool {
		return p.Method == "POST" &&
			p.Path == "/api/v1/tickets" &&
			p.ResponseCode == http.StatusCreated &&
			p.ResponseTime >= 0 &&
			p.UserAgent != nil && *p.UserAgent == "curl/8.0" &&
			p.IPAddress != nil && *p.IPAddress == "192.0.2.10"
	})).Return(nil, nil).Once()

	handler := CaptureRequests(service, DefaultCaptureSkip, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))

	req := httptest.NewRequest("POST", "/api/v1/tickets", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	req.Header.Set("User-Agent", "curl/8.0")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	service.AssertExpectations(t)
}

func TestCaptureRequests_SkipsHealthAndKeepsResponseOnFailure(t *testing.T) {
	service := mocks.NewMockRequestLogService()
	service.On("RecordRequest", mock.Anything, mock.Anything).Return(nil, errors.New("store down")).Once()

	handler := CaptureRequests(service, DefaultCaptureSkip, discardLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/requests", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	service.AssertNumberOfCalls(t, "RecordRequest", 1)
}

func TestCaptureRequests_UsesContextThatOutlivesRequest(t *testing.T) {
	service := mocks.NewMockRequestLogService()
	service.On("RecordRequest", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil, nil).Once()

	handler := CaptureRequests(service, nil, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/v1/tickets", nil).WithContext(ctx)
	cancel()
	handler.ServeHTTP(httptest.NewRecorder(), req)

	service.AssertExpectations(t)
}

func TestCaptureRequests_RecordsStorableUserAgent(t *testing.T) {
	long := strings.Repeat("a", domain.MaxUserAgentLength-1) + "éé"

	service := mocks.NewMockRequestLogService()
	service.On("RecordRequest", mock.Anything, mock.MatchedBy(func(p ports.RecordRequestParams) bool {
		return p.UserAgent != nil &&
			utf8.ValidString(*p.UserAgent) &&
			*p.UserAgent == strings.Repeat("a", domain.MaxUserAgentLength-1)+"é"
	})).Return(nil, nil).Once()
	service.On("RecordRequest", mock.Anything, mock.MatchedBy(func(p ports.RecordRequestParams) bool {
		return p.UserAgent != nil && *p.UserAgent == "bad�agent"
	})).Return(nil, nil).Once()

	handler := CaptureRequests(service, nil, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, ua := range []string{long, "bad\xffagent"} {
		req := httptest.NewRequest("GET", "/api/v1/tickets", nil)
		req.Header.Set("User-Agent", ua)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	service.AssertExpectations(t)
}
