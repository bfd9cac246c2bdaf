package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
)

// DefaultCaptureSkip lists path prefixes that are never recorded.
var DefaultCaptureSkip = []string{"/health", "/ws"}

// CaptureRequests records every served call through the request log service
// once the handler has finished. Paths under skip are passed through. A failed
// write is logged and never affects the response.
func CaptureRequests(service ports.RequestLogService, skip []string, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("middleware", "capture")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skip {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			params := ports.RecordRequestParams{
				Method:       r.Method,
				Path:         headerText(r.URL.Path, domain.MaxPathLength),
				ResponseCode: wrapped.statusCode,
				ResponseTime: time.Since(start).Seconds(),
			}
			if ua := r.UserAgent(); ua != "" {
				ua = headerText(ua, domain.MaxUserAgentLength)
				params.UserAgent = &ua
			}
			if ip := ClientIP(r); net.ParseIP(ip) != nil {
				params.IPAddress = &ip
			}

			ctx := context.WithoutCancel(r.Context())
			if _, err := service.RecordRequest(ctx, params); err != nil {
				logger.WarnContext(ctx, "failed to record request",
					"method", params.Method,
					"path", params.Path,
					"error", err,
				)
			}
		})
	}
}

// headerText makes raw request text storable: invalid UTF-8 is replaced and
// the result is cut to limit characters.
func headerText(s string, limit int) string {
	return domain.TruncateRunes(strings.ToValidUTF8(s, "\uFFFD"), limit)
}
