package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	wsAdapter "github.com/lorrc/ticket-insight/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-insight/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-insight/internal/config"
)

// WebSocketHandler upgrades /ws requests and attaches the connection to the hub.
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *wsAdapter.Hub, cfg *config.Config, logger *slog.Logger) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		logger: logger.With("handler", "websocket"),
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins
	development := cfg.IsDevelopment()

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		if development && len(allowedOrigins) == 0 {
			h.logger.Warn("allowing websocket connection in development mode",
				"origin", origin,
				"remote_addr", r.RemoteAddr,
			)
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		if originAllowed(parsedOrigin.Host, allowedOrigins) {
			return true
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// originAllowed matches host against exact entries and "*.example.com" wildcards.
func originAllowed(host string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
		if strings.HasPrefix(allowed, "*.") {
			suffix := allowed[1:]
			if strings.HasSuffix(host, suffix) || host == allowed[2:] {
				return true
			}
		} else if host == allowed {
			return true
		}
	}
	return false
}

// ServeHTTP handles GET /ws. With ?all=true the client receives every ticket
// event; otherwise it subscribes to tickets by message.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to upgrade websocket connection", "error", err)
		return
	}

	all := validation.ParseBoolQueryParam(r, "all", false)
	client := wsAdapter.NewClient(h.hub, conn, all, h.logger)
	if !h.hub.Join(client) {
		h.logger.WarnContext(ctx, "websocket hub stopped, closing connection")
		_ = conn.Close()
		return
	}

	h.logger.InfoContext(ctx, "websocket connection established",
		"client_id", client.ID.String(),
		"remote_addr", r.RemoteAddr,
		"all", all,
	)

	go client.WritePump()
	go client.ReadPump()
}
