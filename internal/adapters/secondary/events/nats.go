package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "tickets.events"

// NATSPublisher publishes ticket events as JSON on <prefix>.<event type>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

var _ ports.EventBroadcaster = (*NATSPublisher)(nil)

// NewNATSPublisher connects to url. The connection reconnects forever; publish
// calls made while disconnected are buffered by the client.
func NewNATSPublisher(url, prefix, appName string, logger *slog.Logger) (*NATSPublisher, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	conn, err := nats.Connect(url,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}, nil
}

// Broadcast publishes one event. Delivery is fire-and-forget.
func (p *NATSPublisher) Broadcast(event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := p.conn.Publish(Subject(p.prefix, event.Type), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", "error", err)
		p.conn.Close()
	}
}

// Subject returns the subject an event of type t is published on.
func Subject(prefix string, t domain.EventType) string {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return strings.TrimSuffix(prefix, ".") + "." + strings.ToLower(string(t))
}
