package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lorrc/ticket-insight/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Client message types.
const (
	MsgSubscribeTicket   = "SUBSCRIBE_TO_TICKET"
	MsgUnsubscribeTicket = "UNSUBSCRIBE_FROM_TICKET"
	MsgSubscribeAll      = "SUBSCRIBE_ALL"
	MsgUnsubscribeAll    = "UNSUBSCRIBE_ALL"
	MsgPing              = "PING"
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	ID  uuid.UUID
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan domain.Event

	// Subscriptions maps ticket IDs to true.
	Subscriptions map[int64]bool

	// wantsAll puts the client on the firehose at registration
	wantsAll bool

	// sendMu guards closed against sends from the read goroutine
	sendMu sync.Mutex
	closed bool

	// mu protects Subscriptions map
	mu sync.RWMutex

	logger *slog.Logger
}

// NewClient creates a new WebSocket client with a fresh ID. When all is
// true the client receives every ticket event from the start.
func NewClient(hub *Hub, conn *websocket.Conn, all bool, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		ID:            id,
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan domain.Event, 256),
		Subscriptions: make(map[int64]bool),
		wantsAll:      all,
		logger:        logger.With("client_id", id.String()),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) AddSubscription(ticketID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Subscriptions[ticketID] = true
}

func (c *Client) RemoveSubscription(ticketID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Subscriptions, ticketID)
}

func (c *Client) HasSubscription(ticketID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Subscriptions[ticketID]
}

// GetSubscriptions returns a copy of all subscriptions
func (c *Client) GetSubscriptions() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subs := make([]int64, 0, len(c.Subscriptions))
	for ticketID := range c.Subscriptions {
		subs = append(subs, ticketID)
	}
	return subs
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(event); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload is the payload for subscribe/unsubscribe messages
type SubscribePayload struct {
	TicketID int64 `json:"ticket_id"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case MsgSubscribeTicket:
		if id, ok := c.ticketID(msg.Payload); ok {
			c.Hub.subscribeClientToTicket(c, id)
		}
	case MsgUnsubscribeTicket:
		if id, ok := c.ticketID(msg.Payload); ok {
			c.Hub.unsubscribeClientFromTicket(c, id)
		}
	case MsgSubscribeAll:
		c.Hub.setFirehose(c, true)
	case MsgUnsubscribeAll:
		c.Hub.setFirehose(c, false)
	case MsgPing:
		c.sendPong()
	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) ticketID(payload json.RawMessage) (int64, bool) {
	var p SubscribePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal subscribe payload", "error", err)
		return 0, false
	}
	if p.TicketID <= 0 {
		c.logger.Warn("invalid ticket ID in subscribe request", "ticket_id", p.TicketID)
		return 0, false
	}
	return p.TicketID, true
}

func (c *Client) sendPong() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- domain.Event{Type: domain.EventPong, OccurredAt: time.Now().UTC()}:
	default:
	}
}
