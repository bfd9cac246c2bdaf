package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	"github.com/lorrc/ticket-insight/internal/core/ports"
)

// Hub maintains the set of active Clients and broadcasts ticket events to them.
type Hub struct {
	// clients maps client IDs to their connection
	clients map[uuid.UUID]*Client

	// rooms maps ticket IDs to subscribed clients
	rooms map[int64]map[*Client]bool

	// firehose holds clients that receive every event
	firehose map[*Client]bool

	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// done is closed when Run returns
	done chan struct{}

	// mu protects clients, rooms and firehose
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[int64]map[*Client]bool),
		firehose:   make(map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for delivery. A full queue drops the event.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
			"ticket_id", event.TicketID,
		)
	}
	return nil
}

// Run is the hub's event loop. It returns when ctx is done, after closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Join hands a new client to the event loop. It reports false when the hub
// has already stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// unregister hands client to the event loop unless the loop has stopped.
func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	if client.wantsAll {
		h.firehose[client] = true
	}

	h.logger.Info("client registered",
		"client_id", client.ID,
		"total_connections", len(h.clients),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	delete(h.firehose, client)

	for _, ticketID := range client.GetSubscriptions() {
		if room, ok := h.rooms[ticketID]; ok {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, ticketID)
			}
		}
	}

	client.CloseSend()

	h.logger.Info("client unregistered", "client_id", client.ID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.CloseSend()
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.rooms = make(map[int64]map[*Client]bool)
	h.firehose = make(map[*Client]bool)
}

// broadcastEvent sends an event to the ticket's room and the firehose
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	targets := make(map[*Client]bool, len(h.firehose))
	for client := range h.firehose {
		targets[client] = true
	}
	for client := range h.rooms[event.TicketID] {
		targets[client] = true
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"ticket_id", event.TicketID,
		"client_count", len(targets),
	)

	for client := range targets {
		select {
		case client.Send <- event:
		default:
			h.logger.Warn("client send buffer full, unregistering", "client_id", client.ID)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) subscribeClientToTicket(client *Client, ticketID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if h.rooms[ticketID] == nil {
		h.rooms[ticketID] = make(map[*Client]bool)
	}
	h.rooms[ticketID][client] = true
	client.AddSubscription(ticketID)

	h.logger.Debug("client subscribed to ticket", "client_id", client.ID, "ticket_id", ticketID)
}

func (h *Hub) unsubscribeClientFromTicket(client *Client, ticketID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[ticketID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, ticketID)
		}
	}
	client.RemoveSubscription(ticketID)
}

func (h *Hub) setFirehose(client *Client, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if on {
		h.firehose[client] = true
	} else {
		delete(h.firehose, client)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of tickets with at least one subscriber
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// ClientsInRoom returns the number of clients subscribed to a ticket
func (h *Hub) ClientsInRoom(ticketID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ticketID])
}
