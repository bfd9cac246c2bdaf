package websocket

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-insight/internal/core/domain"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func receive(t *testing.T, c *Client) (domain.Event, bool) {
	t.Helper()
	select {
	case e, ok := <-c.Send:
		return e, ok
	case <-time.After(time.Second):
		return domain.Event{}, false
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.Send:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoomsAndFirehose(t *testing.T) {
	hub := startHub(t)

	watcher := NewClient(hub, nil, true, hub.logger)
	roomMember := NewClient(hub, nil, false, hub.logger)
	bystander := NewClient(hub, nil, false, hub.logger)
	hub.Register <- watcher
	hub.Register <- roomMember
	hub.Register <- bystander

	require.Eventually(t, func() bool { return hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)
	hub.subscribeClientToTicket(roomMember, 7)
	assert.Equal(t, 1, hub.ClientsInRoom(7))

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventTicketUpdated, TicketID: 7}))

	e, ok := receive(t, watcher)
	require.True(t, ok)
	assert.Equal(t, domain.EventTicketUpdated, e.Type)

	e, ok = receive(t, roomMember)
	require.True(t, ok)
	assert.Equal(t, int64(7), e.TicketID)

	expectNothing(t, bystander)

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventTicketCreated, TicketID: 8}))
	_, ok = receive(t, watcher)
	assert.True(t, ok)
	expectNothing(t, roomMember)
}

func TestHub_UnregisterCleansUp(t *testing.T) {
	hub := startHub(t)

	client := NewClient(hub, nil, false, hub.logger)
	hub.Register <- client
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	hub.subscribeClientToTicket(client, 3)

	hub.unregister(client)

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, hub.RoomCount())
	_, ok := <-client.Send
	assert.False(t, ok, "send channel should be closed")

	client.sendPong()
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := NewClient(hub, nil, true, hub.logger)
	hub.Register <- client
	cancel()
	<-stopped

	_, ok := <-client.Send
	assert.False(t, ok)

	hub.unregister(client)
}
