package sqlite_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-insight/internal/adapters/secondary/sqlite"
	"github.com/lorrc/ticket-insight/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
	"github.com/lorrc/ticket-insight/internal/core/ports"
	"github.com/lorrc/ticket-insight/internal/core/services"
)

func newServices(t *testing.T) (*services.TicketService, *services.RequestLogService) {
	t.Helper()
	db := newTestDB(t)
	tm := sqlite.NewTransactionManager(db)
	tickets := services.NewTicketService(sqlite.NewTicketRepository(db), tm, nil)
	requests := services.NewRequestLogService(sqlite.NewAPIRequestRepository(db), tm)
	return tickets, requests
}

func TestTicketLifecycle(t *testing.T) {
	ctx := context.Background()
	tickets, _ := newServices(t)

	bug, err := tickets.CreateTicket(ctx, ports.CreateTicketParams{
		Title:       "Save fails",
		Description: "An exception occurs when saving data",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryBug, bug.Category)

	feature, err := tickets.CreateTicket(ctx, ports.CreateTicketParams{
		Title:       "Export",
		Description: "Please add csv export functionality",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFeatureRequest, feature.Category)

	found, err := tickets.GetTicket(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, bug.Title, found.Title)
	assert.Equal(t, bug.Description, found.Description)
	assert.Equal(t, bug.Category, found.Category)
	assert.Equal(t, bug.Priority, found.Priority)
	assert.Equal(t, bug.Status, found.Status)

	resolved, err := tickets.ResolveTicket(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	deleted, err := tickets.DeleteTicket(ctx, bug.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = tickets.DeleteTicket(ctx, bug.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = tickets.GetTicket(ctx, bug.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestSearchTickets(t *testing.T) {
	ctx := context.Background()
	tickets, _ := newServices(t)

	_, err := tickets.CreateTicket(ctx, ports.CreateTicketParams{
		Title:       "Card declined",
		Description: "My payment did not go through",
	})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := tickets.CreateTicket(ctx, ports.CreateTicketParams{Title: "Question", Description: "how do I log in"})
		require.NoError(t, err)
	}

	page, err := tickets.SearchTickets(ctx, ports.SearchTicketsParams{Search: "PAYMENT"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, page.Total, int64(1))
	assert.Contains(t, strings.ToLower(page.Items[0].Description), "payment")

	page, err = tickets.SearchTickets(ctx, ports.SearchTicketsParams{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.GreaterOrEqual(t, page.Total, int64(5))

	support := domain.CategorySupport
	listed, err := tickets.ListTickets(ctx, ports.ListTicketsParams{Category: &support})
	require.NoError(t, err)
	assert.Len(t, listed, 5)
}

func TestUpdateTicket_PartialFields(t *testing.T) {
	ctx := context.Background()
	tickets, _ := newServices(t)
	email := "a@example.com"

	ticket, err := tickets.CreateTicket(ctx, ports.CreateTicketParams{
		Title:         "Original",
		Description:   "kept",
		ReporterEmail: &email,
	})
	require.NoError(t, err)

	title := "Renamed"
	updated, err := tickets.UpdateTicket(ctx, ticket.ID, domain.TicketPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "kept", updated.Description)
	require.NotNil(t, updated.ReporterEmail)

	cleared, err := tickets.UpdateTicket(ctx, ticket.ID, domain.TicketPatch{ClearReporterEmail: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.ReporterEmail)

	unchanged, err := tickets.UpdateTicket(ctx, ticket.ID, domain.TicketPatch{})
	require.NoError(t, err)
	assert.Equal(t, cleared, unchanged)

	_, err = tickets.UpdateTicket(ctx, ticket.ID+100, domain.TicketPatch{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestListRequests_FilterByResponseCode(t *testing.T) {
	ctx := context.Background()
	_, requests := newServices(t)

	_, err := requests.RecordRequest(ctx, ports.RecordRequestParams{Method: "GET", Path: "/missing", ResponseCode: 404, ResponseTime: 2})
	require.NoError(t, err)
	_, err = requests.RecordRequest(ctx, ports.RecordRequestParams{Method: "GET", Path: "/ok", ResponseCode: 200, ResponseTime: 1})
	require.NoError(t, err)

	code := 404
	page, err := requests.ListRequests(ctx, ports.ListRequestsParams{ResponseCode: &code})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 404, page.Items[0].ResponseCode)

	method := "get"
	page, err = requests.ListRequests(ctx, ports.ListRequestsParams{Method: &method, SortBy: "response_time", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "/ok", page.Items[0].Path)
}

func TestCreateTicket_MultibyteTextAtBounds(t *testing.T) {
	ctx := context.Background()
	tickets, _ := newServices(t)

	title := strings.Repeat("é", domain.MaxTitleLength)
	description := strings.Repeat("ü", domain.MaxDescriptionLength)

	created, err := tickets.CreateTicket(ctx, ports.CreateTicketParams{Title: title, Description: description})
	require.NoError(t, err)

	found, err := tickets.GetTicket(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, title, found.Title)
	assert.Equal(t, description, found.Description)

	_, err = tickets.CreateTicket(ctx, ports.CreateTicketParams{Title: title + "é"})
	assert.ErrorIs(t, err, apperrors.ErrTitleTooLong)
}

func TestSearchTickets_NonASCIIIgnoresCase(t *testing.T) {
	ctx := context.Background()
	tickets, _ := newServices(t)

	_, err := tickets.CreateTicket(ctx, ports.CreateTicketParams{Title: "Échec du paiement", Description: "Überweisung"})
	require.NoError(t, err)
	_, err = tickets.CreateTicket(ctx, ports.CreateTicketParams{Title: "Unrelated", Description: "nothing here"})
	require.NoError(t, err)

	for _, term := range []string{"Échec", "échec", "ÉCHEC", "Überweisung", "überweisung", "paiement"} {
		t.Run(term, func(t *testing.T) {
			page, err := tickets.SearchTickets(ctx, ports.SearchTicketsParams{Search: term})
			require.NoError(t, err)
			require.Equal(t, int64(1), page.Total)
			assert.Equal(t, "Échec du paiement", page.Items[0].Title)
		})
	}
}

func TestRecordRequest_MultibyteUserAgentRoundTrips(t *testing.T) {
	ctx := context.Background()
	_, requests := newServices(t)

	ua := strings.Repeat("a", domain.MaxUserAgentLength-1) + "éé"
	record, err := requests.RecordRequest(ctx, ports.RecordRequestParams{
		Method: "GET", Path: "/straße", ResponseCode: 200, ResponseTime: 0.1, UserAgent: &ua,
	})
	require.NoError(t, err)

	found, err := requests.GetRequest(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, found.UserAgent)
	assert.True(t, utf8.ValidString(*found.UserAgent))
	assert.Equal(t, domain.MaxUserAgentLength, utf8.RuneCountInString(*found.UserAgent))

	page, err := requests.ListRequests(ctx, ports.ListRequestsParams{PathContains: "STRASSE"})
	require.NoError(t, err)
	assert.Zero(t, page.Total, "ß does not fold to ss")

	page, err = requests.ListRequests(ctx, ports.ListRequestsParams{PathContains: "STRAßE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
