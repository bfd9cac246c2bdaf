package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lorrc/ticket-insight/internal/core/domain"
	apperrors "github.com/lorrc/ticket-insight/internal/core/errors"
	"github.com/lorrc/ticket-insight/internal/core/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

var ticketTestSchema = query.Schema{
	SearchColumns: []string{"title", "description"},
	Sorts: map[string]query.SortField{
		"created_at": {Column: "created_at"},
		"priority":   {Column: "priority", Ranking: []string{"low", "medium", "high"}},
	},
	DefaultSort: "created_at",
}

func seedTicket(t *testing.T, repo *TicketRepository, title, description string, priority domain.Priority, offset time.Duration) *domain.Ticket {
	t.Helper()
	created, err := repo.Create(context.Background(), &domain.Ticket{
		Title:       title,
		Description: description,
		Category:    domain.CategorySupport,
		Priority:    priority,
		Status:      domain.StatusOpen,
		CreatedAt:   baseTime.Add(offset),
	})
	require.NoError(t, err)
	return created
}

func TestTicketRepository_CreateGet(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)
	email := "reporter@example.com"

	created, err := repo.Create(ctx, &domain.Ticket{
		Title:         "Test Ticket",
		Description:   "This is a description",
		Category:      domain.CategoryBug,
		Priority:      domain.PriorityHigh,
		Status:        domain.StatusOpen,
		ReporterEmail: &email,
		CreatedAt:     baseTime,
	})
	require.NoError(t, err, "Failed to create ticket")
	assert.NotZero(t, created.ID)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err, "Failed to get ticket by ID")

	assert.Equal(t, "Test Ticket", found.Title)
	assert.Equal(t, domain.CategoryBug, found.Category)
	assert.Equal(t, domain.PriorityHigh, found.Priority)
	assert.Equal(t, domain.StatusOpen, found.Status)
	assert.Equal(t, email, *found.ReporterEmail)
	assert.True(t, found.CreatedAt.Equal(baseTime))
	assert.Nil(t, found.ResolvedAt)
}

func TestTicketRepository_NotFound(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	_, err := repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	_, err = repo.Update(ctx, &domain.Ticket{ID: 999, Title: "x", Category: domain.CategoryBug, Priority: domain.PriorityLow, Status: domain.StatusOpen})
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	deleted, err := repo.Delete(ctx, 999)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTicketRepository_UpdateDelete(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	ticket := seedTicket(t, repo, "Printer", "jammed", domain.PriorityMedium, 0)
	resolvedAt := baseTime.Add(time.Hour)
	ticket.Status = domain.StatusResolved
	ticket.ResolvedAt = &resolvedAt

	updated, err := repo.Update(ctx, ticket)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)
	assert.True(t, updated.ResolvedAt.Equal(resolvedAt))

	deleted, err := repo.Delete(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.GetByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
}

func TestTicketRepository_SearchIsLiteralAndCaseInsensitive(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	seedTicket(t, repo, "Discount 100% off", "", domain.PriorityMedium, 0)
	seedTicket(t, repo, "Discount 1000 off", "", domain.PriorityMedium, time.Second)
	seedTicket(t, repo, "snake_case field", "", domain.PriorityMedium, 2*time.Second)
	seedTicket(t, repo, "snakeXcase field", "", domain.PriorityMedium, 3*time.Second)
	seedTicket(t, repo, "Other", "mentions LOGIN in body", domain.PriorityMedium, 4*time.Second)

	search := func(term string) []*domain.Ticket {
		items, err := repo.Find(ctx, query.New(ticketTestSchema).Search(term).Build())
		require.NoError(t, err)
		return items
	}

	percent := search("100%")
	require.Len(t, percent, 1)
	assert.Equal(t, "Discount 100% off", percent[0].Title)

	underscore := search("snake_case")
	require.Len(t, underscore, 1)
	assert.Equal(t, "snake_case field", underscore[0].Title)

	login := search("login")
	require.Len(t, login, 1)
	assert.Equal(t, "Other", login[0].Title)
}

func TestTicketRepository_SearchFoldsNonASCII(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	seedTicket(t, repo, "Échec du paiement", "Überweisung", domain.PriorityMedium, 0)
	seedTicket(t, repo, "ПЛАТЁЖ не прошёл", "", domain.PriorityMedium, time.Second)
	seedTicket(t, repo, "plain ascii", "", domain.PriorityMedium, 2*time.Second)

	tests := []struct {
		term string
		want string
	}{
		{"échec", "Échec du paiement"},
		{"ÉCHEC DU", "Échec du paiement"},
		{"überweisung", "Échec du paiement"},
		{"платёж", "ПЛАТЁЖ не прошёл"},
		{"ПРОШЁЛ", "ПЛАТЁЖ не прошёл"},
		{"ASCII", "plain ascii"},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			spec := query.New(ticketTestSchema).Search(tt.term).Build()

			items, err := repo.Find(ctx, spec)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Title)

			total, err := repo.Count(ctx, spec)
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
		})
	}
}

func TestTicketRepository_StoresMultibyteAtBounds(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	title := strings.Repeat("é", domain.MaxTitleLength)
	description := strings.Repeat("ж", domain.MaxDescriptionLength)
	created := seedTicket(t, repo, title, description, domain.PriorityMedium, 0)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, title, found.Title)
	assert.Equal(t, description, found.Description)
}

func TestTicketRepository_PrioritySortAndTieBreak(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	high := seedTicket(t, repo, "a", "", domain.PriorityHigh, 0)
	low := seedTicket(t, repo, "b", "", domain.PriorityLow, 0)
	medium1 := seedTicket(t, repo, "c", "", domain.PriorityMedium, 0)
	medium2 := seedTicket(t, repo, "d", "", domain.PriorityMedium, 0)

	items, err := repo.Find(ctx, query.New(ticketTestSchema).OrderBy("priority", "desc").Build())
	require.NoError(t, err)

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	assert.Equal(t, []int64{high.ID, medium1.ID, medium2.ID, low.ID}, ids)
}

func TestTicketRepository_CountMatchesUnpagedFind(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)

	for i := 0; i < 7; i++ {
		seedTicket(t, repo, "bulk", "", domain.PriorityMedium, time.Duration(i)*time.Second)
	}
	seedTicket(t, repo, "unrelated", "", domain.PriorityMedium, time.Minute)

	spec := query.New(ticketTestSchema).Search("bulk").Page(5, 10).Build()

	total, err := repo.Count(ctx, spec)
	require.NoError(t, err)
	page, err := repo.Find(ctx, spec)
	require.NoError(t, err)

	assert.Equal(t, int64(7), total)
	assert.Len(t, page, 2)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewTicketRepository(testPool)
	tm := NewTransactionManager(testPool)

	boom := errors.New("boom")
	err := tm.WithTransaction(ctx, func(ctx context.Context) error {
		ticket := &domain.Ticket{
			Title: "rolled back", Category: domain.CategoryOther, Priority: domain.PriorityLow,
			Status: domain.StatusOpen, CreatedAt: baseTime,
		}
		if _, err := repo.Create(ctx, ticket); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	total, err := repo.Count(ctx, query.New(ticketTestSchema).Build())
	require.NoError(t, err)
	assert.Zero(t, total)
}
